package model

import "testing"

func TestParseMeasurementDownload(t *testing.T) {
	data := []byte(`{"TCPInfo":{"BytesSent":1000,"BytesRetrans":10,"MinRTT":4200}}`)
	m, err := ParseMeasurement(data)
	if err != nil {
		t.Fatalf("ParseMeasurement: %v", err)
	}
	if m.TCPInfo == nil {
		t.Fatal("TCPInfo is nil")
	}
	if m.TCPInfo.BytesSent != 1000 || m.TCPInfo.BytesRetrans != 10 || m.TCPInfo.MinRTT != 4200 {
		t.Errorf("TCPInfo = %+v, want {1000 10 4200}", *m.TCPInfo)
	}
}

func TestParseMeasurementUnknownFieldsIgnored(t *testing.T) {
	data := []byte(`{"TCPInfo":{"BytesSent":1,"BytesRetrans":0,"MinRTT":1},"BBRInfo":{"BW":123}}`)
	if _, err := ParseMeasurement(data); err != nil {
		t.Fatalf("ParseMeasurement should ignore unmodeled fields, got error: %v", err)
	}
}

func TestParseMeasurementMalformed(t *testing.T) {
	if _, err := ParseMeasurement([]byte("not json")); err == nil {
		t.Error("ParseMeasurement: want error on malformed input")
	}
}
