package subtest

import (
	"testing"

	"github.com/m-lab/ndt7-client-go/model"
)

func TestApplyMeasurementSetsRetransmitAndMinRTT(t *testing.T) {
	result := Result{Direction: model.DirectionDownload}
	payload := []byte(`{"TCPInfo":{"BytesSent":2000,"BytesRetrans":20,"MinRTT":3300}}`)
	applyMeasurement(&result, payload, false, model.Callbacks{})

	if result.Retransmit != 0.01 {
		t.Errorf("Retransmit = %v, want 0.01", result.Retransmit)
	}
	if result.MinRTT != 3300 {
		t.Errorf("MinRTT = %v, want 3300", result.MinRTT)
	}
}

func TestApplyMeasurementMalformedIsIgnored(t *testing.T) {
	var debugged string
	cb := model.Callbacks{OnDebug: func(msg string) { debugged = msg }}
	result := Result{Direction: model.DirectionDownload, Bytes: 42}
	applyMeasurement(&result, []byte("not json"), false, cb)

	if result.Bytes != 42 || result.Retransmit != 0 || result.MinRTT != 0 {
		t.Errorf("malformed measurement mutated result: %+v", result)
	}
	if debugged == "" {
		t.Error("expected OnDebug to be called on parse failure")
	}
}

func TestApplyMeasurementVerboseCallsOnResult(t *testing.T) {
	var gotProtocol, gotDirection, gotPayload string
	cb := model.Callbacks{
		OnResult: func(protocol, direction, payload string) {
			gotProtocol, gotDirection, gotPayload = protocol, direction, payload
		},
	}
	payload := []byte(`{"TCPInfo":{"BytesSent":1,"BytesRetrans":0,"MinRTT":1}}`)
	applyMeasurement(&Result{}, payload, true, cb)

	if gotProtocol != "ndt7" || gotDirection != "download" || gotPayload != string(payload) {
		t.Errorf("OnResult callback got (%q, %q, %q)", gotProtocol, gotDirection, gotPayload)
	}
}
