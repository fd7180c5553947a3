package subtest

import "testing"

func TestRandomASCIIPayload(t *testing.T) {
	payload, err := randomASCIIPayload(uploadPayloadSize)
	if err != nil {
		t.Fatalf("randomASCIIPayload: %v", err)
	}
	if len(payload) != uploadPayloadSize {
		t.Fatalf("len = %d, want %d", len(payload), uploadPayloadSize)
	}
	for i, b := range payload {
		if b < 0x20 || b >= 0x7f {
			t.Fatalf("payload[%d] = %#x, outside printable ASCII range", i, b)
		}
	}
}

func TestUnderlyingFdNonNetxConn(t *testing.T) {
	_, ok := underlyingFd(nil)
	if ok {
		t.Error("underlyingFd(nil) should report ok=false")
	}
}
