package ws

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that the frame and handshake tests, which drive
// WriteFrame/ReadMessage from background goroutines over net.Pipe, leave no
// goroutine behind — the mirror of what a stray blocked Poll or Read would
// look like in package netx.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
