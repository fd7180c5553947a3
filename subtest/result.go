// Package subtest implements the download and upload measurement loops
// (spec §4.4), driving a *ws.Conn to move bytes for a bounded time while
// periodically sampling and reporting throughput. The loop shape — a
// ticker-gated measurement send/receive alongside the bulk transfer, with
// prometheus counters and apex/log-style debug lines at each step — is
// grounded on the teacher's ndt7/upload/sender and ndt7/receiver, adapted
// from "one goroutine per direction talking over channels to a shared
// websocket.Conn" to a single sequential loop over one *ws.Conn, since
// spec §5 mandates single-threaded cooperative I/O rather than the
// server's concurrent sender/receiver goroutines.
package subtest

import (
	"fmt"
	"time"

	"github.com/m-lab/ndt7-client-go/model"
)

// measurementInterval is how often the loop emits an on_performance sample
// and (on upload) sends a measurement message, per spec §4.4.
const measurementInterval = 250 * time.Millisecond

// maxUploadTime is the upload subtest's own transfer ceiling, independent
// of Settings.MaxRuntime (spec §4.4).
const maxUploadTime = 10 * time.Second

// Result is what one subtest run reports back to the client façade.
type Result struct {
	Direction  model.Direction
	Bytes      int64
	Elapsed    time.Duration
	Retransmit float64 // fraction, BytesRetrans/BytesSent
	MinRTT     uint32  // microseconds
	SpeedKbits float64
}

// FormatSpeed renders v (kbit/s) as a 3-significant-digit string in
// kbit/s, Mbit/s, or Gbit/s, dividing by 1000 while the magnitude exceeds
// it (spec §4.4's derived-fields rule).
func FormatSpeed(kbits float64) string {
	units := []string{"kbit/s", "Mbit/s", "Gbit/s"}
	v := kbits
	i := 0
	for v > 1000 && i < len(units)-1 {
		v /= 1000
		i++
	}
	return fmt.Sprintf("%.3g %s", v, units[i])
}

func speedKbits(bytes int64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(bytes*8) / 1000 / seconds
}
