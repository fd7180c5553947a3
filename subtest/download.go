package subtest

import (
	"context"
	"fmt"
	"time"

	"github.com/m-lab/ndt7-client-go/errorsx"
	"github.com/m-lab/ndt7-client-go/metrics"
	"github.com/m-lab/ndt7-client-go/model"
	"github.com/m-lab/ndt7-client-go/ws"
)

// maxMessageSize is the receive buffer size: the maximum ndt7 message an
// implementation is expected to accept (spec §4.4).
const maxMessageSize = 16 << 20

// Download runs the download subtest against conn until the server closes
// the connection (eof, success) or maxRuntime elapses (failure — the
// server is expected to close first, per spec §4.4).
func Download(ctx context.Context, conn *ws.Conn, maxRuntime time.Duration, summaryOnly, verbose bool, cb model.Callbacks) (Result, error) {
	metrics.ActiveSubtests.WithLabelValues(string(model.DirectionDownload)).Inc()
	defer metrics.ActiveSubtests.WithLabelValues(string(model.DirectionDownload)).Dec()

	result := Result{Direction: model.DirectionDownload}
	buf := make([]byte, maxMessageSize)
	begin := time.Now()
	latest := begin

	for {
		select {
		case <-ctx.Done():
			return result, errorsx.New(errorsx.KindInterrupted, "subtest.Download", ctx.Err())
		default:
		}
		now := time.Now()
		if now.Sub(begin) > maxRuntime {
			metrics.ErrorCount.WithLabelValues(string(model.DirectionDownload), "max_runtime").Inc()
			if cb.OnWarning != nil {
				cb.OnWarning("download: exceeded max runtime without server close")
			}
			return result, errorsx.New(errorsx.KindTimedOut, "subtest.Download", nil)
		}
		if !summaryOnly && now.Sub(latest) >= measurementInterval {
			latest = now
			if cb.OnPerformance != nil {
				cb.OnPerformance(model.DirectionDownload, 1, result.Bytes, now.Sub(begin), maxRuntime)
			}
		}

		op, n, err := conn.ReadMessage(buf)
		if errorsx.Is(err, errorsx.KindEOF) {
			break
		}
		if err != nil {
			metrics.ErrorCount.WithLabelValues(string(model.DirectionDownload), "read").Inc()
			return result, err
		}
		result.Bytes += int64(n)
		metrics.BytesTransferred.WithLabelValues(string(model.DirectionDownload)).Add(float64(n))

		if op == ws.OpText {
			applyMeasurement(&result, buf[:n], verbose, cb)
		}
	}

	result.Elapsed = time.Since(begin)
	result.SpeedKbits = speedKbits(result.Bytes, result.Elapsed)
	metrics.SubtestCount.WithLabelValues(string(model.DirectionDownload)).Inc()
	metrics.TestRate.WithLabelValues(string(model.DirectionDownload)).Observe(result.SpeedKbits / 1000)
	return result, nil
}

func applyMeasurement(result *Result, payload []byte, verbose bool, cb model.Callbacks) {
	m, err := model.ParseMeasurement(payload)
	if err != nil {
		// spec §9: a parse failure here must not abort the subtest, but is
		// still worth a debug-level line, mirroring the original's
		// "Unable to parse message as JSON" warning.
		if cb.OnDebug != nil {
			cb.OnDebug(fmt.Sprintf("download: unable to parse measurement: %v", err))
		}
		return
	}
	if m.TCPInfo != nil {
		result.Retransmit = 0
		if m.TCPInfo.BytesSent != 0 {
			result.Retransmit = float64(m.TCPInfo.BytesRetrans) / float64(m.TCPInfo.BytesSent)
		}
		result.MinRTT = m.TCPInfo.MinRTT
	}
	if verbose && cb.OnResult != nil {
		cb.OnResult("ndt7", string(model.DirectionDownload), string(payload))
	}
}
