package subtest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/m-lab/ndt7-client-go/errorsx"
	"github.com/m-lab/ndt7-client-go/metrics"
	"github.com/m-lab/ndt7-client-go/model"
	"github.com/m-lab/ndt7-client-go/tcpinfox"
	"github.com/m-lab/ndt7-client-go/ws"
)

// uploadPayloadSize is the fixed size of the binary frame sent repeatedly
// during the upload subtest (spec §4.4).
const uploadPayloadSize = 8 << 10

// Upload runs the upload subtest against conn for up to maxUploadTime,
// independent of Settings.MaxRuntime (spec §4.4).
func Upload(ctx context.Context, conn *ws.Conn, summaryOnly, verbose bool, cb model.Callbacks) (Result, error) {
	metrics.ActiveSubtests.WithLabelValues(string(model.DirectionUpload)).Inc()
	defer metrics.ActiveSubtests.WithLabelValues(string(model.DirectionUpload)).Dec()

	payload, err := randomASCIIPayload(uploadPayloadSize)
	if err != nil {
		return Result{Direction: model.DirectionUpload}, errorsx.New(errorsx.KindInvalidArgument, "subtest.Upload: payload", err)
	}

	fd, hasFd := underlyingFd(conn.UnderlyingConn())
	result := Result{Direction: model.DirectionUpload}
	begin := time.Now()
	latest := begin

	for {
		select {
		case <-ctx.Done():
			return result, errorsx.New(errorsx.KindInterrupted, "subtest.Upload", ctx.Err())
		default:
		}
		now := time.Now()
		if now.Sub(begin) > maxUploadTime {
			break
		}
		if now.Sub(latest) >= measurementInterval {
			latest = now
			sendMeasurement(conn, &result, begin, now, fd, hasFd)
			if !summaryOnly && cb.OnPerformance != nil {
				cb.OnPerformance(model.DirectionUpload, 1, result.Bytes, now.Sub(begin), maxUploadTime)
			}
		}
		if err := conn.WriteFrame(ws.OpBinary, true, payload); err != nil {
			metrics.ErrorCount.WithLabelValues(string(model.DirectionUpload), "write").Inc()
			return result, err
		}
		result.Bytes += int64(len(payload))
		metrics.BytesTransferred.WithLabelValues(string(model.DirectionUpload)).Add(float64(len(payload)))
	}

	result.Elapsed = time.Since(begin)
	result.SpeedKbits = speedKbits(result.Bytes, result.Elapsed)
	metrics.SubtestCount.WithLabelValues(string(model.DirectionUpload)).Inc()
	metrics.TestRate.WithLabelValues(string(model.DirectionUpload)).Observe(result.SpeedKbits / 1000)
	return result, nil
}

// sendMeasurement builds and sends the periodic upload-path measurement
// message (spec §4.4): AppInfo always, plus a KernelTCPInfo snapshot on
// platforms tcpinfox supports. A failure to encode or send this message is
// neither reported nor fatal — only the bulk binary frame failing aborts
// the subtest.
func sendMeasurement(conn *ws.Conn, result *Result, begin, now time.Time, fd int, hasFd bool) {
	msg := model.ClientMeasurement{
		AppInfo: &model.AppInfo{
			NumBytes:    result.Bytes,
			ElapsedTime: now.Sub(begin).Microseconds(),
		},
	}
	if hasFd {
		info := tcpinfox.UploadTCPInfo(fd)
		msg.TCPInfo = info
		if sent, ok := info["TcpiBytesSent"]; ok && sent != 0 {
			result.Retransmit = float64(info["TcpiBytesRetrans"]) / float64(sent)
		}
		result.MinRTT = uint32(info["TcpiMinRtt"])
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.WriteFrame(ws.OpText, true, data)
}

func randomASCIIPayload(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	for i, b := range buf {
		buf[i] = 0x20 + b%(0x7f-0x20) // printable ASCII range
	}
	return buf, nil
}
