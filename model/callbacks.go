package model

import "time"

// Callbacks are the six virtual hooks spec §3/§4.6 gives the Client
// façade's caller: info/warning/debug diagnostics, periodic performance
// samples, per-message results, and the Locate-API-busy signal. All must
// be safe to call from whatever goroutine currently owns the Client — in
// this implementation that is always the single goroutine running Run,
// so no synchronization is required inside a callback itself.
type Callbacks struct {
	OnInfo        func(msg string)
	OnWarning     func(msg string)
	OnDebug       func(msg string)
	OnPerformance func(direction Direction, numStreams int, total int64, elapsed, maxRuntime time.Duration)
	OnResult      func(protocol, direction, payload string)
	OnServerBusy  func(hostname string)
}

// Direction names an ndt7 subtest.
type Direction string

// The two ndt7 subtests.
const (
	DirectionDownload = Direction("download")
	DirectionUpload   = Direction("upload")
)
