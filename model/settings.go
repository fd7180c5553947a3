// Package model contains the data types shared across the ndt7 client:
// the immutable run Settings, the SummaryData the façade fills in, the
// ndt7 wire message schema, and the WebSocket URL parts used to reach a
// candidate server.
package model

import "time"

// Settings contains the configuration for a single client run. It is
// created once by the façade's caller and treated as read-only by every
// layer below it, per spec §3's "consumed read-only" lifecycle.
type Settings struct {
	// LocateURL is the base URL of the M-Lab Locate API.
	LocateURL string

	// Hostname, Port, and Scheme select a fixed ndt7 server, bypassing
	// Locate. Scheme is "ws" or "wss"; if empty, "wss" is assumed once
	// Hostname is set.
	Hostname string
	Port     string
	Scheme   string

	// Download and Upload select which subtests to run.
	Download bool
	Upload   bool

	// TLS and WebSocket record the protocol layers of a run; WebSocket is
	// always true for ndt7. The client does not read either field: it
	// runs the TLS handshake exactly when a candidate URL's scheme is
	// "wss", and always performs the WebSocket upgrade.
	TLS       bool
	WebSocket bool

	// Timeout is the per-I/O timeout.
	Timeout time.Duration

	// MaxRuntime bounds the download subtest's total loop time.
	MaxRuntime time.Duration

	// SOCKS5Port, if non-zero, routes all traffic through a SOCKSv5h proxy
	// listening on 127.0.0.1:SOCKS5Port.
	SOCKS5Port int

	// CABundlePath, if set, overrides the default CA bundle candidates.
	CABundlePath string

	// NoVerify disables TLS peer verification when true.
	NoVerify bool

	// Metadata is forwarded to the Locate API as query parameters, and
	// also used to build the static-mode URLs.
	Metadata map[string]string

	// Verbose enables debug-level events (on_debug, per-message on_result).
	Verbose bool

	// SummaryOnly suppresses on_performance events when true.
	SummaryOnly bool
}

// DefaultSettings returns a Settings value with the defaults spec §3/§4
// assume when a field is left unset by the caller.
func DefaultSettings() Settings {
	return Settings{
		LocateURL:  "https://locate.measurementlab.net",
		Download:   true,
		Upload:     true,
		TLS:        true,
		WebSocket:  true,
		Timeout:    7 * time.Second,
		MaxRuntime: 15 * time.Second,
		Metadata:   map[string]string{},
	}
}

// EffectiveScheme returns Settings.Scheme, defaulting to "wss" when unset.
func (s Settings) EffectiveScheme() string {
	if s.Scheme != "" {
		return s.Scheme
	}
	return "wss"
}

// SummaryData is the façade's per-run measurement result. Every field is
// zero-initialized; a zero value means "not measured". SummaryData is owned
// by the façade and mutated only by the subtest engine: a successful
// download sets the download fields, a successful upload then updates only
// the upload fields, per spec §3's monotonic-set invariant.
type SummaryData struct {
	// DownloadSpeed and UploadSpeed are in kbit/s.
	DownloadSpeed float64
	UploadSpeed   float64

	// DownloadRetransmission and UploadRetransmission are in [0, 1].
	DownloadRetransmission float64
	UploadRetransmission   float64

	// MinRTT is in microseconds.
	MinRTT float64
}
