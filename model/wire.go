package model

import "encoding/json"

// TCPInfo carries the three download-path kernel TCP statistics ndt7
// actually consumes (spec §4.4/§6), named to match the server's JSON.
type TCPInfo struct {
	BytesSent    int64  `json:"BytesSent"`
	BytesRetrans int64  `json:"BytesRetrans"`
	MinRTT       uint32 `json:"MinRTT"`
}

// KernelTCPInfo is the upload-path representation: every tcp_info field
// the platform exposes, keyed by its lower_snake name converted to
// UpperCamelCase and prefixed "Tcpi" (spec §4.4/§6), e.g. "TcpiRtt",
// "TcpiMinRtt", "TcpiBytesSent", "TcpiBytesRetrans".
type KernelTCPInfo map[string]int64

// AppInfo is the application-level measurement both directions report.
type AppInfo struct {
	NumBytes    int64 `json:"NumBytes"`
	ElapsedTime int64 `json:"ElapsedTime"`
}

// ConnectionInfo identifies the endpoints and run, echoed by some servers.
type ConnectionInfo struct {
	Client string `json:"Client,omitempty"`
	Server string `json:"Server,omitempty"`
	UUID   string `json:"UUID,omitempty"`
}

// Measurement is the server->client download-path JSON envelope. Unknown
// fields (e.g. BBRInfo on servers that emit it) are intentionally not
// modeled: spec §9's open question says a parse failure on this message
// must not abort the subtest, and unmodeled fields are simply dropped by
// json.Unmarshal rather than causing one, which is the safer default.
type Measurement struct {
	ConnectionInfo *ConnectionInfo `json:"ConnectionInfo,omitempty"`
	TCPInfo        *TCPInfo        `json:"TCPInfo,omitempty"`
}

// ClientMeasurement is the client->server upload-path JSON envelope.
type ClientMeasurement struct {
	AppInfo *AppInfo      `json:"AppInfo,omitempty"`
	TCPInfo KernelTCPInfo `json:"TCPInfo,omitempty"`
}

// ParseMeasurement attempts to decode data as a Measurement. Per spec §9,
// a parse failure here is expected to be swallowed by the caller (byte
// counting must continue regardless), so this helper just surfaces the
// error for a debug-level log rather than treating it as fatal.
func ParseMeasurement(data []byte) (Measurement, error) {
	var m Measurement
	err := json.Unmarshal(data, &m)
	return m, err
}
