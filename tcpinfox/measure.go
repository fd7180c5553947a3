package tcpinfox

import "github.com/m-lab/ndt7-client-go/model"

// DownloadTCPInfo reads TCP_INFO for fd and maps it onto the simplified
// download-path shape the server itself uses (spec §4.4/§6): bytes sent,
// bytes retransmitted, and the connection's minimum observed RTT. A failure
// to read TCP_INFO (e.g. ErrNoSupport off Linux) yields the zero TCPInfo
// rather than an error, since a measurement tick that cannot sample the
// kernel must not abort the subtest.
func DownloadTCPInfo(fd int) model.TCPInfo {
	snap, err := GetTCPInfo(fd)
	if err != nil {
		return model.TCPInfo{}
	}
	return model.TCPInfo{
		BytesSent:    int64(snap.BytesSent),
		BytesRetrans: int64(snap.BytesRetrans),
		MinRTT:       snap.MinRTT,
	}
}

// UploadTCPInfo reads TCP_INFO for fd and maps every field the upload path
// reports (spec §4.4/§6) onto the "Tcpi"-prefixed KernelTCPInfo shape the
// client sends embedded in its ClientMeasurement messages.
func UploadTCPInfo(fd int) model.KernelTCPInfo {
	snap, err := GetTCPInfo(fd)
	if err != nil {
		return model.KernelTCPInfo{}
	}
	return model.KernelTCPInfo{
		"TcpiRtt":           int64(snap.RTT),
		"TcpiRttvar":        int64(snap.RTTVar),
		"TcpiMinRtt":        int64(snap.MinRTT),
		"TcpiSndCwnd":       int64(snap.SndCwnd),
		"TcpiSndSsthresh":   int64(snap.SndSsthresh),
		"TcpiRcvSsthresh":   int64(snap.RcvSsthresh),
		"TcpiReordering":    int64(snap.Reordering),
		"TcpiTotalRetrans":  int64(snap.TotalRetrans),
		"TcpiBytesSent":     int64(snap.BytesSent),
		"TcpiBytesRetrans":  int64(snap.BytesRetrans),
		"TcpiBytesAcked":    int64(snap.BytesAcked),
		"TcpiBytesReceived": int64(snap.BytesReceived),
		"TcpiSegsOut":       int64(snap.SegsOut),
		"TcpiSegsIn":        int64(snap.SegsIn),
	}
}
