// Package tcpinfox gathers TCP_INFO statistics for the measurement loops of
// package subtest. It is grounded on the teacher's own tcpinfox package,
// which reads TCP_INFO off a dup()ed *os.File obtained from an accepted
// net.TCPConn; here there is no dup() because the client owns the fd it
// dialed outright (see netx.Conn.Fd), so tcpinfox reads straight off it.
package tcpinfox

import "errors"

// ErrNoSupport is returned on systems that do not support TCP_INFO.
var ErrNoSupport = errors.New("TCP_INFO not supported")

// Snapshot is the subset of Linux's struct tcp_info (linux/tcp.h) that the
// download and upload subtests consume: round-trip time and retransmission
// counters. Field order and widths mirror the kernel ABI from tcpi_state
// through tcpi_bytes_retrans; fields we never read are still declared,
// because their widths determine the offsets of the ones we do.
type Snapshot struct {
	State                  uint8
	CaState                uint8
	Retransmits            uint8
	Probes                 uint8
	Backoff                uint8
	Options                uint8
	WScale                 uint8
	DeliveryRateAppLimited uint8
	RTO                    uint32
	ATO                    uint32
	SndMSS                 uint32
	RcvMSS                 uint32
	Unacked                uint32
	Sacked                 uint32
	Lost                   uint32
	Retrans                uint32
	Fackets                uint32
	LastDataSent           uint32
	LastAckSent            uint32
	LastDataRecv           uint32
	LastAckRecv            uint32
	PMTU                   uint32
	RcvSsthresh            uint32
	RTT                    uint32
	RTTVar                 uint32
	SndSsthresh            uint32
	SndCwnd                uint32
	AdvMSS                 uint32
	Reordering             uint32
	RcvRTT                 uint32
	RcvSpace               uint32
	TotalRetrans           uint32
	PacingRate             uint64
	MaxPacingRate          uint64
	BytesAcked             uint64
	BytesReceived          uint64
	SegsOut                uint32
	SegsIn                 uint32
	NotsentBytes           uint32
	MinRTT                 uint32
	DataSegsIn             uint32
	DataSegsOut            uint32
	DeliveryRate           uint64
	BusyTime               uint64
	RWndLimited            uint64
	SndBufLimited          uint64
	Delivered              uint32
	DeliveredCE            uint32
	BytesSent              uint64
	BytesRetrans           uint64
}

// GetTCPInfo reads TCP_INFO for the socket owned by fd. It returns
// ErrNoSupport on platforms with no TCP_INFO concept (anything but Linux).
func GetTCPInfo(fd int) (*Snapshot, error) {
	return getTCPInfo(fd)
}
