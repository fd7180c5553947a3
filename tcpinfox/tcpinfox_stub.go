// +build !linux

package tcpinfox

func getTCPInfo(fd int) (*Snapshot, error) {
	return nil, ErrNoSupport
}
