package tcpinfox

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func getTCPInfo(fd int) (*Snapshot, error) {
	var info Snapshot
	infoLen := uint32(unsafe.Sizeof(info))
	_, _, errno := unix.Syscall6(
		unix.SYS_GETSOCKOPT,
		uintptr(fd),
		uintptr(unix.SOL_TCP),
		uintptr(unix.TCP_INFO),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&infoLen)),
		0)
	if errno != 0 {
		return &info, errno
	}
	return &info, nil
}
