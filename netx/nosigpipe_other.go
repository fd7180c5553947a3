// +build !linux

package netx

import "golang.org/x/sys/unix"

// setNoSIGPIPE sets SO_NOSIGPIPE on platforms (Darwin, the BSDs) whose
// runtimes do not extend Go's blanket SIGPIPE-ignoring behavior to every
// socket fd. Best-effort: a failure here just means a closed-peer write may
// raise SIGPIPE instead of returning EPIPE, which we treat as acceptable
// degradation rather than a dial failure.
func setNoSIGPIPE(fd int) {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1)
}
