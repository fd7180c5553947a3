// Package netx implements the ndt7 client's non-blocking TCP dialer (spec
// §4.1): resolve, iterate addresses, connect without blocking the process,
// and wait for readiness through a poll-equivalent bounded by the
// configured I/O timeout. It is grounded on the teacher's own
// netx.EnableBBR, which already shows the idiom of dropping to a raw
// syscall against a socket's file descriptor, generalized here from "set
// one option on an already-connected net.TCPConn" to "own the whole
// connect(2) sequence".
package netx

import (
	"context"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/m-lab/ndt7-client-go/errorsx"
)

// Conn is a non-blocking TCP connection whose Read/Write suspend on
// EAGAIN by waiting for readiness via unix.Poll, bounded by Timeout. It
// implements net.Conn so the TLS and WebSocket layers above it need no
// awareness of the non-blocking socket underneath.
type Conn struct {
	fd      int
	laddr   net.Addr
	raddr   net.Addr
	Timeout time.Duration

	readDeadline  time.Time
	writeDeadline time.Time
}

var _ net.Conn = &Conn{}

// Fd returns the raw socket descriptor, for tcpinfox's getsockopt calls.
func (c *Conn) Fd() int { return c.fd }

// Dial resolves host (a DNS name or an IP literal), and for every resulting
// address creates a non-blocking socket and attempts to connect, per spec
// §4.1's algorithm. It returns the first successfully connected Conn, or,
// when every address fails, a KindIOError failure wrapping the last
// address's error.
func Dial(ctx context.Context, host, port string, timeout time.Duration) (*Conn, error) {
	addrs, err := lookupHost(ctx, host)
	if err != nil {
		return nil, errorsx.New(errorsx.ClassifyResolverError(err), "netx.Dial: lookup", err)
	}
	portNum, kind := parsePort(port)
	if kind != "" {
		return nil, errorsx.New(kind, "netx.Dial: port", nil)
	}
	var lastErr error
	for _, addr := range addrs {
		conn, err := dialOne(ctx, addr, portNum, timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, errorsx.New(errorsx.KindIOError, "netx.Dial", lastErr)
}

func parsePort(port string) (int, errorsx.Kind) {
	n, errKind := modelStrToNum(port)
	if errKind != "" {
		return 0, errorsx.KindInvalidArgument
	}
	return n, ""
}

// modelStrToNum is a tiny local re-implementation of model.StrToNum's
// bounds check (1..65535), grounded on the same spec §8 strtonum contract.
func modelStrToNum(s string) (int, string) {
	n := 0
	if s == "" {
		return 0, "invalid"
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, "invalid"
		}
		n = n*10 + int(c-'0')
		if n > 65535 {
			return 0, "too large"
		}
	}
	if n < 1 {
		return 0, "too small"
	}
	return n, ""
}

func lookupHost(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}
	return net.DefaultResolver.LookupIPAddr(ctx, host)
}

func dialOne(ctx context.Context, addr net.IPAddr, port int, timeout time.Duration) (*Conn, error) {
	family := unix.AF_INET
	sa := sockaddr(addr.IP, port, &family)

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, errorsx.New(errorsx.ClassifySyscallError(err), "netx.Dial: socket", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, errorsx.New(errorsx.ClassifySyscallError(err), "netx.Dial: setnonblock", err)
	}
	setNoSIGPIPE(fd)

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return nil, errorsx.New(errorsx.ClassifySyscallError(err), "netx.Dial: connect", err)
	}
	if err == unix.EINPROGRESS {
		if werr := waitWritable(ctx, fd, timeout); werr != nil {
			unix.Close(fd)
			return nil, werr
		}
		soErr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr != nil {
			unix.Close(fd)
			return nil, errorsx.New(errorsx.ClassifySyscallError(gerr), "netx.Dial: getsockopt", gerr)
		}
		if soErr != 0 {
			unix.Close(fd)
			errno := unix.Errno(soErr)
			return nil, errorsx.New(errorsx.ClassifySyscallError(errno), "netx.Dial: so_error", errno)
		}
	}
	c := &Conn{
		fd:      fd,
		Timeout: timeout,
		laddr:   &net.TCPAddr{IP: addr.IP, Port: 0},
		raddr:   &net.TCPAddr{IP: addr.IP, Port: port},
	}
	return c, nil
}

func sockaddr(ip net.IP, port int, family *int) unix.Sockaddr {
	if v4 := ip.To4(); v4 != nil {
		*family = unix.AF_INET
		var addr [4]byte
		copy(addr[:], v4)
		return &unix.SockaddrInet4{Port: port, Addr: addr}
	}
	*family = unix.AF_INET6
	var addr [16]byte
	copy(addr[:], ip.To16())
	return &unix.SockaddrInet6{Port: port, Addr: addr}
}

// waitWritable blocks the calling goroutine, via unix.Poll, until fd is
// writable, ctx is done, or timeout elapses — the "wait for writeability
// up to the I/O timeout" step of spec §4.1.
func waitWritable(ctx context.Context, fd int, timeout time.Duration) error {
	return waitReady(ctx, fd, unix.POLLOUT, timeout, "netx.Dial: wait-writable")
}

func waitReadable(ctx context.Context, fd int, timeout time.Duration) error {
	return waitReady(ctx, fd, unix.POLLIN, timeout, "netx.Conn.Read: wait-readable")
}

func waitReady(ctx context.Context, fd int, events int16, timeout time.Duration, op string) error {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if timeout > 0 && remaining <= 0 {
			return errorsx.New(errorsx.KindTimedOut, op, nil)
		}
		if err := ctx.Err(); err != nil {
			return errorsx.New(errorsx.KindInterrupted, op, err)
		}
		pollTimeout := -1
		if timeout > 0 {
			pollTimeout = int(remaining / time.Millisecond)
			if pollTimeout <= 0 {
				pollTimeout = 1
			}
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, err := unix.Poll(fds, pollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue // spec §5: "interrupted is retried (the poll wrapper loops on EINTR)"
			}
			return errorsx.New(errorsx.ClassifySyscallError(err), op, err)
		}
		if n > 0 {
			return nil
		}
		if timeout > 0 {
			return errorsx.New(errorsx.KindTimedOut, op, nil)
		}
	}
}

// Read implements net.Conn. It retries internally on EAGAIN by waiting for
// readability, so that everything layered above (TLS, WebSocket) sees
// ordinary blocking-style I/O.
func (c *Conn) Read(b []byte) (int, error) {
	ctx := context.Background()
	for {
		n, err := unix.Read(c.fd, b)
		if err == nil {
			if n == 0 {
				return 0, errorsx.New(errorsx.KindEOF, "netx.Conn.Read", nil)
			}
			return n, nil
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			if werr := waitReadable(ctx, c.fd, c.remaining(c.readDeadline)); werr != nil {
				return 0, werr
			}
			continue
		}
		if err == unix.EINTR {
			continue
		}
		return 0, errorsx.New(errorsx.ClassifySyscallError(err), "netx.Conn.Read", err)
	}
}

// Write implements net.Conn with the same EAGAIN retry discipline as Read.
func (c *Conn) Write(b []byte) (int, error) {
	ctx := context.Background()
	total := 0
	for total < len(b) {
		n, err := unix.Write(c.fd, b[total:])
		if err == nil {
			total += n
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			if werr := waitWritable(ctx, c.fd, c.remaining(c.writeDeadline)); werr != nil {
				return total, werr
			}
			continue
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EPIPE {
			return total, errorsx.New(errorsx.KindBrokenPipe, "netx.Conn.Write", err)
		}
		return total, errorsx.New(errorsx.ClassifySyscallError(err), "netx.Conn.Write", err)
	}
	return total, nil
}

func (c *Conn) remaining(deadline time.Time) time.Duration {
	if deadline.IsZero() {
		return c.Timeout
	}
	if d := time.Until(deadline); d > 0 {
		return d
	}
	return time.Nanosecond // already past: make the next poll fail fast with timed_out
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

// LocalAddr implements net.Conn.
func (c *Conn) LocalAddr() net.Addr { return c.laddr }

// RemoteAddr implements net.Conn.
func (c *Conn) RemoteAddr() net.Addr { return c.raddr }

// SetDeadline implements net.Conn.
func (c *Conn) SetDeadline(t time.Time) error {
	c.readDeadline, c.writeDeadline = t, t
	return nil
}

// SetReadDeadline implements net.Conn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline = t
	return nil
}

// SetWriteDeadline implements net.Conn.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline = t
	return nil
}
