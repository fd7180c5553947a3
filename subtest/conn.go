package subtest

import (
	"crypto/tls"
	"net"

	"github.com/m-lab/ndt7-client-go/netx"
)

// underlyingFd unwraps conn (possibly a *tls.Conn layered over a
// *netx.Conn, possibly the *netx.Conn directly) down to the raw socket
// descriptor tcpinfox needs. It returns ok=false when conn is neither shape
// ndt7-client-go itself produces; it does not check the platform.
func underlyingFd(conn net.Conn) (int, bool) {
	if tlsConn, ok := conn.(*tls.Conn); ok {
		conn = tlsConn.NetConn()
	}
	if nc, ok := conn.(*netx.Conn); ok {
		return nc.Fd(), true
	}
	return 0, false
}
