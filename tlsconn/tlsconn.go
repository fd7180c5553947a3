// Package tlsconn performs the TLS handshake stage of the ndt7 connection
// pipeline (spec §4.2). The decorator-with-deadline shape is grounded on
// ooni-probe-cli's netxlite.TLSHandshakerStdlib; the difference is that our
// underlying conn is already non-blocking (netx.Conn retries on EAGAIN by
// itself), so crypto/tls's ordinary blocking Handshake gets the
// want_read/want_write retry behavior spec §4.2 asks for without any
// SSL_get_error-style state machine on top.
package tlsconn

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"time"

	"github.com/m-lab/ndt7-client-go/errorsx"
	"github.com/m-lab/ndt7-client-go/netx"
)

// defaultCABundlePaths lists the well-known system CA bundle locations,
// probed in order when no explicit bundle path is configured. Grounded on
// the portable set Go's own crypto/x509 probes on Unix-like systems.
var defaultCABundlePaths = []string{
	"/etc/ssl/cert.pem",
	"/etc/ssl/certs/ca-certificates.crt",
	"/etc/pki/tls/certs/ca-bundle.crt",
}

// LoadCABundle loads the PEM bundle at path, or, if path is empty, probes
// defaultCABundlePaths in order and loads the first one that exists.
func LoadCABundle(path string) (*x509.CertPool, error) {
	candidates := defaultCABundlePaths
	if path != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM(data) {
			return pool, nil
		}
	}
	return nil, errorsx.New(errorsx.KindInvalidArgument, "tlsconn.LoadCABundle", nil)
}

// Handshake runs a TLS client handshake over conn against hostname, under a
// deadline of timeout. When pool is nil, the platform's default root store
// is used. When verify is false, certificate verification is disabled
// (spec §4.2's explicit insecure-mode knob, never the default).
func Handshake(ctx context.Context, conn *netx.Conn, hostname string, verify bool, pool *x509.CertPool, timeout time.Duration) (*tls.Conn, error) {
	config := &tls.Config{
		ServerName:         hostname,
		RootCAs:            pool,
		InsecureSkipVerify: !verify,
	}
	defer conn.SetDeadline(time.Time{})
	conn.SetDeadline(time.Now().Add(timeout))

	tlsConn := tls.Client(conn, config)
	done := make(chan error, 1)
	go func() { done <- tlsConn.Handshake() }()
	select {
	case err := <-done:
		if err != nil {
			return nil, classifyHandshakeError(err)
		}
		return tlsConn, nil
	case <-ctx.Done():
		conn.Close()
		return nil, errorsx.New(errorsx.KindInterrupted, "tlsconn.Handshake", ctx.Err())
	}
}

func classifyHandshakeError(err error) error {
	var existing *errorsx.Error
	if errors.As(err, &existing) {
		return err // already classified by netx.Conn's Read/Write
	}
	if kind := errorsx.ClassifySyscallError(err); kind == errorsx.KindTimedOut || kind == errorsx.KindEOF {
		return errorsx.New(kind, "tlsconn.Handshake", err)
	}
	return errorsx.New(errorsx.KindSSLGeneric, "tlsconn.Handshake", err)
}

// Close best-effort closes conn: if it is a *tls.Conn, Close sends
// close_notify under an I/O timeout before the underlying netx.Conn closes.
func Close(conn net.Conn, timeout time.Duration) error {
	if tlsConn, ok := conn.(*tls.Conn); ok {
		tlsConn.SetDeadline(time.Now().Add(timeout))
		return tlsConn.Close()
	}
	return conn.Close()
}
