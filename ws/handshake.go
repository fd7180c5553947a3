package ws

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/m-lab/ndt7-client-go/errorsx"
)

// websocketGUID is the RFC 6455 §1.3 magic string appended to the client's
// Sec-WebSocket-Key before hashing to compute the expected Accept value.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const (
	maxHeaderLines    = 1000
	maxHeaderLineSize = 8000
)

// Conn is a WebSocket connection over an already-dialed net.Conn (the
// product of C1/C2: a plain, SOCKS-proxied, or TLS netx.Conn).
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	mask   [4]byte

	readBuf []byte // not used: frames are read through reader
}

// Handshake performs the client-side WebSocket upgrade over conn (spec
// §4.3): it sends the upgrade request, reads the "HTTP/1.1 101" status
// line, and validates the four required response headers before the blank
// line that ends them. A random 16-byte Sec-WebSocket-Key is generated per
// handshake and the response's Sec-WebSocket-Accept is checked against the
// value computed for that exact key — spec §4.3's suggested remediation
// for its own "fixed key" limitation, applied here as the default.
func Handshake(ctx context.Context, conn net.Conn, host, path, subprotocol string, timeout time.Duration) (*Conn, error) {
	defer conn.SetDeadline(time.Time{})
	conn.SetDeadline(time.Now().Add(timeout))

	key, err := randomKey()
	if err != nil {
		return nil, errorsx.New(errorsx.KindWSProto, "ws.Handshake: key", err)
	}
	if err := sendUpgradeRequest(conn, host, path, subprotocol, key); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(conn)
	if err := readStatusLine(reader); err != nil {
		return nil, err
	}
	if err := validateHeaders(reader, subprotocol, acceptFor(key)); err != nil {
		return nil, err
	}
	mask, err := randomKey4()
	if err != nil {
		return nil, errorsx.New(errorsx.KindWSProto, "ws.Handshake: mask", err)
	}
	return &Conn{conn: conn, reader: reader, mask: mask}, nil
}

func randomKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func randomKey4() ([4]byte, error) {
	var buf [4]byte
	_, err := rand.Read(buf[:])
	return buf, err
}

func acceptFor(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func sendUpgradeRequest(conn net.Conn, host, path, subprotocol, key string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", key)
	fmt.Fprintf(&b, "Sec-WebSocket-Protocol: %s\r\n", subprotocol)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	b.WriteString("\r\n")
	if _, err := conn.Write([]byte(b.String())); err != nil {
		return errorsx.Wrap("ws.Handshake: write request", err)
	}
	return nil
}

func readStatusLine(reader *bufio.Reader) error {
	line, err := readLine(reader)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "HTTP/1.1 101") {
		return errorsx.New(errorsx.KindWSProto, "ws.Handshake: status line", nil)
	}
	return nil
}

func validateHeaders(reader *bufio.Reader, subprotocol, expectedAccept string) error {
	var sawUpgrade, sawConnection, sawAccept, sawProtocol bool
	for i := 0; i < maxHeaderLines; i++ {
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		if line == "" {
			if sawUpgrade && sawConnection && sawAccept && sawProtocol {
				return nil
			}
			return errorsx.New(errorsx.KindWSProto, "ws.Handshake: missing header", nil)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "upgrade":
			sawUpgrade = strings.EqualFold(value, "websocket")
		case "connection":
			sawConnection = strings.EqualFold(value, "upgrade")
		case "sec-websocket-accept":
			sawAccept = value == expectedAccept
		case "sec-websocket-protocol":
			sawProtocol = value == subprotocol
		}
	}
	return errorsx.New(errorsx.KindWSProto, "ws.Handshake: too many header lines", nil)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", errorsx.Wrap("ws.Handshake: read header", err)
	}
	if len(line) > maxHeaderLineSize {
		return "", errorsx.New(errorsx.KindWSProto, "ws.Handshake: header line too long", nil)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
