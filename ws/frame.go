package ws

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/m-lab/ndt7-client-go/errorsx"
)

const maxControlFramePayload = 125

// WriteFrame sends one frame carrying payload with the given opcode and FIN
// bit, masked with c's per-connection mask (spec §4.3's client-always-masks
// rule).
func (c *Conn) WriteFrame(op Opcode, fin bool, payload []byte) error {
	frame := prepareFrame(op, fin, payload, c.mask)
	if _, err := c.conn.Write(frame); err != nil {
		return errorsx.Wrap("ws.WriteFrame", err)
	}
	return nil
}

// prepareFrame builds the wire bytes for one RFC 6455 frame: first byte
// FIN|reserved(0)|opcode; second byte MASK(1)|length-tag; extended length
// (0, 2, or 8 bytes, big-endian); the 4-byte mask; and the XOR-masked
// payload.
func prepareFrame(op Opcode, fin bool, payload []byte, mask [4]byte) []byte {
	header := make([]byte, 2, 14+len(payload))
	if fin {
		header[0] = 0x80
	}
	header[0] |= byte(op) & 0x0F
	header[1] = 0x80 // MASK bit always set by the client

	n := len(payload)
	switch {
	case n <= 125:
		header[1] |= byte(n)
	case n <= 65535:
		header[1] |= 126
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(n))
		header = append(header, ext[:]...)
	default:
		header[1] |= 127
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		header = append(header, ext[:]...)
	}
	header = append(header, mask[:]...)

	masked := make([]byte, n)
	for i, b := range payload {
		masked[i] = b ^ mask[i%4]
	}
	return append(header, masked...)
}

// readFrame reads one frame off the wire, transparently answering PING
// with PONG and looping past PONG frames, and turning a received CLOSE
// into an echoed CLOSE plus a KindEOF return (spec §4.3's control-frame
// handling).
func (c *Conn) readFrame() (Opcode, bool, []byte, error) {
	for {
		header := make([]byte, 2)
		if _, err := io.ReadFull(c.reader, header); err != nil {
			return 0, false, nil, errorsx.Wrap("ws.readFrame: header", err)
		}
		if header[0]&0x70 != 0 {
			return 0, false, nil, errorsx.New(errorsx.KindWSProto, "ws.readFrame: reserved bits", nil)
		}
		fin := header[0]&0x80 != 0
		op := Opcode(header[0] & 0x0F)
		if !validOpcode(op) {
			return 0, false, nil, errorsx.New(errorsx.KindWSProto, "ws.readFrame: opcode", nil)
		}
		masked := header[1]&0x80 != 0
		if masked {
			return 0, false, nil, errorsx.New(errorsx.KindInvalidArgument, "ws.readFrame: server-masked frame", nil)
		}
		length, err := c.readLength(header[1] & 0x7F)
		if err != nil {
			return 0, false, nil, err
		}
		if op.isControl() && (length > maxControlFramePayload || !fin) {
			return 0, false, nil, errorsx.New(errorsx.KindWSProto, "ws.readFrame: control frame", nil)
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(c.reader, payload); err != nil {
			return 0, false, nil, errorsx.Wrap("ws.readFrame: payload", err)
		}
		switch op {
		case OpClose:
			c.WriteFrame(OpClose, true, nil)
			return op, fin, payload, errorsx.New(errorsx.KindEOF, "ws.readFrame: close", nil)
		case OpPing:
			if err := c.WriteFrame(OpPong, true, payload); err != nil {
				return 0, false, nil, err
			}
			continue
		case OpPong:
			continue
		default:
			return op, fin, payload, nil
		}
	}
}

func validOpcode(op Opcode) bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	default:
		return false
	}
}

func (c *Conn) readLength(tag byte) (uint64, error) {
	switch tag {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(c.reader, ext[:]); err != nil {
			return 0, errorsx.Wrap("ws.readFrame: length16", err)
		}
		return uint64(binary.BigEndian.Uint16(ext[:])), nil
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(c.reader, ext[:]); err != nil {
			return 0, errorsx.Wrap("ws.readFrame: length64", err)
		}
		v := binary.BigEndian.Uint64(ext[:])
		if v&(1<<63) != 0 {
			return 0, errorsx.New(errorsx.KindWSProto, "ws.readFrame: length64 high bit", nil)
		}
		return v, nil
	default:
		return uint64(tag), nil
	}
}

// ReadMessage reads one complete message (a TEXT/BINARY frame, plus any
// CONTINUATION frames until FIN) into buf, returning the opcode and the
// number of bytes written. A message whose total length exceeds len(buf)
// fails with KindMessageSize.
func (c *Conn) ReadMessage(buf []byte) (Opcode, int, error) {
	op, fin, payload, err := c.readFrame()
	if err != nil {
		return op, 0, err
	}
	if op != OpText && op != OpBinary {
		return op, 0, errorsx.New(errorsx.KindWSProto, "ws.ReadMessage: opcode", nil)
	}
	n, err := copyInto(buf, 0, payload)
	if err != nil {
		return op, n, err
	}
	for !fin {
		var contOp Opcode
		contOp, fin, payload, err = c.readFrame()
		if err != nil {
			return op, n, err
		}
		if contOp != OpContinuation {
			return op, n, errorsx.New(errorsx.KindWSProto, "ws.ReadMessage: expected continuation", nil)
		}
		n, err = copyInto(buf, n, payload)
		if err != nil {
			return op, n, err
		}
	}
	return op, n, nil
}

// copyInto appends payload to buf starting at offset n, saturating-checking
// the total so an overflow of int arithmetic can never occur before the
// bounds check fires (spec §4.3's "saturating-checked" requirement).
func copyInto(buf []byte, n int, payload []byte) (int, error) {
	total := int64(n) + int64(len(payload))
	if total > int64(len(buf)) {
		return n, errorsx.New(errorsx.KindMessageSize, "ws.ReadMessage", nil)
	}
	copy(buf[n:total], payload)
	return int(total), nil
}

// Close sends a CLOSE frame and closes the underlying connection.
func (c *Conn) Close() error {
	c.WriteFrame(OpClose, true, nil)
	return c.conn.Close()
}

// UnderlyingConn exposes the wrapped net.Conn, e.g. for tcpinfox to reach
// the raw fd of the netx.Conn at the bottom of the TLS/proxy stack.
func (c *Conn) UnderlyingConn() net.Conn {
	return c.conn
}

// LocalAddr and RemoteAddr forward to the underlying connection.
func (c *Conn) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
