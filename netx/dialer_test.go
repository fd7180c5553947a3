//go:build linux

package netx

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDialConnectsToListener(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}

	conn, err := Dial(context.Background(), host, port, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	server := <-accepted
	defer server.Close()

	msg := []byte("hello")
	if _, err := server.Write(msg); err != nil {
		t.Fatalf("server.Write: %v", err)
	}
	buf := make([]byte, len(msg))
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("conn.Read: %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("got %q, want %q", buf, "hello")
	}

	if _, err := conn.Write([]byte("world")); err != nil {
		t.Fatalf("conn.Write: %v", err)
	}
}

func TestDialConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close() // now nothing is listening on this port

	_, err = Dial(context.Background(), host, port, 2*time.Second)
	if err == nil {
		t.Fatal("want an error connecting to a closed port")
	}
}

func TestDialInvalidPort(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1", "not-a-port", time.Second)
	if err == nil {
		t.Fatal("want error for a non-numeric port")
	}
}

func TestDialContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 10.255.255.1 is a non-routable address chosen to force a pending
	// connect that waitWritable then observes ctx as already canceled.
	_, err := Dial(ctx, "10.255.255.1", "80", 5*time.Second)
	if err == nil {
		t.Fatal("want an error for an already-canceled context")
	}
}
