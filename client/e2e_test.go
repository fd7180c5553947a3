//go:build linux

package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m-lab/ndt7-client-go/model"
)

// e2e_test.go exercises the client against a real ndt7 server endpoint
// built with gorilla/websocket — the one place this module reaches for
// that library, reserved for test-harness use since package ws implements
// the client protocol itself from scratch (spec §4.3).

var upgrader = websocket.Upgrader{
	Subprotocols: []string{"net.measurementlab.ndt.v7"},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

func downloadServer(t *testing.T, messages int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ndt/v7/download", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for i := 0; i < messages; i++ {
			conn.WriteMessage(websocket.BinaryMessage, make([]byte, 4096))
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	return httptest.NewServer(mux)
}

func TestAttemptSubtestDownloadEndToEnd(t *testing.T) {
	srv := downloadServer(t, 50)
	defer srv.Close()

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}

	settings := model.DefaultSettings()
	settings.Scheme = "ws"
	settings.Timeout = 3 * time.Second
	settings.MaxRuntime = 3 * time.Second
	c := New(settings)

	wsURL := "ws://" + net.JoinHostPort(host, port) + "/ndt/v7/download"
	result, err := c.attemptSubtest(context.Background(), model.DirectionDownload, wsURL)
	if err != nil {
		t.Fatalf("attemptSubtest: %v", err)
	}
	if result.Bytes != 50*4096 {
		t.Errorf("Bytes = %d, want %d", result.Bytes, 50*4096)
	}
}
