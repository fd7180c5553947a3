package locate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuerySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/nearest/ndt/ndt7" {
			t.Errorf("path = %q, want /v2/nearest/ndt/ndt7", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"urls":{"wss:///ndt/v7/download":"wss://ndt.example.com/ndt/v7/download"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-agent/1.0")
	c.BaseURL = srv.URL
	results, err := c.Query(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].URLs["wss:///ndt/v7/download"] != "wss://ndt.example.com/ndt/v7/download" {
		t.Errorf("unexpected URLs: %v", results[0].URLs)
	}
}

func TestQueryUsesPriorityPathWithKey(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-agent/1.0")
	c.BaseURL = srv.URL
	if _, err := c.Query(context.Background(), map[string]string{"key": "secret"}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if gotPath != "/v2/priority/nearest/ndt/ndt7" {
		t.Errorf("path = %q, want the priority path", gotPath)
	}
}

func TestQueryServerBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-agent/1.0")
	c.BaseURL = srv.URL
	_, err := c.Query(context.Background(), map[string]string{})
	if err != ErrServerBusy {
		t.Errorf("err = %v, want ErrServerBusy", err)
	}
}

func TestQueryErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"error":"no servers available"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-agent/1.0")
	c.BaseURL = srv.URL
	_, err := c.Query(context.Background(), map[string]string{})
	if err == nil || err.Error() != "no servers available" {
		t.Errorf("err = %v, want %q", err, "no servers available")
	}
}

func TestQueryNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-agent/1.0")
	c.BaseURL = srv.URL
	if _, err := c.Query(context.Background(), map[string]string{}); err == nil {
		t.Fatal("want error for a non-200/204 status")
	}
}

func TestStaticResult(t *testing.T) {
	results := StaticResult("wss", "ndt.example.com", "443", map[string]string{})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	urls := results[0].URLs
	if urls["wss:///ndt/v7/download"] != "wss://ndt.example.com:443/ndt/v7/download" {
		t.Errorf("download URL = %q", urls["wss:///ndt/v7/download"])
	}
	if urls["wss:///ndt/v7/upload"] != "wss://ndt.example.com:443/ndt/v7/upload" {
		t.Errorf("upload URL = %q", urls["wss:///ndt/v7/upload"])
	}
}

func TestStaticResultWithMetadata(t *testing.T) {
	results := StaticResult("ws", "ndt.example.com", "80", map[string]string{"client_name": "test"})
	got := results[0].URLs["ws:///ndt/v7/download"]
	want := "ws://ndt.example.com:80/ndt/v7/download?client_name=test"
	if got != want {
		t.Errorf("download URL = %q, want %q", got, want)
	}
}
