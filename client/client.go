// Package client implements the ndt7 client façade (spec §4.6): it owns a
// Settings/SummaryData pair and drives Locate discovery, the connection
// pipeline (netx/socks5/tlsconn/ws), and the subtest engine to completion.
// The Client{Settings}/Run()/Download()-Upload() shape is grounded on the
// teacher's cmd/ndt-client/client.Client, generalized from "one fixed URL,
// one dialer" to the full candidate-failover engine spec.md §4/§4.5
// describes; default callback wiring follows logging/logging.go's
// apex/log.Logger-as-package-variable idiom.
package client

import (
	"context"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"

	"github.com/m-lab/ndt7-client-go/errorsx"
	"github.com/m-lab/ndt7-client-go/locate"
	"github.com/m-lab/ndt7-client-go/logging"
	"github.com/m-lab/ndt7-client-go/metrics"
	"github.com/m-lab/ndt7-client-go/model"
	"github.com/m-lab/ndt7-client-go/netx"
	"github.com/m-lab/ndt7-client-go/socks5"
	"github.com/m-lab/ndt7-client-go/subtest"
	"github.com/m-lab/ndt7-client-go/tlsconn"
	"github.com/m-lab/ndt7-client-go/ws"
)

// userAgent identifies this client to the Locate API, per spec §6. It is
// not sent in the WebSocket upgrade request to ndt7 servers.
const userAgent = "ndt7-client-go/0.1"

// subprotocol is the WebSocket subprotocol ndt7 negotiates during upgrade.
const subprotocol = "net.measurementlab.ndt.v7"

// Client is the ndt7 client façade of spec §4.6.
type Client struct {
	Settings  model.Settings
	Callbacks model.Callbacks

	summary model.SummaryData
	uuid    string
	caPool  *x509.CertPool
}

// New builds a Client for settings, with default callback implementations
// writing through package logging (spec §4.6: "default implementations
// write to a diagnostic stream").
func New(settings model.Settings) *Client {
	c := &Client{Settings: settings, uuid: uuid.NewString()}
	c.Callbacks = model.Callbacks{
		OnInfo:        func(msg string) { logging.Logger.Info(msg) },
		OnWarning:     func(msg string) { logging.Logger.Warn("[!] " + msg) },
		OnDebug:       func(msg string) { logging.Logger.Debug("[D] " + msg) },
		OnPerformance: c.defaultOnPerformance,
		OnResult:      c.defaultOnResult,
		OnServerBusy:  func(hostname string) { logging.Logger.Warnf("[!] server busy: %s", hostname) },
	}
	return c
}

func (c *Client) defaultOnPerformance(direction model.Direction, numStreams int, total int64, elapsed, maxRuntime time.Duration) {
	speed := subtest.FormatSpeed(float64(total*8) / 1000 / elapsed.Seconds())
	logging.Logger.Debugf("[D] %s: %s (%d/%d bytes, %s elapsed)", direction, speed, total, numStreams, elapsed)
}

func (c *Client) defaultOnResult(protocol, direction, payload string) {
	logging.Logger.Debugf("[D] %s/%s: %s", protocol, direction, payload)
}

// Summary returns the SummaryData accumulated so far.
func (c *Client) Summary() model.SummaryData {
	return c.summary
}

// Run executes the selected subtests in order (download before upload, per
// spec §4.4's ordering rule) and reports overall success.
func (c *Client) Run(ctx context.Context) bool {
	logging.SetVerbose(c.Settings.Verbose)
	results, err := c.locateCandidates(ctx)
	if err != nil {
		c.Callbacks.OnWarning(fmt.Sprintf("locate failed: %v", err))
		return false
	}

	ok := true
	if c.Settings.Download {
		if !c.runSubtest(ctx, model.DirectionDownload, results) {
			ok = false
		}
	}
	if c.Settings.Upload {
		if !c.runSubtest(ctx, model.DirectionUpload, results) {
			ok = false
		}
	}
	return ok
}

// userAgent returns this run's User-Agent string, tagging requests with
// the run's uuid so repeated Locate queries from one Client are
// correlatable server-side.
func (c *Client) userAgent() string {
	return fmt.Sprintf("%s (run %s)", userAgent, c.uuid)
}

// locateCandidates yields the ordered candidate list: static synthesis
// when Settings.Hostname is set (no I/O, spec §4.5), else a live Locate
// API v2 query.
func (c *Client) locateCandidates(ctx context.Context) ([]locate.Result, error) {
	scheme := c.Settings.EffectiveScheme()
	if c.Settings.Hostname != "" {
		return locate.StaticResult(scheme, c.Settings.Hostname, c.Settings.Port, c.Settings.Metadata), nil
	}
	httpClient := c.locateHTTPClient()
	lc := locate.NewClient(httpClient, c.userAgent())
	lc.BaseURL = c.Settings.LocateURL
	results, err := lc.Query(ctx, c.Settings.Metadata)
	if err == locate.ErrServerBusy {
		metrics.LocateQueryCount.WithLabelValues("busy").Inc()
		c.Callbacks.OnServerBusy(c.Settings.LocateURL)
		return nil, err
	}
	if err != nil {
		metrics.LocateQueryCount.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LocateQueryCount.WithLabelValues("ok").Inc()
	return results, nil
}

// locateHTTPClient builds the *http.Client used only for the Locate API
// request, honoring the configured SOCKSv5h proxy (spec §4.2's proxy
// setting reaches every outbound connection this client makes, including
// this one, an [AMBIENT] extension since the Locate transport itself is
// out of spec.md's specified core per §1).
func (c *Client) locateHTTPClient() *http.Client {
	transport := &http.Transport{}
	if c.Settings.SOCKS5Port != 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", c.Settings.SOCKS5Port)
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err == nil {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}
	return &http.Client{Timeout: c.Settings.Timeout, Transport: transport}
}

// runSubtest iterates candidates for direction until one succeeds,
// advancing on any failure (spec §4/§4.4's per-attempt failover rule).
func (c *Client) runSubtest(ctx context.Context, direction model.Direction, results []locate.Result) bool {
	key := c.Settings.EffectiveScheme() + fmt.Sprintf(":///ndt/v7/%s", direction)
	for _, r := range results {
		url, ok := r.URLs[key]
		if !ok {
			continue
		}
		result, err := c.attemptSubtest(ctx, direction, url)
		if err != nil {
			c.Callbacks.OnWarning(fmt.Sprintf("%s attempt failed: %v", direction, err))
			continue
		}
		c.applyResult(result)
		c.Callbacks.OnInfo(fmt.Sprintf("%s: %s", direction, subtest.FormatSpeed(result.SpeedKbits)))
		return true
	}
	return false
}

func (c *Client) applyResult(result subtest.Result) {
	switch result.Direction {
	case model.DirectionDownload:
		c.summary.DownloadSpeed = result.SpeedKbits
		c.summary.DownloadRetransmission = result.Retransmit
		c.summary.MinRTT = float64(result.MinRTT)
	case model.DirectionUpload:
		c.summary.UploadSpeed = result.SpeedKbits
		c.summary.UploadRetransmission = result.Retransmit
	}
}

// attemptSubtest establishes one fresh connection (spec §3's "never reused
// across subtests" invariant) through the full C1→C2→C3 pipeline and runs
// the subtest loop over it.
func (c *Client) attemptSubtest(ctx context.Context, direction model.Direction, wsURL string) (subtest.Result, error) {
	u := model.ParseWSURL(wsURL)
	if u.Scheme == "" {
		return subtest.Result{}, errorsx.New(errorsx.KindInvalidArgument, "client.attemptSubtest: url", nil)
	}
	timeout := c.Settings.Timeout

	conn, err := c.connect(ctx, u, timeout)
	if err != nil {
		return subtest.Result{}, err
	}
	wsConn, err := ws.Handshake(ctx, conn, u.Host, u.Path, subprotocol, timeout)
	if err != nil {
		conn.Close()
		return subtest.Result{}, err
	}
	defer wsConn.Close()

	maxRuntime := c.Settings.MaxRuntime
	if direction == model.DirectionDownload {
		return subtest.Download(ctx, wsConn, maxRuntime, c.Settings.SummaryOnly, c.Settings.Verbose, c.Callbacks)
	}
	return subtest.Upload(ctx, wsConn, c.Settings.SummaryOnly, c.Settings.Verbose, c.Callbacks)
}

// connect runs C1+C2: a non-blocking dial, an optional SOCKSv5h proxy hop,
// and an optional TLS handshake, returning a net.Conn ready for the
// WebSocket upgrade.
func (c *Client) connect(ctx context.Context, u model.WSURL, timeout time.Duration) (net.Conn, error) {
	dialHost, dialPort := u.Host, u.Port
	if c.Settings.SOCKS5Port != 0 {
		dialHost, dialPort = "127.0.0.1", strconv.Itoa(c.Settings.SOCKS5Port)
	}
	conn, err := netx.Dial(ctx, dialHost, dialPort, timeout)
	if err != nil {
		return nil, err
	}
	if c.Settings.SOCKS5Port != 0 {
		if err := socks5.Handshake(conn, u.Host, u.Port); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if u.Scheme == "wss" {
		return c.upgradeTLS(ctx, conn, u.Host, timeout)
	}
	return conn, nil
}

func (c *Client) upgradeTLS(ctx context.Context, conn *netx.Conn, hostname string, timeout time.Duration) (net.Conn, error) {
	if c.Settings.NoVerify {
		tlsConn, err := tlsconn.Handshake(ctx, conn, hostname, false, nil, timeout)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
	pool, err := c.certPool()
	if err != nil {
		conn.Close()
		return nil, err
	}
	tlsConn, err := tlsconn.Handshake(ctx, conn, hostname, true, pool, timeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (c *Client) certPool() (*x509.CertPool, error) {
	if c.caPool != nil {
		return c.caPool, nil
	}
	pool, err := tlsconn.LoadCABundle(c.Settings.CABundlePath)
	if err != nil {
		return nil, err
	}
	c.caPool = pool
	return pool, nil
}
