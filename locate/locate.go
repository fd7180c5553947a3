// Package locate implements the ndt7 Locate API v2 client (spec §4.5): a
// dynamic mode that queries locate.measurementlab.net for the nearest
// servers, and a static mode that synthesizes the same result shape
// locally with no network I/O. The Client shape and query/200-check/
// json.Unmarshal flow are grounded on
// ooni-probe-cli/internal/mlablocatev2.Client; the dynamic-vs-priority URL
// split borrows from m-lab-msak/cmd/minimal-client's locateServers.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/m-lab/ndt7-client-go/errorsx"
	"github.com/m-lab/ndt7-client-go/model"
)

// ErrServerBusy is returned when the locate service answers 204: every
// candidate server is over capacity (spec §4.5/§6).
var ErrServerBusy = errors.New("locate: server busy")

const defaultBaseURL = "https://locate.measurementlab.net"

// Result is one candidate server's set of subtest URLs, keyed by the
// canonical "<scheme>:///ndt/v7/<download|upload>" form spec §4.5 defines.
type Result struct {
	URLs map[string]string `json:"urls"`
}

// Client queries the Locate API. HTTPClient is injected (as
// ooni-probe-cli's mlablocatev2.Client injects model.HTTPClient) so tests
// can substitute a fake transport and so the SOCKSv5h proxy setting (spec
// §4.2/§8) can be wired in at construction time via NewClient.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
}

// NewClient builds a Client. httpClient should already be configured with
// any SOCKS proxy dialer the caller's Settings require.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		HTTPClient: httpClient,
		BaseURL:    defaultBaseURL,
		UserAgent:  userAgent,
	}
}

type locateResponse struct {
	Results []Result `json:"results"`
	Error   string   `json:"error"`
}

// Query performs a dynamic-mode lookup: GET <base>/v2/priority/nearest/ndt/ndt7
// if meta carries an access "key", else <base>/v2/nearest/ndt/ndt7, with
// FormatParams(meta) as the query string.
func (c *Client) Query(ctx context.Context, meta map[string]string) ([]Result, error) {
	path := "/v2/nearest/ndt/ndt7"
	if _, ok := meta["key"]; ok {
		path = "/v2/priority/nearest/ndt/ndt7"
	}
	url := c.BaseURL + path
	if params := model.FormatHTTPParams(meta); params != "" {
		url += "?" + params
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errorsx.New(errorsx.KindInvalidArgument, "locate.Query: request", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errorsx.Wrap("locate.Query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, ErrServerBusy
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorsx.New(errorsx.KindIOError, fmt.Sprintf("locate.Query: status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errorsx.Wrap("locate.Query: read body", err)
	}
	var parsed locateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errorsx.New(errorsx.KindWSProto, "locate.Query: parse", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return parsed.Results, nil
}

// StaticResult synthesizes the single-candidate result spec §4.5's static
// mode describes, with no network I/O: a single urls map pointing directly
// at hostname:port.
func StaticResult(scheme, hostname, port string, meta map[string]string) []Result {
	params := model.FormatHTTPParams(meta)
	download := fmt.Sprintf("%s://%s:%s/ndt/v7/download", scheme, hostname, port)
	upload := fmt.Sprintf("%s://%s:%s/ndt/v7/upload", scheme, hostname, port)
	if params != "" {
		download += "?" + params
		upload += "?" + params
	}
	return []Result{{
		URLs: map[string]string{
			scheme + ":///ndt/v7/download": download,
			scheme + ":///ndt/v7/upload":   upload,
		},
	}}
}

// FormatParams is the deterministic "k1=v1&k2=v2&..." encoder of spec §8,
// re-exported here for callers that build a Locate query string without
// going through Query or StaticResult directly.
func FormatParams(meta map[string]string) string {
	return model.FormatHTTPParams(meta)
}
