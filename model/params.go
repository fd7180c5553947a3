package model

import (
	"net/url"
	"sort"
	"strings"
)

// FormatHTTPParams is a total function that encodes meta as an
// "k1=v1&k2=v2&..." query string, keys sorted for determinism (spec §8:
// "some deterministic order") and values percent-encoded the way
// url.QueryEscape encodes them (space as "%20", not "+", to match spec §8's
// worked example).
func FormatHTTPParams(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeParam(k))
		b.WriteByte('=')
		b.WriteString(escapeParam(meta[k]))
	}
	return b.String()
}

// escapeParam percent-encodes v the way spec §8's examples show (spaces as
// "%20"): url.QueryEscape encodes spaces as "+", so this swaps that one
// character back to the %-encoded form after escaping everything else.
func escapeParam(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
