package model

import "strings"

// WSURL is the decomposed form of a "ws://" or "wss://" URL: scheme, host,
// port (defaulted per scheme when absent), and path (which may include a
// query string, kept as opaque text since ndt7 URLs never need further
// decomposition of it).
type WSURL struct {
	Scheme string
	Host   string
	Port   string
	Path   string
}

// ParseWSURL is a total function: every input string produces a WSURL,
// never an error. An input that is not a well-formed "ws://" or "wss://"
// URL produces the zero WSURL. This mirrors spec §8's URL-parsing test
// table exactly; net/url is not reused here because its Parse both returns
// errors on cases spec §8 wants to treat as "just give me the zero value"
// and does not apply ndt7's scheme-specific default-port rule.
func ParseWSURL(u string) WSURL {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return WSURL{}
	}
	if scheme != "ws" && scheme != "wss" {
		return WSURL{}
	}
	authority, path := rest, ""
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		authority, path = rest[:idx], rest[idx:]
	}
	host, port := authority, ""
	if idx := strings.LastIndexByte(authority, ':'); idx >= 0 {
		host, port = authority[:idx], authority[idx+1:]
	}
	if port == "" {
		port = defaultPort(scheme)
	}
	return WSURL{Scheme: scheme, Host: host, Port: port, Path: path}
}

func defaultPort(scheme string) string {
	if scheme == "wss" {
		return "443"
	}
	return "80"
}
