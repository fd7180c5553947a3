package model

import "testing"

func TestParseWSURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want WSURL
	}{
		{
			name: "wss with explicit port and path",
			in:   "wss://ndt.example.com:4443/ndt/v7/download?x=1",
			want: WSURL{Scheme: "wss", Host: "ndt.example.com", Port: "4443", Path: "/ndt/v7/download?x=1"},
		},
		{
			name: "wss default port",
			in:   "wss://ndt.example.com/ndt/v7/upload",
			want: WSURL{Scheme: "wss", Host: "ndt.example.com", Port: "443", Path: "/ndt/v7/upload"},
		},
		{
			name: "ws default port",
			in:   "ws://ndt.example.com/ndt/v7/download",
			want: WSURL{Scheme: "ws", Host: "ndt.example.com", Port: "80", Path: "/ndt/v7/download"},
		},
		{
			name: "no path",
			in:   "wss://ndt.example.com:443",
			want: WSURL{Scheme: "wss", Host: "ndt.example.com", Port: "443", Path: ""},
		},
		{
			name: "missing scheme separator",
			in:   "ndt.example.com/ndt/v7/download",
			want: WSURL{},
		},
		{
			name: "unrecognized scheme",
			in:   "http://ndt.example.com/ndt/v7/download",
			want: WSURL{},
		},
		{
			name: "empty string",
			in:   "",
			want: WSURL{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseWSURL(c.in)
			if got != c.want {
				t.Errorf("ParseWSURL(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}
