package model

import "testing"

func TestFormatHTTPParams(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]string
		want string
	}{
		{"empty", map[string]string{}, ""},
		{"single", map[string]string{"key": "abc"}, "key=abc"},
		{
			name: "sorted by key",
			meta: map[string]string{"zeta": "1", "alpha": "2"},
			want: "alpha=2&zeta=1",
		},
		{
			name: "spaces percent-encoded",
			meta: map[string]string{"client_name": "ndt7 client go"},
			want: "client_name=ndt7%20client%20go",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := FormatHTTPParams(c.meta)
			if got != c.want {
				t.Errorf("FormatHTTPParams(%v) = %q, want %q", c.meta, got, c.want)
			}
		})
	}
}
