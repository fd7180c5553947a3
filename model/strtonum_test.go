package model

import "testing"

func TestStrToNum(t *testing.T) {
	cases := []struct {
		name    string
		s       string
		lo, hi  int64
		wantN   int64
		wantErr StrToNumErr
	}{
		{"in range", "42", 0, 100, 42, ""},
		{"at lo bound", "0", 0, 100, 0, ""},
		{"at hi bound", "100", 0, 100, 100, ""},
		{"too small", "-1", 0, 100, 0, ErrTooSmall},
		{"too large", "101", 0, 100, 0, ErrTooLarge},
		{"not a number", "abc", 0, 100, 0, ErrInvalid},
		{"empty string", "", 0, 100, 0, ErrInvalid},
		{"inverted range", "5", 10, 1, 0, ErrInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, err := StrToNum(c.s, c.lo, c.hi)
			if n != c.wantN || err != c.wantErr {
				t.Errorf("StrToNum(%q, %d, %d) = (%d, %q), want (%d, %q)",
					c.s, c.lo, c.hi, n, err, c.wantN, c.wantErr)
			}
		})
	}
}
