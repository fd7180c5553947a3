package subtest

import (
	"testing"
	"time"
)

func TestFormatSpeed(t *testing.T) {
	cases := []struct {
		kbits float64
		want  string
	}{
		{500, "500 kbit/s"},
		{1500, "1.5 Mbit/s"},
		{1500000, "1.5 Gbit/s"},
	}
	for _, c := range cases {
		if got := FormatSpeed(c.kbits); got != c.want {
			t.Errorf("FormatSpeed(%v) = %q, want %q", c.kbits, got, c.want)
		}
	}
}

func TestSpeedKbits(t *testing.T) {
	got := speedKbits(1_250_000, time.Second) // 10 Mbit in one second
	want := 10000.0
	if got != want {
		t.Errorf("speedKbits = %v, want %v", got, want)
	}
	if got := speedKbits(1000, 0); got != 0 {
		t.Errorf("speedKbits with zero elapsed = %v, want 0", got)
	}
}
