package worker

import (
	"testing"
	"time"
)

func TestDeadline(t *testing.T) {
	fallback := 600 * time.Second

	cases := []struct {
		name     string
		duration float64
		want     time.Duration
	}{
		{"short clip hits the floor", 30, 120 * time.Second},
		{"long form hits the ceiling", 2000, 1800 * time.Second},
		{"mid range doubles", 300, 600 * time.Second},
		{"zero falls back", 0, fallback},
		{"negative falls back", -10, fallback},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Deadline(tc.duration, fallback)
			if got != tc.want {
				t.Fatalf("Deadline(%v) = %s, want %s", tc.duration, got, tc.want)
			}
		})
	}
}
