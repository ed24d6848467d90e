package worker

import (
	"time"
)

const (
	minDeadline = 120 * time.Second
	maxDeadline = 1800 * time.Second
)

// Deadline derives a per-job execution limit from the declared media
// duration: twice the duration, clamped to [2m, 30m]. Unknown or zero
// duration falls back to the configured default. Batch durations are a
// best-effort sum with missing entries counted as 0, so the result can
// under-estimate true playtime.
func Deadline(durationSeconds float64, fallback time.Duration) time.Duration {
	if durationSeconds <= 0 {
		return fallback
	}
	d := time.Duration(durationSeconds*2) * time.Second
	if d < minDeadline {
		return minDeadline
	}
	if d > maxDeadline {
		return maxDeadline
	}
	return d
}
