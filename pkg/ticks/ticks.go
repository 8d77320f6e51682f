// Package ticks converts between server time units and wall-clock time.
// Media servers in the Jellyfin/Emby family express every duration and
// position as "ticks": 10,000,000 ticks per second.
package ticks

import "time"

// PerSecond is the number of server ticks in one second.
const PerSecond int64 = 10_000_000

// ToSeconds converts ticks to seconds. Negative inputs clamp to zero.
func ToSeconds(t int64) float64 {
	if t < 0 {
		return 0
	}
	return float64(t) / float64(PerSecond)
}

// FromSeconds converts seconds to ticks. Negative inputs clamp to zero.
func FromSeconds(s float64) int64 {
	if s < 0 {
		return 0
	}
	return int64(s * float64(PerSecond))
}

// ToDuration converts ticks to a time.Duration. Negative inputs clamp to zero.
func ToDuration(t int64) time.Duration {
	if t < 0 {
		return 0
	}
	return time.Duration(t * 100)
}

// FromDuration converts a time.Duration to ticks. Negative inputs clamp to zero.
func FromDuration(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d) / 100
}
