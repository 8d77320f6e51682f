// Package progress keeps the media server informed of playback position
// and state. Reports are fire-and-forget value objects: a missed heartbeat
// is immaterial, only the final stop report earns a retry because it is
// what persists the server-side resume point.
package progress

import "context"

// Report is the value object pushed to the server. It is never stored
// beyond its send attempt.
type Report struct {
	ItemID        string
	PlaySessionID string
	PositionTicks int64
	IsPaused      bool
	IsStopped     bool
}

// Sink receives reports. Implementations are expected to be safe for
// concurrent use; the engine treats every call as fire-and-forget.
type Sink interface {
	ReportStart(ctx context.Context, r Report) error
	ReportProgress(ctx context.Context, r Report) error
	ReportStop(ctx context.Context, r Report) error
}
