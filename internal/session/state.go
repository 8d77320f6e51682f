// Package session turns a selected catalog item into a live, observable
// playback session and keeps it consistent with server-side state for the
// session's lifetime. The controller is constructed per playback and
// injected into the UI layer; there is no shared global session.
package session

import (
	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/internal/stream"
)

// State is the controller's lifecycle state.
//
//	Idle → Loading → {Playing ⇄ Paused ⇄ Buffering} → Ended|Failed → Idle
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateBuffering State = "buffering"
	StateEnded     State = "ended"
	StateFailed    State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// active reports whether a playback session exists in this state.
func (s State) active() bool {
	switch s {
	case StatePlaying, StatePaused, StateBuffering:
		return true
	}
	return false
}

// Snapshot is the single state object exposed to the UI layer. It is a
// value copy; observers never hold references into controller internals.
type Snapshot struct {
	State         State
	Item          *catalog.Item
	Descriptor    *stream.Descriptor
	PositionTicks int64
	Rate          float64
	Err           error
}
