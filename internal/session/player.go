package session

import "context"

// Player is the opaque video pipeline the engine drives. The engine never
// looks inside it: it hands over a URL, reads the clock, and reacts to the
// two terminal callbacks. Implementations own their codec, rendering and
// buffering concerns entirely.
type Player interface {
	// Load prepares the pipeline for the given stream URL, positioned at
	// startSeconds. It returns once the pipeline is ready to play.
	Load(ctx context.Context, url string, startSeconds float64) error

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	SetRate(ctx context.Context, rate float64) error

	// CurrentTime reports the playback clock in seconds.
	CurrentTime(ctx context.Context) (float64, error)

	// OnEnded registers the end-of-stream callback; OnError the
	// unrecoverable-error callback. Both may be invoked from player-owned
	// goroutines.
	OnEnded(func())
	OnError(func(error))

	// Release tears the pipeline down. Safe to call more than once.
	Release(ctx context.Context) error
}

// BufferingNotifier is implemented by players that can report stalls. When
// available, the controller mirrors stalls as the Buffering state.
type BufferingNotifier interface {
	OnBuffering(func(starved bool))
}
