package captions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultTickInterval is the cadence at which the tracker re-evaluates the
// active cue when none is configured.
const DefaultTickInterval = 100 * time.Millisecond

// Tracker maintains "which cue is active now" for a moving playback clock.
// It re-evaluates on a fixed cadence and emits a change callback only when
// the active cue's identity changes, so the UI layer is not churned with
// redundant updates.
type Tracker struct {
	mu        sync.Mutex
	cues      []Cue
	maxDur    float64
	activeIdx int

	clock    func() float64
	interval time.Duration
	onChange func(*Cue)

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

// NewTracker creates a tracker reading playback time in seconds from clock.
// A zero interval selects DefaultTickInterval.
func NewTracker(clock func() float64, interval time.Duration, logger *slog.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		activeIdx: -1,
		clock:     clock,
		interval:  interval,
		logger:    logger,
	}
}

// OnCueChange sets the callback invoked when the active cue changes. The
// callback receives nil when no cue is active.
func (t *Tracker) OnCueChange(fn func(*Cue)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// SetCues replaces the tracked cue list and clears the active cue. Cues are
// expected sorted by start time, as produced by Parse.
func (t *Tracker) SetCues(cues []Cue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cues = cues
	t.activeIdx = -1
	t.maxDur = 0
	for _, c := range cues {
		if d := c.End - c.Start; d > t.maxDur {
			t.maxDur = d
		}
	}
	t.logger.Debug("caption cues loaded", "count", len(cues))
}

// Reset clears all cues and the active cue. Called whenever the caption
// track or the item changes.
func (t *Tracker) Reset() {
	t.SetCues(nil)
}

// Start begins periodic evaluation. Stop or context cancellation ends it.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Evaluate(t.clock())
			}
		}
	}()
}

// Stop halts periodic evaluation. Safe to call multiple times.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Evaluate recomputes the active cue for position pos (seconds) and fires
// the change callback if the identity changed.
func (t *Tracker) Evaluate(pos float64) {
	t.mu.Lock()
	idx := t.activeAt(pos)
	changed := idx != t.activeIdx
	t.activeIdx = idx
	fn := t.onChange
	var cue *Cue
	if idx >= 0 {
		c := t.cues[idx]
		cue = &c
	}
	t.mu.Unlock()

	if changed && fn != nil {
		fn(cue)
	}
}

// Active returns the currently active cue, or nil.
func (t *Tracker) Active() *Cue {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.activeIdx < 0 {
		return nil
	}
	c := t.cues[t.activeIdx]
	return &c
}

// activeAt finds the first cue (in start order) containing pos, or -1.
// Binary search narrows to cues starting at or before pos; the backward
// scan is bounded by the longest cue duration so overlapping cues stay
// cheap to resolve for long cue lists.
func (t *Tracker) activeAt(pos float64) int {
	n := len(t.cues)
	if n == 0 {
		return -1
	}

	i := sort.Search(n, func(i int) bool { return t.cues[i].Start > pos })

	best := -1
	for j := i - 1; j >= 0; j-- {
		if pos-t.cues[j].Start > t.maxDur {
			break
		}
		if t.cues[j].Contains(pos) {
			best = j
		}
	}
	return best
}
