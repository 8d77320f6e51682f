package session

import (
	"sync"

	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/pkg/ticks"
)

// SegmentEngine tracks which skippable window (intro, credits, recap) the
// playback position is inside and signals "show skip button" exactly once
// per window instance. The skip action itself is the controller's job:
// seek to the window end and resume if paused.
type SegmentEngine struct {
	mu       sync.Mutex
	windows  []catalog.SegmentWindow
	endTicks int64

	activeIdx   int
	promptedIdx map[int]bool
	onPrompt    func(catalog.SegmentWindow)
}

// NewSegmentEngine creates an engine for an item's segment windows.
// itemEndTicks is the item's total duration, used to recognize a credits
// window that runs to the end of the item.
func NewSegmentEngine(windows []catalog.SegmentWindow, itemEndTicks int64) *SegmentEngine {
	return &SegmentEngine{
		windows:     windows,
		endTicks:    itemEndTicks,
		activeIdx:   -1,
		promptedIdx: make(map[int]bool),
	}
}

// OnPrompt sets the callback fired when a skip button should be shown.
func (e *SegmentEngine) OnPrompt(fn func(catalog.SegmentWindow)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPrompt = fn
}

// HasWindows reports whether any segment data exists for the item.
func (e *SegmentEngine) HasWindows() bool {
	return len(e.windows) > 0
}

// Evaluate recomputes the active window for positionTicks, firing the
// prompt callback the first time each window instance becomes active.
func (e *SegmentEngine) Evaluate(positionTicks int64) {
	e.mu.Lock()
	idx := -1
	for i, w := range e.windows {
		if w.Contains(positionTicks) {
			idx = i
			break
		}
	}
	e.activeIdx = idx

	var fire func(catalog.SegmentWindow)
	var window catalog.SegmentWindow
	if idx >= 0 && !e.promptedIdx[idx] {
		e.promptedIdx[idx] = true
		fire = e.onPrompt
		window = e.windows[idx]
	}
	e.mu.Unlock()

	if fire != nil {
		fire(window)
	}
}

// Active returns the window containing the last evaluated position, or nil.
func (e *SegmentEngine) Active() *catalog.SegmentWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeIdx < 0 {
		return nil
	}
	w := e.windows[e.activeIdx]
	return &w
}

// InTrailingCredits reports whether the active window is a credits window
// extending to (or within epsilon of) the item's end. This is the trigger
// condition the up-next engine listens for.
func (e *SegmentEngine) InTrailingCredits(epsilonSeconds float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeIdx < 0 {
		return false
	}
	w := e.windows[e.activeIdx]
	if w.Type != catalog.SegmentCredits {
		return false
	}
	return e.endTicks-w.EndTicks <= ticks.FromSeconds(epsilonSeconds)
}

// Reset clears prompt memory, for a fresh pass over the same item.
func (e *SegmentEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeIdx = -1
	e.promptedIdx = make(map[int]bool)
}
