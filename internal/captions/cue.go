// Package captions parses WebVTT-style caption documents and tracks which
// cue is active for a moving playback clock. Captions are best-effort
// throughout: a malformed document yields fewer cues, never an error that
// could interrupt playback.
package captions

// Cue is a single timed caption entry. Start and End are seconds from the
// beginning of the item; Start < End always holds for parsed cues. Cues may
// overlap; consumers that need a single cue take the first match in start
// order.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Contains reports whether position t falls inside the cue's [Start, End)
// window.
func (c Cue) Contains(t float64) bool {
	return c.Start <= t && t < c.End
}
