package session

import (
	"time"

	"github.com/halcyontv/halcyon/pkg/ticks"
)

// ResumeOffer proposes resuming from a prior position. If the user takes
// no action for AutoResumeDelay the offer resolves as "resume"; any
// explicit choice cancels the countdown immediately.
type ResumeOffer struct {
	PositionTicks   int64
	AutoResumeDelay time.Duration
}

// ResumeOptions tunes the resume decision.
type ResumeOptions struct {
	// Threshold below which playback silently starts from the beginning.
	// Zero means any nonzero prior position produces an offer.
	Threshold time.Duration
	// NearEndEpsilon treats positions within this margin of the end as
	// finished, so a completed item never re-prompts to resume.
	NearEndEpsilon time.Duration
	AutoResumeDelay time.Duration
}

// DecideResume applies the resume decision table. A nil result means
// "start from the beginning, no prompt".
func DecideResume(priorTicks, durationTicks int64, opts ResumeOptions) *ResumeOffer {
	if priorTicks <= 0 {
		return nil
	}
	if priorTicks < ticks.FromDuration(opts.Threshold) {
		return nil
	}
	if durationTicks > 0 && priorTicks >= durationTicks-ticks.FromDuration(opts.NearEndEpsilon) {
		// Treated as finished.
		return nil
	}
	return &ResumeOffer{
		PositionTicks:   priorTicks,
		AutoResumeDelay: opts.AutoResumeDelay,
	}
}
