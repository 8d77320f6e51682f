package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/halcyontv/halcyon/internal/catalog"
)

// UpNextOffer proposes auto-advancing to the next item in a series. It is
// destroyed on cancel, on countdown completion, or on session teardown.
type UpNextOffer struct {
	NextItem  *catalog.Item
	Countdown time.Duration
}

// NextResolver resolves the next playable item in a series.
type NextResolver interface {
	GetNextUp(ctx context.Context, seriesID string) (*catalog.Item, error)
}

// upNextRetryDelay is how long a failed next-item lookup suppresses
// further lookups. Activations arrive on every clock tick inside the
// trailing window, so without it a failing server gets hammered.
const upNextRetryDelay = 5 * time.Second

// UpNextEngine manages the single pending up-next offer for a session. At
// most one offer exists at a time; a second activation while one is
// pending (or after a dismissal) is a no-op. A failed next-item lookup is
// transient: the engine backs off, then a later activation may retry.
type UpNextEngine struct {
	resolver   NextResolver
	countdown  time.Duration
	retryDelay time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	pending   *UpNextOffer
	timer     *Countdown
	dismissed bool
	resolving bool
	retryAt   time.Time

	onOffer   func(*UpNextOffer)
	onAdvance func(*catalog.Item)
}

// NewUpNextEngine creates the engine for one session.
func NewUpNextEngine(resolver NextResolver, countdown time.Duration, logger *slog.Logger) *UpNextEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpNextEngine{resolver: resolver, countdown: countdown, retryDelay: upNextRetryDelay, logger: logger}
}

// OnOffer sets the callback fired when an offer appears (non-nil) or is
// dismissed (nil).
func (e *UpNextEngine) OnOffer(fn func(*UpNextOffer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onOffer = fn
}

// OnAdvance sets the callback fired when the countdown expires with no
// cancellation. It fires at most once per offer.
func (e *UpNextEngine) OnAdvance(fn func(*catalog.Item)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAdvance = fn
}

// Activate resolves the next item and presents the offer with its
// countdown. No-ops while an offer is pending, after a dismissal, while a
// lookup is in flight, during the failure backoff, and when the series has
// nothing next.
func (e *UpNextEngine) Activate(ctx context.Context, seriesID string) {
	e.mu.Lock()
	if e.pending != nil || e.dismissed || e.resolving || seriesID == "" ||
		time.Now().Before(e.retryAt) {
		e.mu.Unlock()
		return
	}
	e.resolving = true
	e.mu.Unlock()

	next, err := e.resolver.GetNextUp(ctx, seriesID)

	e.mu.Lock()
	e.resolving = false
	if err != nil {
		// Transient: no offer for now, a tick after the backoff retries.
		e.retryAt = time.Now().Add(e.retryDelay)
		e.mu.Unlock()
		e.logger.Warn("up-next lookup failed", "series", seriesID, "error", err)
		return
	}
	if next == nil {
		// Nothing left in the series; remember so ticks stop asking.
		e.dismissed = true
		e.mu.Unlock()
		return
	}

	offer := &UpNextOffer{NextItem: next, Countdown: e.countdown}
	e.pending = offer
	e.timer = NewCountdown(e.countdown, func() { e.expire(next) })
	emit := e.onOffer
	e.mu.Unlock()

	if emit != nil {
		emit(offer)
	}
}

// expire fires the advance exactly once, provided the offer is still
// pending.
func (e *UpNextEngine) expire(next *catalog.Item) {
	e.mu.Lock()
	if e.pending == nil {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.timer = nil
	advance := e.onAdvance
	e.mu.Unlock()

	if advance != nil {
		advance(next)
	}
}

// AdvanceNow resolves the pending offer immediately, as if the countdown
// had expired. Used for an explicit "play next now" action.
func (e *UpNextEngine) AdvanceNow() {
	e.mu.Lock()
	offer := e.pending
	timer := e.timer
	e.mu.Unlock()

	if offer == nil {
		return
	}
	if timer != nil && !timer.Cancel() {
		// Countdown already fired; expire is handling the advance.
		return
	}
	e.expire(offer.NextItem)
}

// Cancel dismisses the pending offer and leaves the current session
// running to its natural end. The engine will not offer again.
func (e *UpNextEngine) Cancel() {
	e.mu.Lock()
	e.dismissed = true
	offer := e.pending
	timer := e.timer
	e.pending = nil
	e.timer = nil
	emit := e.onOffer
	e.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}
	if offer != nil && emit != nil {
		emit(nil)
	}
}

// Pending returns the current offer, or nil.
func (e *UpNextEngine) Pending() *UpNextOffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Teardown cancels any pending countdown without marking the engine
// dismissed-by-user; the session is going away regardless.
func (e *UpNextEngine) Teardown() {
	e.mu.Lock()
	timer := e.timer
	e.pending = nil
	e.timer = nil
	e.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}
}
