package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/halcyontv/halcyon/internal/captions"
	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/internal/progress"
	"github.com/halcyontv/halcyon/internal/stream"
	"github.com/halcyontv/halcyon/pkg/ticks"
)

// Catalog is the subset of the catalog service the controller consumes.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*catalog.Item, error)
	GetNextUp(ctx context.Context, seriesID string) (*catalog.Item, error)
}

// HistoryStore persists playback positions locally, used as a resume
// fallback when the server has no prior position for an item.
type HistoryStore interface {
	ResumePosition(itemID string) (int64, error)
	SavePosition(itemID string, positionTicks, durationTicks int64, completed bool) error
}

// Config tunes the session engine. Zero values select the defaults noted
// per field.
type Config struct {
	MaxBitrate      int64
	ForceDirectPlay bool
	CaptionLanguage string
	DisableCaptions bool

	ResumeThreshold      time.Duration // 30s; negative offers resume at any prior position
	NearEndEpsilon       time.Duration // 10s
	AutoResumeDelay      time.Duration // 10s
	UpNextCountdown      time.Duration // 10s
	UpNextTrailingWindow time.Duration // 30s, used when the item has no segment data
	ProgressInterval     time.Duration // 5s
	ClockTick            time.Duration // 100ms
}

func (c Config) withDefaults() Config {
	switch {
	case c.ResumeThreshold < 0:
		// "Always ask": any nonzero prior position produces an offer.
		c.ResumeThreshold = 0
	case c.ResumeThreshold == 0:
		c.ResumeThreshold = 30 * time.Second
	}
	if c.NearEndEpsilon == 0 {
		c.NearEndEpsilon = 10 * time.Second
	}
	if c.AutoResumeDelay == 0 {
		c.AutoResumeDelay = 10 * time.Second
	}
	if c.UpNextCountdown == 0 {
		c.UpNextCountdown = 10 * time.Second
	}
	if c.UpNextTrailingWindow == 0 {
		c.UpNextTrailingWindow = 30 * time.Second
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = progress.DefaultInterval
	}
	if c.ClockTick == 0 {
		c.ClockTick = 100 * time.Millisecond
	}
	return c
}

// Deps are the collaborators a controller is constructed with. Catalog,
// Backend, Sink and Player are required; History is optional.
type Deps struct {
	Catalog Catalog
	Backend stream.Backend
	Sink    progress.Sink
	Player  Player
	History HistoryStore
	Config  Config
	Logger  *slog.Logger
}

// Controller owns the lifecycle of one playback session at a time and is
// the single writer of session state. All timer-driven work it spawns is
// individually cancellable; teardown is idempotent.
type Controller struct {
	catalog Catalog
	backend stream.Backend
	sink    progress.Sink
	player  Player
	history HistoryStore
	cfg     Config
	logger  *slog.Logger

	mu      sync.Mutex
	state   State
	lastErr error
	sess    *playbackSession
	baseCtx context.Context

	pos atomic.Int64 // current position in ticks, written by the clock loop

	onState  func(Snapshot)
	onCue    func(*captions.Cue)
	onResume func(*ResumeOffer)
	onUpNext func(*UpNextOffer)
	onSkip   func(catalog.SegmentWindow)
}

// playbackSession bundles everything owned by one PlaybackSession. A
// quality change replaces the descriptor and reporter inside the same
// bundle; item changes create a new bundle.
type playbackSession struct {
	item     *catalog.Item
	desc     *stream.Descriptor
	reporter *progress.Reporter
	tracker  *captions.Tracker
	segments *SegmentEngine
	upnext   *UpNextEngine
	rate     float64

	pendingResume *ResumeOffer
	resumeTimer   *Countdown

	clockCancel context.CancelFunc
	clockDone   chan struct{}

	teardown sync.Once
}

// NewController creates a controller for a single playback. Construct one
// per playback and hand it to the UI; it is not reused across items except
// through its own up-next auto-advance.
func NewController(deps Deps) (*Controller, error) {
	if deps.Catalog == nil || deps.Backend == nil || deps.Sink == nil || deps.Player == nil {
		return nil, errors.New("session: catalog, backend, sink and player are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Controller{
		catalog: deps.Catalog,
		backend: deps.Backend,
		sink:    deps.Sink,
		player:  deps.Player,
		history: deps.History,
		cfg:     deps.Config.withDefaults(),
		logger:  deps.Logger,
		state:   StateIdle,
	}, nil
}

// OnStateChange registers the observer for the session state object.
func (c *Controller) OnStateChange(fn func(Snapshot)) { c.mu.Lock(); c.onState = fn; c.mu.Unlock() }

// OnCueChange registers the observer for the active caption cue (nil when
// no cue is active).
func (c *Controller) OnCueChange(fn func(*captions.Cue)) { c.mu.Lock(); c.onCue = fn; c.mu.Unlock() }

// OnResumeOffer registers the observer for the resume prompt (nil when
// the offer is resolved).
func (c *Controller) OnResumeOffer(fn func(*ResumeOffer)) {
	c.mu.Lock()
	c.onResume = fn
	c.mu.Unlock()
}

// OnUpNextOffer registers the observer for the up-next prompt (nil when
// dismissed).
func (c *Controller) OnUpNextOffer(fn func(*UpNextOffer)) {
	c.mu.Lock()
	c.onUpNext = fn
	c.mu.Unlock()
}

// OnSkipPrompt registers the observer for "show skip button" signals.
func (c *Controller) OnSkipPrompt(fn func(catalog.SegmentWindow)) {
	c.mu.Lock()
	c.onSkip = fn
	c.mu.Unlock()
}

// Snapshot returns the current observable session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         c.state,
		PositionTicks: c.pos.Load(),
		Rate:          1.0,
		Err:           c.lastErr,
	}
	if c.sess != nil {
		snap.Item = c.sess.item
		snap.Descriptor = c.sess.desc
		snap.Rate = c.sess.rate
	}
	return snap
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start accepts an item and drives it to playback: resolve a stream,
// decide on a resume prompt, start the player, reporter and trackers.
// The resume prompt, when shown, leaves the controller in Loading until
// ChooseResume is called or the auto-resume countdown expires.
func (c *Controller) Start(ctx context.Context, itemID string) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateEnded && c.state != StateFailed {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot start playback in state %s", st)
	}
	c.baseCtx = ctx
	c.lastErr = nil
	c.mu.Unlock()

	c.setState(StateLoading, nil)

	item, err := c.catalog.GetItem(ctx, itemID)
	if err != nil {
		return c.fail(fmt.Errorf("load item %s: %w", itemID, err))
	}

	desc, err := c.resolve(ctx, item.ID, c.policy())
	if err != nil {
		return c.fail(err)
	}

	sess := &playbackSession{item: item, desc: desc, rate: 1.0}
	sess.segments = NewSegmentEngine(item.Segments, item.RuntimeTicks)
	sess.segments.OnPrompt(c.emitSkip)
	sess.tracker = captions.NewTracker(c.positionSeconds, c.cfg.ClockTick, c.logger)
	sess.tracker.OnCueChange(c.emitCue)
	sess.upnext = NewUpNextEngine(c.catalog, c.cfg.UpNextCountdown, c.logger)
	sess.upnext.OnOffer(c.emitUpNext)
	sess.upnext.OnAdvance(c.advanceTo)

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	prior := item.PositionTicks
	if prior == 0 && c.history != nil {
		if p, err := c.history.ResumePosition(item.ID); err == nil && p > 0 {
			prior = p
		}
	}

	offer := DecideResume(prior, item.RuntimeTicks, ResumeOptions{
		Threshold:       c.cfg.ResumeThreshold,
		NearEndEpsilon:  c.cfg.NearEndEpsilon,
		AutoResumeDelay: c.cfg.AutoResumeDelay,
	})
	if offer == nil {
		return c.beginPlayback(ctx, sess, 0)
	}

	c.mu.Lock()
	sess.pendingResume = offer
	sess.resumeTimer = NewCountdown(offer.AutoResumeDelay, func() {
		if err := c.ChooseResume(true); err != nil {
			c.logger.Warn("auto-resume failed", "error", err)
		}
	})
	c.mu.Unlock()

	c.emitResume(offer)
	return nil
}

// ChooseResume resolves a pending resume offer. resume=true continues from
// the offered position, false starts from the beginning. Any explicit
// choice cancels the auto-resume countdown.
func (c *Controller) ChooseResume(resume bool) error {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || sess.pendingResume == nil {
		c.mu.Unlock()
		return errors.New("no pending resume offer")
	}
	offer := sess.pendingResume
	timer := sess.resumeTimer
	sess.pendingResume = nil
	sess.resumeTimer = nil
	ctx := c.baseCtx
	c.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}
	c.emitResume(nil)

	var start int64
	if resume {
		start = offer.PositionTicks
	}
	return c.beginPlayback(ctx, sess, start)
}

// beginPlayback loads the player at startTicks and brings the session to
// Playing: reporter first (start report precedes any heartbeat or stop),
// then the clock loop, caption tracker and caption fetch.
func (c *Controller) beginPlayback(ctx context.Context, sess *playbackSession, startTicks int64) error {
	c.player.OnEnded(c.handleEnded)
	c.player.OnError(func(err error) {
		_ = c.fail(fmt.Errorf("player error: %w", err))
	})
	if bn, ok := c.player.(BufferingNotifier); ok {
		bn.OnBuffering(c.handleBuffering)
	}

	if err := c.player.Load(ctx, sess.desc.URL, ticks.ToSeconds(startTicks)); err != nil {
		return c.fail(fmt.Errorf("load stream: %w", err))
	}
	c.pos.Store(startTicks)

	reporter := progress.NewReporter(c.sink, sess.item.ID, sess.desc.PlaySessionID,
		c.cfg.ProgressInterval, c.reportPosition, c.logger)
	c.mu.Lock()
	sess.reporter = reporter
	c.mu.Unlock()
	reporter.Start(ctx)

	if err := c.player.Play(ctx); err != nil {
		reporter.Stop(startTicks)
		return c.fail(fmt.Errorf("start playback: %w", err))
	}

	clockCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	sess.clockCancel = cancel
	sess.clockDone = make(chan struct{})
	c.mu.Unlock()
	go c.clockLoop(clockCtx, sess)

	sess.tracker.Start(ctx)
	go c.loadCaptions(ctx, sess)

	c.setState(StatePlaying, nil)
	c.logger.Info("playback started",
		"item", sess.item.ID,
		"play_session", sess.desc.PlaySessionID,
		"direct_play", sess.desc.DirectPlay,
		"start_ticks", startTicks)
	return nil
}

// clockLoop polls the player clock and drives the position-dependent
// engines. Network work (up-next resolution, progress sends) never runs on
// this goroutine.
func (c *Controller) clockLoop(ctx context.Context, sess *playbackSession) {
	defer close(sess.clockDone)
	ticker := time.NewTicker(c.cfg.ClockTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tctx, cancel := context.WithTimeout(ctx, time.Second)
			secs, err := c.player.CurrentTime(tctx)
			cancel()
			if err != nil {
				continue
			}
			posT := ticks.FromSeconds(secs)
			c.pos.Store(posT)

			sess.segments.Evaluate(posT)
			c.maybeOfferUpNext(ctx, sess, posT)
		}
	}
}

// maybeOfferUpNext activates the up-next engine once playback enters the
// trailing window: an end-adjacent credits segment when segment data
// exists, else the last UpNextTrailingWindow of the runtime.
func (c *Controller) maybeOfferUpNext(ctx context.Context, sess *playbackSession, posT int64) {
	if !sess.item.IsEpisode() {
		return
	}

	trailing := sess.segments.InTrailingCredits(c.cfg.NearEndEpsilon.Seconds())
	if !trailing && !sess.segments.HasWindows() && sess.item.RuntimeTicks > 0 {
		remaining := sess.item.RuntimeTicks - posT
		trailing = remaining <= ticks.FromDuration(c.cfg.UpNextTrailingWindow)
	}
	if trailing {
		// Resolution hits the network; keep it off the clock goroutine.
		// The engine self-serializes and no-ops after the first offer.
		go sess.upnext.Activate(ctx, sess.item.SeriesID)
	}
}

// loadCaptions fetches, parses and installs the item's caption track.
// Entirely best-effort: any failure leaves the session without captions.
func (c *Controller) loadCaptions(ctx context.Context, sess *playbackSession) {
	if c.cfg.DisableCaptions {
		return
	}
	track := pickCaptionTrack(sess.item.CaptionTracks, c.cfg.CaptionLanguage)
	if track == nil {
		return
	}

	doc, err := c.backend.FetchCaptionDocument(ctx, sess.item.ID, track.Index)
	if err != nil {
		c.logger.Warn("caption fetch failed", "item", sess.item.ID, "track", track.Index, "error", err)
		return
	}

	cues := captions.Parse(doc)
	if len(cues) == 0 {
		c.logger.Debug("caption document yielded no cues", "item", sess.item.ID, "track", track.Index)
		return
	}
	sess.tracker.SetCues(cues)
}

// pickCaptionTrack selects the external track matching the preferred
// language, else the first external track.
func pickCaptionTrack(tracks []catalog.CaptionTrack, language string) *catalog.CaptionTrack {
	var first *catalog.CaptionTrack
	for i := range tracks {
		t := &tracks[i]
		if !t.External {
			continue
		}
		if first == nil {
			first = t
		}
		if language != "" && strings.EqualFold(t.Language, language) {
			return t
		}
	}
	return first
}

// Pause pauses playback and pushes the transition to the server
// immediately.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || st != StatePlaying {
		return fmt.Errorf("cannot pause in state %s", st)
	}
	if err := c.player.Pause(ctx); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	c.setState(StatePaused, nil)
	sess.reporter.Flush()
	return nil
}

// Resume resumes paused playback.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || st != StatePaused {
		return fmt.Errorf("cannot resume in state %s", st)
	}
	if err := c.player.Play(ctx); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	c.setState(StatePlaying, nil)
	sess.reporter.Flush()
	return nil
}

// Seek jumps to the given position (seconds). The transition report is
// guaranteed to go out before the next periodic heartbeat so a stale
// position cannot win the race.
func (c *Controller) Seek(ctx context.Context, seconds float64) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || !st.active() {
		return fmt.Errorf("cannot seek in state %s", st)
	}
	if err := c.player.Seek(ctx, seconds); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	c.pos.Store(ticks.FromSeconds(seconds))
	sess.reporter.Flush()
	return nil
}

// SetRate changes the playback rate.
func (c *Controller) SetRate(ctx context.Context, rate float64) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || !st.active() {
		return fmt.Errorf("cannot set rate in state %s", st)
	}
	if err := c.player.SetRate(ctx, rate); err != nil {
		return fmt.Errorf("set rate: %w", err)
	}
	c.mu.Lock()
	sess.rate = rate
	c.mu.Unlock()
	return nil
}

// SkipSegment jumps past the active segment window and resumes playback if
// paused. A no-op when no window is active.
func (c *Controller) SkipSegment(ctx context.Context) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || !st.active() {
		return fmt.Errorf("cannot skip in state %s", st)
	}
	window := sess.segments.Active()
	if window == nil {
		return nil
	}
	if err := c.player.Seek(ctx, ticks.ToSeconds(window.EndTicks)); err != nil {
		return fmt.Errorf("skip segment: %w", err)
	}
	c.pos.Store(window.EndTicks)
	if st == StatePaused {
		if err := c.player.Play(ctx); err != nil {
			return fmt.Errorf("skip segment: %w", err)
		}
		c.setState(StatePlaying, nil)
	}
	sess.reporter.Flush()
	return nil
}

// CancelUpNext dismisses the pending up-next offer for the rest of the
// session.
func (c *Controller) CancelUpNext() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess != nil {
		sess.upnext.Cancel()
	}
}

// PlayNextNow advances to the offered next item without waiting for the
// countdown.
func (c *Controller) PlayNextNow() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess != nil {
		sess.upnext.AdvanceNow()
	}
}

// ChangeQuality resolves a new stream under the given bitrate ceiling and
// swaps it in, preserving position continuity: the new descriptor gets a
// new play session id, the old session's stop report goes out, and the
// player is repositioned before the session reports Playing again.
func (c *Controller) ChangeQuality(ctx context.Context, maxBitrate int64) error {
	c.mu.Lock()
	sess, st := c.sess, c.state
	c.mu.Unlock()
	if sess == nil || !st.active() {
		return fmt.Errorf("cannot change quality in state %s", st)
	}

	posT := c.pos.Load()
	c.setState(StateLoading, nil)

	desc, err := c.resolve(ctx, sess.item.ID, stream.Policy{MaxBitrate: maxBitrate})
	if err != nil {
		return c.fail(err)
	}

	// Retire the old play session before the new one speaks.
	sess.reporter.Stop(posT)

	if err := c.player.Load(ctx, desc.URL, ticks.ToSeconds(posT)); err != nil {
		return c.fail(fmt.Errorf("load stream after quality change: %w", err))
	}

	reporter := progress.NewReporter(c.sink, sess.item.ID, desc.PlaySessionID,
		c.cfg.ProgressInterval, c.reportPosition, c.logger)
	c.mu.Lock()
	sess.desc = desc
	sess.reporter = reporter
	c.mu.Unlock()
	reporter.Start(ctx)

	if err := c.player.Play(ctx); err != nil {
		return c.fail(fmt.Errorf("resume after quality change: %w", err))
	}
	c.setState(StatePlaying, nil)
	c.logger.Info("quality changed",
		"item", sess.item.ID,
		"play_session", desc.PlaySessionID,
		"bitrate", desc.Bitrate)
	return nil
}

// Teardown ends the session: stops all timers, sends the final stop
// report, cancels any pending offers and releases the player. Idempotent.
func (c *Controller) Teardown() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess != nil {
		c.teardownSession(sess, c.pos.Load(), true)
	}
	c.setState(StateIdle, nil)
}

// teardownSession shuts one session bundle down in order: caption tracker,
// clock loop, reporter (final stop report), up-next. The bundle runs at
// most once; the player release sits outside it so a session whose bundle
// was already torn down on natural end still releases the player when
// Teardown eventually runs.
func (c *Controller) teardownSession(sess *playbackSession, finalTicks int64, releasePlayer bool) {
	sess.teardown.Do(func() {
		if sess.resumeTimer != nil {
			sess.resumeTimer.Cancel()
		}
		sess.tracker.Stop()
		if sess.clockCancel != nil {
			sess.clockCancel()
			<-sess.clockDone
		}
		if sess.reporter != nil {
			sess.reporter.Stop(finalTicks)
			c.saveHistory(sess.item, finalTicks)
		}
		// No reporter means playback never began (the resume prompt was
		// still open); any stored position stays intact.
		sess.upnext.Teardown()
	})
	if releasePlayer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.player.Release(ctx); err != nil {
			c.logger.Warn("player release failed", "error", err)
		}
	}
}

func (c *Controller) saveHistory(item *catalog.Item, finalTicks int64) {
	if c.history == nil {
		return
	}
	completed := item.RuntimeTicks > 0 &&
		finalTicks >= item.RuntimeTicks-ticks.FromDuration(c.cfg.NearEndEpsilon)
	if err := c.history.SavePosition(item.ID, finalTicks, item.RuntimeTicks, completed); err != nil {
		c.logger.Warn("history save failed", "item", item.ID, "error", err)
	}
}

// handleEnded reacts to the player's natural end-of-stream.
func (c *Controller) handleEnded() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}

	final := sess.item.RuntimeTicks
	if final <= 0 {
		final = c.pos.Load()
	}
	c.pos.Store(final)
	c.setState(StateEnded, nil)
	c.teardownSession(sess, final, false)
}

// handleBuffering mirrors player stalls into the Buffering state.
func (c *Controller) handleBuffering(starved bool) {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if starved && st == StatePlaying {
		c.setState(StateBuffering, nil)
	} else if !starved && st == StateBuffering {
		c.setState(StatePlaying, nil)
	}
}

// advanceTo tears the current session down (keeping the player) and starts
// a fresh PlaybackSession for the next item on the same controller.
func (c *Controller) advanceTo(next *catalog.Item) {
	c.mu.Lock()
	sess := c.sess
	ctx := c.baseCtx
	c.sess = nil
	c.mu.Unlock()
	if sess == nil {
		return
	}

	c.logger.Info("auto-advancing to next item", "from", sess.item.ID, "to", next.ID)
	c.teardownSession(sess, c.pos.Load(), false)

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()

	if err := c.Start(ctx, next.ID); err != nil {
		c.logger.Error("auto-advance failed", "item", next.ID, "error", err)
	}
}

// fail transitions to Failed, surfaces the error, and tears down cleanly.
func (c *Controller) fail(err error) error {
	c.logger.Error("playback failed", "error", err)

	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	c.setState(StateFailed, err)
	if sess != nil {
		c.teardownSession(sess, c.pos.Load(), true)
	}
	return err
}

// resolve fetches candidates and selects a stream descriptor.
func (c *Controller) resolve(ctx context.Context, itemID string, policy stream.Policy) (*stream.Descriptor, error) {
	candidates, err := c.backend.ResolvePlaybackInfo(ctx, itemID, policy)
	if err != nil {
		return nil, fmt.Errorf("resolve playback info: %w", err)
	}
	desc, err := stream.Resolve(candidates, policy)
	if err != nil {
		return nil, fmt.Errorf("select stream: %w", err)
	}
	return desc, nil
}

func (c *Controller) policy() stream.Policy {
	return stream.Policy{MaxBitrate: c.cfg.MaxBitrate, ForceDirectPlay: c.cfg.ForceDirectPlay}
}

// positionSeconds is the clock source handed to the caption tracker.
func (c *Controller) positionSeconds() float64 {
	return ticks.ToSeconds(c.pos.Load())
}

// reportPosition is the position source handed to progress reporters.
func (c *Controller) reportPosition() (int64, bool) {
	c.mu.Lock()
	paused := c.state == StatePaused
	c.mu.Unlock()
	return c.pos.Load(), paused
}

func (c *Controller) setState(s State, err error) {
	c.mu.Lock()
	if c.state == s && err == nil {
		c.mu.Unlock()
		return
	}
	c.state = s
	if err != nil {
		c.lastErr = err
	}
	fn := c.onState
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

func (c *Controller) emitCue(cue *captions.Cue) {
	c.mu.Lock()
	fn := c.onCue
	c.mu.Unlock()
	if fn != nil {
		fn(cue)
	}
}

func (c *Controller) emitResume(offer *ResumeOffer) {
	c.mu.Lock()
	fn := c.onResume
	c.mu.Unlock()
	if fn != nil {
		fn(offer)
	}
}

func (c *Controller) emitUpNext(offer *UpNextOffer) {
	c.mu.Lock()
	fn := c.onUpNext
	c.mu.Unlock()
	if fn != nil {
		fn(offer)
	}
}

func (c *Controller) emitSkip(w catalog.SegmentWindow) {
	c.mu.Lock()
	fn := c.onSkip
	c.mu.Unlock()
	if fn != nil {
		fn(w)
	}
}
