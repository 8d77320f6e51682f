package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyontv/halcyon/internal/captions"
	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/internal/progress"
	"github.com/halcyontv/halcyon/internal/stream"
	"github.com/halcyontv/halcyon/pkg/ticks"
)

type fakePlayer struct {
	mu       sync.Mutex
	url      string
	pos      float64
	playing  bool
	rate     float64
	loads    int
	released int
	onEnded  func()
	onError  func(error)
}

func (p *fakePlayer) Load(_ context.Context, url string, startSeconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.pos = startSeconds
	p.playing = false
	p.loads++
	return nil
}

func (p *fakePlayer) Play(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return nil
}

func (p *fakePlayer) Seek(_ context.Context, seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = seconds
	return nil
}

func (p *fakePlayer) SetRate(_ context.Context, rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
	return nil
}

func (p *fakePlayer) CurrentTime(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos, nil
}

func (p *fakePlayer) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

func (p *fakePlayer) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

func (p *fakePlayer) Release(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
	return nil
}

func (p *fakePlayer) setPos(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = seconds
}

func (p *fakePlayer) loadedAt() (string, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, p.pos
}

func (p *fakePlayer) loadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

func (p *fakePlayer) releaseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *fakePlayer) endStream() {
	p.mu.Lock()
	fn := p.onEnded
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeCatalog struct {
	mu     sync.Mutex
	items  map[string]*catalog.Item
	nextUp *catalog.Item
}

func (c *fakeCatalog) GetItem(_ context.Context, id string) (*catalog.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.items[id]
	if item == nil {
		return nil, errItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (c *fakeCatalog) GetNextUp(context.Context, string) (*catalog.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.nextUp
	c.nextUp = nil
	return next, nil
}

type fakeBackend struct {
	mu         sync.Mutex
	candidates []stream.Candidate
	captionDoc string
}

func (b *fakeBackend) ResolvePlaybackInfo(context.Context, string, stream.Policy) ([]stream.Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.candidates, nil
}

func (b *fakeBackend) FetchCaptionDocument(context.Context, string, int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.captionDoc, nil
}

type countingSink struct {
	mu       sync.Mutex
	starts   []progress.Report
	progress []progress.Report
	stops    []progress.Report
}

func (s *countingSink) ReportStart(_ context.Context, r progress.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, r)
	return nil
}

func (s *countingSink) ReportProgress(_ context.Context, r progress.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, r)
	return nil
}

func (s *countingSink) ReportStop(_ context.Context, r progress.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = append(s.stops, r)
	return nil
}

func (s *countingSink) counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.starts), len(s.stops)
}

var errItemNotFound = errors.New("item not found")

type testRig struct {
	catalog *fakeCatalog
	backend *fakeBackend
	sink    *countingSink
	player  *fakePlayer
	ctrl    *Controller
}

func newTestRig(t *testing.T, items []*catalog.Item, cfg Config) *testRig {
	t.Helper()
	if cfg.ClockTick == 0 {
		cfg.ClockTick = 10 * time.Millisecond
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = time.Hour // keep heartbeats out of the way
	}

	rig := &testRig{
		catalog: &fakeCatalog{items: map[string]*catalog.Item{}},
		backend: &fakeBackend{candidates: []stream.Candidate{
			{SourceID: "src", SupportsDirectPlay: true, Bitrate: 8_000_000, DirectURL: "http://srv/stream"},
		}},
		sink:   &countingSink{},
		player: &fakePlayer{},
	}
	for _, item := range items {
		rig.catalog.items[item.ID] = item
	}

	ctrl, err := NewController(Deps{
		Catalog: rig.catalog,
		Backend: rig.backend,
		Sink:    rig.sink,
		Player:  rig.player,
		Config:  cfg,
	})
	require.NoError(t, err)
	rig.ctrl = ctrl
	t.Cleanup(ctrl.Teardown)
	return rig
}

func movieItem(id string, runtimeSec, positionSec float64) *catalog.Item {
	return &catalog.Item{
		ID:            id,
		Kind:          catalog.KindMovie,
		Name:          "Test Movie",
		RuntimeTicks:  ticks.FromSeconds(runtimeSec),
		PositionTicks: ticks.FromSeconds(positionSec),
	}
}

func TestControllerStart(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh item plays from the beginning", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		assert.Equal(t, StatePlaying, rig.ctrl.State())
		url, pos := rig.player.loadedAt()
		assert.Contains(t, url, "http://srv/stream")
		assert.Zero(t, pos)

		starts, _ := rig.sink.counts()
		assert.Equal(t, 1, starts)

		snap := rig.ctrl.Snapshot()
		require.NotNil(t, snap.Item)
		assert.Equal(t, "m1", snap.Item.ID)
		require.NotNil(t, snap.Descriptor)
		assert.NotEmpty(t, snap.Descriptor.PlaySessionID)
	})

	t.Run("unknown item fails the session", func(t *testing.T) {
		rig := newTestRig(t, nil, Config{})

		err := rig.ctrl.Start(ctx, "missing")
		require.Error(t, err)
		assert.Equal(t, StateFailed, rig.ctrl.State())
		assert.Error(t, rig.ctrl.Snapshot().Err)
	})

	t.Run("start while active is rejected", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		assert.Error(t, rig.ctrl.Start(ctx, "m1"))
	})
}

func TestControllerResumeFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("prior position past threshold offers resume and auto-resumes", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 1800)}, Config{
			AutoResumeDelay: 30 * time.Millisecond,
		})

		var mu sync.Mutex
		var offers []*ResumeOffer
		rig.ctrl.OnResumeOffer(func(o *ResumeOffer) {
			mu.Lock()
			offers = append(offers, o)
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		assert.Equal(t, StateLoading, rig.ctrl.State())

		mu.Lock()
		require.Len(t, offers, 1)
		assert.Equal(t, ticks.FromSeconds(1800), offers[0].PositionTicks)
		mu.Unlock()

		// No choice made: the countdown resolves as "resume".
		assert.Eventually(t, func() bool { return rig.ctrl.State() == StatePlaying },
			time.Second, 5*time.Millisecond)
		_, pos := rig.player.loadedAt()
		assert.InDelta(t, 1800.0, pos, 0.001)
	})

	t.Run("explicit start-over plays from zero", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 1800)}, Config{
			AutoResumeDelay: time.Minute,
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		require.NoError(t, rig.ctrl.ChooseResume(false))

		assert.Equal(t, StatePlaying, rig.ctrl.State())
		_, pos := rig.player.loadedAt()
		assert.Zero(t, pos)

		// The countdown was cancelled; nothing reloads later.
		assert.Equal(t, 1, rig.player.loadCount())
	})

	t.Run("position below threshold starts silently", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 10)}, Config{})

		var offered bool
		rig.ctrl.OnResumeOffer(func(*ResumeOffer) { offered = true })

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		assert.Equal(t, StatePlaying, rig.ctrl.State())
		assert.False(t, offered)
	})

	t.Run("negative threshold offers resume at any prior position", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 5)}, Config{
			ResumeThreshold: -1,
			AutoResumeDelay: time.Minute,
		})

		var mu sync.Mutex
		var offer *ResumeOffer
		rig.ctrl.OnResumeOffer(func(o *ResumeOffer) {
			mu.Lock()
			offer = o
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		mu.Lock()
		require.NotNil(t, offer)
		assert.Equal(t, ticks.FromSeconds(5), offer.PositionTicks)
		mu.Unlock()
	})

	t.Run("choose without an offer errors", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		assert.Error(t, rig.ctrl.ChooseResume(true))
	})
}

func TestControllerTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("pause and resume", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		require.NoError(t, rig.ctrl.Pause(ctx))
		assert.Equal(t, StatePaused, rig.ctrl.State())
		assert.Error(t, rig.ctrl.Pause(ctx))

		require.NoError(t, rig.ctrl.Resume(ctx))
		assert.Equal(t, StatePlaying, rig.ctrl.State())
		assert.Error(t, rig.ctrl.Resume(ctx))
	})

	t.Run("seek repositions and reports promptly", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		require.NoError(t, rig.ctrl.Seek(ctx, 900))
		_, pos := rig.player.loadedAt()
		assert.InDelta(t, 900.0, pos, 0.001)

		assert.Eventually(t, func() bool {
			rig.sink.mu.Lock()
			defer rig.sink.mu.Unlock()
			for _, r := range rig.sink.progress {
				if r.PositionTicks == ticks.FromSeconds(900) {
					return true
				}
			}
			return false
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("rate change", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		require.NoError(t, rig.ctrl.SetRate(ctx, 1.5))
		assert.Equal(t, 1.5, rig.ctrl.Snapshot().Rate)
	})
}

func TestControllerStopSemantics(t *testing.T) {
	ctx := context.Background()

	t.Run("exactly one stop report per session lifecycle", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		rig.ctrl.Teardown()
		rig.ctrl.Teardown()
		rig.ctrl.Teardown()

		starts, stops := rig.sink.counts()
		assert.Equal(t, 1, starts)
		assert.Equal(t, 1, stops)
		assert.Equal(t, StateIdle, rig.ctrl.State())
		assert.GreaterOrEqual(t, rig.player.releaseCount(), 1)
	})

	t.Run("teardown before playback sends no stop", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 1800)}, Config{
			AutoResumeDelay: time.Minute,
		})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		// Still waiting on the resume prompt; no play session exists yet.
		rig.ctrl.Teardown()

		starts, stops := rig.sink.counts()
		assert.Zero(t, starts)
		assert.Zero(t, stops)

		// The orphaned auto-resume countdown must not fire either.
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, StateIdle, rig.ctrl.State())
	})

	t.Run("natural end reports stop at the runtime", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		rig.player.endStream()

		assert.Equal(t, StateEnded, rig.ctrl.State())
		rig.sink.mu.Lock()
		require.Len(t, rig.sink.stops, 1)
		assert.Equal(t, ticks.FromSeconds(3600), rig.sink.stops[0].PositionTicks)
		assert.True(t, rig.sink.stops[0].IsStopped)
		rig.sink.mu.Unlock()
	})

	t.Run("teardown after natural end still releases the player", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		rig.player.endStream()
		require.Equal(t, StateEnded, rig.ctrl.State())
		assert.Zero(t, rig.player.releaseCount())

		rig.ctrl.Teardown()
		assert.GreaterOrEqual(t, rig.player.releaseCount(), 1)

		// The ended session's stop report is not duplicated.
		_, stops := rig.sink.counts()
		assert.Equal(t, 1, stops)
	})
}

func TestControllerCaptions(t *testing.T) {
	ctx := context.Background()

	const vtt = `WEBVTT

00:00:01.000 --> 00:00:04.000
Hello

00:00:05.000 --> 00:00:07.000
World
`

	item := movieItem("m1", 3600, 0)
	item.CaptionTracks = []catalog.CaptionTrack{
		{ID: "c1", Index: 2, Language: "eng", External: true},
	}

	t.Run("active cue follows the clock", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{item}, Config{})
		rig.backend.captionDoc = vtt

		var mu sync.Mutex
		var active *captions.Cue
		rig.ctrl.OnCueChange(func(c *captions.Cue) {
			mu.Lock()
			active = c
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		rig.player.setPos(3.0)
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return active != nil && active.Text == "Hello"
		}, time.Second, 5*time.Millisecond)

		rig.player.setPos(4.6)
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return active == nil
		}, time.Second, 5*time.Millisecond)
	})
}

func TestControllerSegments(t *testing.T) {
	ctx := context.Background()

	item := movieItem("m1", 1320, 0)
	item.Segments = []catalog.SegmentWindow{
		{Type: catalog.SegmentIntro, StartTicks: ticks.FromSeconds(10), EndTicks: ticks.FromSeconds(40)},
	}

	t.Run("skip jumps past the active window", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{item}, Config{})

		var mu sync.Mutex
		var prompted []catalog.SegmentType
		rig.ctrl.OnSkipPrompt(func(w catalog.SegmentWindow) {
			mu.Lock()
			prompted = append(prompted, w.Type)
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		rig.player.setPos(15)
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(prompted) == 1 && prompted[0] == catalog.SegmentIntro
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, rig.ctrl.SkipSegment(ctx))
		_, pos := rig.player.loadedAt()
		assert.InDelta(t, 40.0, pos, 0.001)
	})

	t.Run("skip outside a window is a no-op", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m2", 1320, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m2"))

		require.NoError(t, rig.ctrl.SkipSegment(ctx))
		_, pos := rig.player.loadedAt()
		assert.Zero(t, pos)
	})
}

func TestControllerUpNext(t *testing.T) {
	ctx := context.Background()

	episode := func(id string, pos float64) *catalog.Item {
		return &catalog.Item{
			ID:            id,
			Kind:          catalog.KindEpisode,
			SeriesID:      "series",
			RuntimeTicks:  ticks.FromSeconds(1320),
			PositionTicks: ticks.FromSeconds(pos),
			Segments: []catalog.SegmentWindow{
				{Type: catalog.SegmentCredits, StartTicks: ticks.FromSeconds(1300), EndTicks: ticks.FromSeconds(1320)},
			},
		}
	}

	t.Run("trailing credits offer the next episode", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{episode("ep1", 0), episode("ep2", 0)}, Config{
			UpNextCountdown: time.Minute,
		})
		rig.catalog.nextUp = rig.catalog.items["ep2"]

		var mu sync.Mutex
		var offer *UpNextOffer
		rig.ctrl.OnUpNextOffer(func(o *UpNextOffer) {
			mu.Lock()
			offer = o
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "ep1"))

		rig.player.setPos(1305)
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return offer != nil && offer.NextItem.ID == "ep2"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("countdown expiry auto-advances to the next episode", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{episode("ep1", 0), episode("ep2", 0)}, Config{
			UpNextCountdown: 20 * time.Millisecond,
		})
		rig.catalog.nextUp = rig.catalog.items["ep2"]

		require.NoError(t, rig.ctrl.Start(ctx, "ep1"))
		rig.player.setPos(1305)

		assert.Eventually(t, func() bool {
			snap := rig.ctrl.Snapshot()
			return snap.Item != nil && snap.Item.ID == "ep2" && snap.State == StatePlaying
		}, 2*time.Second, 10*time.Millisecond)

		// The finished episode's play session was stopped.
		_, stops := rig.sink.counts()
		assert.Equal(t, 1, stops)
	})

	t.Run("cancel before expiry never advances", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{episode("ep1", 0), episode("ep2", 0)}, Config{
			UpNextCountdown: 30 * time.Millisecond,
		})
		rig.catalog.nextUp = rig.catalog.items["ep2"]

		var mu sync.Mutex
		var offers []*UpNextOffer
		rig.ctrl.OnUpNextOffer(func(o *UpNextOffer) {
			mu.Lock()
			offers = append(offers, o)
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "ep1"))
		rig.player.setPos(1305)

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(offers) == 1 && offers[0] != nil
		}, time.Second, 5*time.Millisecond)

		rig.ctrl.CancelUpNext()
		time.Sleep(80 * time.Millisecond)

		snap := rig.ctrl.Snapshot()
		require.NotNil(t, snap.Item)
		assert.Equal(t, "ep1", snap.Item.ID)
	})

	t.Run("movies never trigger up-next", func(t *testing.T) {
		movie := movieItem("m1", 1320, 0)
		movie.Segments = []catalog.SegmentWindow{
			{Type: catalog.SegmentCredits, StartTicks: ticks.FromSeconds(1300), EndTicks: ticks.FromSeconds(1320)},
		}
		rig := newTestRig(t, []*catalog.Item{movie}, Config{})

		var offered atomic.Bool
		rig.ctrl.OnUpNextOffer(func(*UpNextOffer) { offered.Store(true) })

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))
		rig.player.setPos(1305)

		time.Sleep(80 * time.Millisecond)
		assert.False(t, offered.Load())
	})
}

func TestControllerChangeQuality(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps the stream and mints a new play session", func(t *testing.T) {
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{})
		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		firstSession := rig.ctrl.Snapshot().Descriptor.PlaySessionID
		require.NoError(t, rig.ctrl.Seek(ctx, 600))

		require.NoError(t, rig.ctrl.ChangeQuality(ctx, 4_000_000))

		snap := rig.ctrl.Snapshot()
		assert.Equal(t, StatePlaying, snap.State)
		assert.NotEqual(t, firstSession, snap.Descriptor.PlaySessionID)

		// Position carries over into the new load.
		_, pos := rig.player.loadedAt()
		assert.InDelta(t, 600.0, pos, 0.001)

		// The old play session was stopped, the new one started.
		starts, stops := rig.sink.counts()
		assert.Equal(t, 2, starts)
		assert.Equal(t, 1, stops)

		rig.sink.mu.Lock()
		assert.Equal(t, firstSession, rig.sink.stops[0].PlaySessionID)
		rig.sink.mu.Unlock()
	})
}

func TestControllerHistoryFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("server position wins, history fills the gap", func(t *testing.T) {
		store := &memoryHistory{positions: map[string]int64{"m1": ticks.FromSeconds(1200)}}
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{
			AutoResumeDelay: time.Minute,
		})
		rig.ctrl.history = store

		var mu sync.Mutex
		var offer *ResumeOffer
		rig.ctrl.OnResumeOffer(func(o *ResumeOffer) {
			mu.Lock()
			offer = o
			mu.Unlock()
		})

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		mu.Lock()
		require.NotNil(t, offer)
		assert.Equal(t, ticks.FromSeconds(1200), offer.PositionTicks)
		mu.Unlock()

		require.NoError(t, rig.ctrl.ChooseResume(true))
		rig.ctrl.Teardown()

		store.mu.Lock()
		assert.NotZero(t, store.saves)
		store.mu.Unlock()
	})

	t.Run("teardown during the resume prompt keeps the stored position", func(t *testing.T) {
		store := &memoryHistory{positions: map[string]int64{"m1": ticks.FromSeconds(1200)}}
		rig := newTestRig(t, []*catalog.Item{movieItem("m1", 3600, 0)}, Config{
			AutoResumeDelay: time.Minute,
		})
		rig.ctrl.history = store

		require.NoError(t, rig.ctrl.Start(ctx, "m1"))

		// Playback never began; nothing overwrites the resume point.
		rig.ctrl.Teardown()

		store.mu.Lock()
		assert.Zero(t, store.saves)
		assert.Equal(t, ticks.FromSeconds(1200), store.positions["m1"])
		store.mu.Unlock()
	})
}

type memoryHistory struct {
	mu        sync.Mutex
	positions map[string]int64
	saves     int
}

func (m *memoryHistory) ResumePosition(itemID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions[itemID], nil
}

func (m *memoryHistory) SavePosition(itemID string, positionTicks, _ int64, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[itemID] = positionTicks
	m.saves++
	return nil
}
