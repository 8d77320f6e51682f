package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the heartbeat cadence when none is configured.
const DefaultInterval = 5 * time.Second

// stopTimeout bounds each attempt of the final stop report so teardown
// always completes.
const stopTimeout = 3 * time.Second

// PositionFunc supplies the current playback position and pause state.
type PositionFunc func() (positionTicks int64, paused bool)

// Reporter pushes playback state for exactly one play session: a start
// report up front, heartbeats on a fixed interval while running, immediate
// reports on play/pause/seek transitions, and exactly one stop report at
// the end of the session lifecycle.
//
// Heartbeat and transition failures are logged and discarded. The stop
// report is retried once, then discarded, because teardown must always
// complete.
type Reporter struct {
	sink          Sink
	itemID        string
	playSessionID string
	interval      time.Duration
	position      PositionFunc
	logger        *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	kick    chan struct{}

	stopOnce sync.Once
}

// NewReporter creates a reporter bound to one play session id.
func NewReporter(sink Sink, itemID, playSessionID string, interval time.Duration, position PositionFunc, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		sink:          sink,
		itemID:        itemID,
		playSessionID: playSessionID,
		interval:      interval,
		position:      position,
		logger:        logger,
		kick:          make(chan struct{}, 1),
	}
}

// PlaySessionID returns the session id this reporter is bound to.
func (r *Reporter) PlaySessionID() string {
	return r.playSessionID
}

// Start issues the start report and begins the heartbeat loop. The start
// report is sent before the first tick so a stop report can never precede
// it. A failed start send is logged and does not prevent heartbeats.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	pos, paused := r.position()
	if err := r.sink.ReportStart(ctx, r.report(pos, paused, false)); err != nil {
		r.logger.Warn("start report failed", "play_session", r.playSessionID, "error", err)
	}

	go r.loop(ctx, done)
}

// loop owns all outbound heartbeat traffic so sends never race each other.
// A kick (explicit transition report) resets the ticker, which guarantees
// the transition's position is sent before the next periodic tick fires.
func (r *Reporter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
			ticker.Reset(r.interval)
			r.send(ctx)
		case <-ticker.C:
			r.send(ctx)
		}
	}
}

// Flush requests an immediate report, used on play/pause/seek transitions.
// Non-blocking; coalesces with an already pending flush.
func (r *Reporter) Flush() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *Reporter) send(ctx context.Context) {
	pos, paused := r.position()
	if err := r.sink.ReportProgress(ctx, r.report(pos, paused, false)); err != nil {
		// Transient by definition; never retried, never surfaced.
		r.logger.Debug("progress report failed", "play_session", r.playSessionID, "error", err)
	}
}

// Stop halts the heartbeat loop and sends the final stop report with the
// given position. At most one stop report is ever sent per reporter, no
// matter how many times Stop is called, and never before Start has issued
// the start report.
func (r *Reporter) Stop(positionTicks int64) {
	r.mu.Lock()
	started := r.started
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if !started {
		return
	}

	r.stopOnce.Do(func() {
		rep := r.report(positionTicks, true, true)
		if err := r.sendStop(rep); err != nil {
			r.logger.Warn("stop report failed, retrying once", "play_session", r.playSessionID, "error", err)
			if err := r.sendStop(rep); err != nil {
				r.logger.Warn("stop report retry failed, giving up", "play_session", r.playSessionID, "error", err)
			}
		}
	})
}

func (r *Reporter) sendStop(rep Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return r.sink.ReportStop(ctx, rep)
}

func (r *Reporter) report(positionTicks int64, paused, stopped bool) Report {
	return Report{
		ItemID:        r.itemID,
		PlaySessionID: r.playSessionID,
		PositionTicks: positionTicks,
		IsPaused:      paused,
		IsStopped:     stopped,
	}
}
