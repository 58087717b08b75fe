package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host"
)

// DefaultFrameInterval is the pause between slices of an unfinished pass.
const DefaultFrameInterval = 16 * time.Millisecond

// Loop owns an engine and runs it on the goroutine that calls Run.
//
// Other goroutines hand it element trees with Submit. Requests that arrive
// together are coalesced: only the newest is rendered, since rendering it
// would abandon the older ones anyway.
type Loop struct {
	eng       *engine.Engine
	container host.Node
	queue     *requestQueue
	logger    *slog.Logger

	budget   time.Duration
	interval time.Duration
	now      func() time.Time
	onError  func(error)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameBudget sets the time each slice may use. Default: DefaultFrameBudget.
func WithFrameBudget(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.budget = d
	}
}

// WithFrameInterval sets the pause between slices. Default: DefaultFrameInterval.
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.interval = d
	}
}

// WithNow sets the clock slices are measured with. Default: time.Now.
func WithNow(now func() time.Time) LoopOption {
	return func(l *Loop) {
		l.now = now
	}
}

// WithErrorHandler receives render and pass errors. By default they are
// logged and the loop carries on.
func WithErrorHandler(fn func(error)) LoopOption {
	return func(l *Loop) {
		l.onError = fn
	}
}

// WithLoopLogger sets the logger. Default: slog.Default().
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop rendering into container with eng.
func NewLoop(eng *engine.Engine, container host.Node, opts ...LoopOption) *Loop {
	l := &Loop{
		eng:       eng,
		container: container,
		queue:     newRequestQueue(),
		logger:    slog.Default(),
		budget:    DefaultFrameBudget,
		interval:  DefaultFrameInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.onError == nil {
		l.onError = func(err error) {
			l.logger.Error("render loop error", "error", err)
		}
	}
	return l
}

// Submit validates el and queues it for rendering.
// Thread-safe: may be called from any goroutine.
//
// Invalid trees are rejected here rather than on the loop goroutine.
// ErrLoopStopped is returned once the loop has been stopped.
func (l *Loop) Submit(el *element.Element) error {
	if err := element.Validate(el); err != nil {
		return err
	}
	if _, ok := l.queue.Enqueue(el); !ok {
		return ErrLoopStopped
	}
	return nil
}

// Stop closes the request queue. Run finishes the pass in flight and
// returns nil.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Run processes requests until ctx is cancelled or Stop is called.
// CRITICAL: the engine must not be touched by any other goroutine while
// Run is executing.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("render loop starting",
		"budget", l.budget,
		"interval", l.interval,
	)

	for {
		l.takeRequests()
		if l.eng.HasWork() {
			l.slice()
		}

		closed := l.queue.Closed()
		if closed && !l.eng.HasWork() && l.queue.Len() == 0 {
			l.logger.Info("render loop stopping: queue closed")
			return nil
		}

		var wake <-chan struct{}
		if !closed {
			wake = l.queue.Wait()
		}
		var timer *time.Timer
		var tick <-chan time.Time
		if l.eng.HasWork() {
			timer = time.NewTimer(l.interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			l.logger.Info("render loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()
		case <-wake:
		case <-tick:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// takeRequests renders the newest queued request, if any.
func (l *Loop) takeRequests() {
	reqs := l.queue.Drain()
	if len(reqs) == 0 {
		return
	}
	latest := reqs[len(reqs)-1]
	if len(reqs) > 1 {
		l.logger.Debug("render requests coalesced",
			"superseded", len(reqs)-1,
			"request", latest.seq,
		)
	}
	if err := l.eng.Render(latest.el, l.container); err != nil {
		l.onError(err)
	}
}

func (l *Loop) slice() {
	if err := l.eng.WorkLoop(NewFrameDeadline(l.budget, l.now)); err != nil {
		l.onError(err)
	}
}
