package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/scheduler"
	"github.com/roach88/reconcile/internal/store"
	"github.com/roach88/reconcile/internal/trace"
)

// sessionConfig configures a render session.
type sessionConfig struct {
	Container string
	Budget    time.Duration
	MaxUnits  int    // zero disables the unit limit
	Database  string // empty keeps passes in memory only
	Logger    *slog.Logger
}

// session is one engine bound to one memhost container, optionally
// recording its passes to a commit log.
type session struct {
	host      *memhost.Host
	container *memhost.Node
	engine    *engine.Engine
	budget    time.Duration

	store    *store.Store
	recorder *store.Recorder

	logger   *slog.Logger
	finished int
	last     trace.Pass

	// forward, when set, receives every finished pass. It is only set
	// while a live render owns the engine.
	forward chan<- trace.Pass
}

func newSession(ctx context.Context, cfg sessionConfig) (*session, error) {
	tag := cfg.Container
	if tag == "" {
		tag = "root"
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = scheduler.DefaultFrameBudget
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &session{host: memhost.New(), budget: budget, logger: logger}
	s.container = s.host.NewContainer(tag)

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxUnits(cfg.MaxUnits),
		engine.WithObserver(engine.ObserverFunc(func(p trace.Pass) {
			s.finished++
			s.last = p
			if s.forward != nil {
				s.forward <- p
			}
		})),
	}

	if cfg.Database != "" {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open commit log: %w", err)
		}
		clock, err := st.ResumeClock(ctx)
		if err != nil {
			st.Close()
			return nil, err
		}
		s.store = st
		s.recorder = store.NewRecorder(ctx, st, logger)
		opts = append(opts, engine.WithClock(clock), engine.WithObserver(s.recorder))
	}

	s.engine = engine.New(s.host, opts...)
	return s, nil
}

// renderFrame renders el and drives the engine until the pass finishes. It
// returns the finished pass, if any, and the error that rejected the request
// or aborted the pass.
func (s *session) renderFrame(ctx context.Context, el *element.Element) (*trace.Pass, error) {
	if err := s.engine.Render(el, s.container); err != nil {
		return nil, err
	}
	before := s.finished
	_, err := scheduler.RunToCompletion(ctx, s.engine, func() engine.Deadline {
		return scheduler.NewFrameDeadline(s.budget, nil)
	})
	if s.finished > before {
		p := s.last
		return &p, err
	}
	return nil, err
}

// frameOutcome is the result of one frame in a live render.
type frameOutcome struct {
	pass *trace.Pass
	err  error
}

// renderLive renders frames through a scheduler.Loop that owns the engine
// on its own goroutine. Each frame is submitted once the pass of the
// previous one has finished, so no frame is coalesced away. Outcomes are
// returned in frame order; the returned error is the loop's own.
func (s *session) renderLive(ctx context.Context, frames []*element.Element, interval time.Duration) ([]frameOutcome, error) {
	finished := make(chan trace.Pass, 1)
	s.forward = finished
	defer func() { s.forward = nil }()

	loop := scheduler.NewLoop(s.engine, s.container,
		scheduler.WithFrameBudget(s.budget),
		scheduler.WithFrameInterval(interval),
		scheduler.WithLoopLogger(s.logger),
		scheduler.WithErrorHandler(func(err error) {
			s.logger.Debug("live frame failed", "error", err)
		}),
	)
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	outcomes := make([]frameOutcome, 0, len(frames))
	for _, el := range frames {
		if err := loop.Submit(el); err != nil {
			outcomes = append(outcomes, frameOutcome{err: err})
			continue
		}
		select {
		case p := <-finished:
			o := frameOutcome{pass: &p}
			if p.Status != trace.StatusCommitted {
				o.err = errors.New(p.Error)
			}
			outcomes = append(outcomes, o)
		case err := <-done:
			return outcomes, err
		}
	}
	loop.Stop()
	return outcomes, <-done
}

// dump returns the container's host tree.
func (s *session) dump() string {
	return memhost.Dump(s.container)
}

// Close closes the commit log, reporting the first failed write if any.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	recErr := s.recorder.Err()
	if err := s.store.Close(); err != nil {
		return err
	}
	if recErr != nil {
		return fmt.Errorf("record passes: %w", recErr)
	}
	return nil
}
