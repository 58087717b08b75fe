package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/trace"
)

// Recorder persists every pass an engine reports.
//
// The engine does not let observers fail a commit, so write errors are
// logged and kept; Err returns the first one.
type Recorder struct {
	store  *Store
	ctx    context.Context
	logger *slog.Logger

	mu  sync.Mutex
	n   int
	err error
}

var _ engine.CommitObserver = (*Recorder)(nil)

// NewRecorder creates a recorder writing to s under ctx. A nil logger
// uses slog.Default().
func NewRecorder(ctx context.Context, s *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, ctx: ctx, logger: logger}
}

// OnCommit implements engine.CommitObserver.
func (r *Recorder) OnCommit(p trace.Pass) {
	err := r.store.WritePass(r.ctx, p)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.logger.Error("failed to record pass", "pass", p.ID, "error", err)
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.n++
}

// Recorded returns how many passes were written.
func (r *Recorder) Recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ResumeClock returns an engine clock continuing after the last stored pass.
func (s *Store) ResumeClock(ctx context.Context) (*engine.Clock, error) {
	seq, err := s.MaxSeq(ctx)
	if err != nil {
		return nil, err
	}
	return engine.NewClockAt(seq), nil
}
