package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/store"
	"github.com/roach88/reconcile/internal/testutil"
	"github.com/roach88/reconcile/internal/trace"
)

// Harness executes one scenario against a fresh engine, host and store.
type Harness struct {
	store     *store.Store
	engine    *engine.Engine
	host      *memhost.Host
	container *memhost.Node
	logger    *slog.Logger

	finished []trace.Pass
}

// Option configures Run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger routes engine logs to logger. By default they are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Pass IDs
// and sequence numbers are deterministic, so equal scenarios produce equal
// traces.
//
// Execution flow:
//  1. Create fresh in-memory store, host and engine
//  2. Execute steps in order, recording every finished pass
//  3. Read the passes back from the store
//  4. Evaluate each step's expectations
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	h := &Harness{
		store:  st,
		host:   memhost.New(),
		logger: cfg.logger,
	}
	tag := scenario.Container
	if tag == "" {
		tag = "root"
	}
	h.container = h.host.NewContainer(tag)

	recorder := store.NewRecorder(ctx, st, cfg.logger)
	engineOpts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithPassIDGenerator(engine.NewFixedGenerator(scenario.PassIDs...)),
		engine.WithObserver(recorder),
		engine.WithObserver(engine.ObserverFunc(func(p trace.Pass) {
			h.finished = append(h.finished, p)
		})),
	}
	if scenario.MaxUnits > 0 {
		engineOpts = append(engineOpts, engine.WithMaxUnits(scenario.MaxUnits))
	}
	h.engine = engine.New(h.host, engineOpts...)

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, sr)
	}
	if err := recorder.Err(); err != nil {
		return nil, fmt.Errorf("failed to record passes: %w", err)
	}

	for i, step := range scenario.Steps {
		if step.Expect == nil {
			continue
		}
		for _, msg := range evaluateStep(result.Steps[i], step.Expect) {
			result.AddError(fmt.Sprintf("step %d: %s", i, msg))
		}
	}
	return result, nil
}

// executeStep renders one step and drives the engine.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (StepResult, error) {
	sr := StepResult{Index: index}

	el, err := element.FromDocument(step.Render)
	if err != nil {
		sr.Error = errorCode(err)
		sr.Host = memhost.Dump(h.container)
		return sr, nil
	}
	if step.Fail != "" {
		h.host.FailNext(step.Fail, nil)
	}

	before := len(h.finished)
	if err := h.engine.Render(el, h.container); err != nil {
		sr.Error = errorCode(err)
		sr.Host = memhost.Dump(h.container)
		return sr, nil
	}

	var deadline engine.Deadline = engine.Unbounded
	var units *testutil.UnitDeadline
	if step.Units > 0 {
		units = testutil.NewUnitDeadline(step.Units)
		deadline = units
	}

	slices := 0
	for h.engine.HasWork() {
		if step.Slices > 0 && slices == step.Slices {
			break
		}
		if units != nil {
			units.Reset()
		}
		slices++
		if err := h.engine.WorkLoop(deadline); err != nil {
			sr.Error = errorCode(err)
			break
		}
	}

	if len(h.finished) > before {
		id := h.finished[len(h.finished)-1].ID
		stored, err := h.store.ReadPass(ctx, id)
		if err != nil {
			return sr, err
		}
		sr.Trace = &stored
	}
	sr.Host = memhost.Dump(h.container)

	h.logger.Debug("scenario step completed",
		"step", index,
		"status", sr.Status(),
		"slices", slices,
	)
	return sr, nil
}

func errorCode(err error) string {
	var re *engine.RenderError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	if element.IsInvalidElement(err) {
		return string(engine.ErrCodeInvalidElement)
	}
	return err.Error()
}
