package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/testutil"
	"github.com/roach88/reconcile/internal/trace"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	mu        sync.Mutex
	eng       *engine.Engine
	host      *memhost.Host
	container *memhost.Node
	passes    []trace.Pass
}

func newFixture() *fixture {
	f := &fixture{host: memhost.New()}
	f.container = f.host.NewContainer("root")
	f.eng = engine.New(f.host,
		engine.WithLogger(quiet),
		engine.WithPassIDGenerator(engine.NewFixedGenerator()),
		engine.WithObserver(engine.ObserverFunc(func(p trace.Pass) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.passes = append(f.passes, p)
		})),
	)
	return f
}

func (f *fixture) committed() []trace.Pass {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]trace.Pass(nil), f.passes...)
}

func tree(id string) *element.Element {
	return element.MustCreate("div", element.Props{"id": id},
		element.MustCreate("div", element.Props{"id": "B1"},
			element.MustCreate("div", element.Props{"id": "C1"}),
			element.MustCreate("div", element.Props{"id": "C2"}),
		),
		element.MustCreate("div", element.Props{"id": "B2"}),
	)
}

func TestFrameDeadline_TimeRemaining(t *testing.T) {
	clock := testutil.NewManualClock(time.Time{})
	d := NewFrameDeadline(10*time.Millisecond, clock.Now)

	assert.Equal(t, 10*time.Millisecond, d.TimeRemaining())
	clock.Advance(4 * time.Millisecond)
	assert.Equal(t, 6*time.Millisecond, d.TimeRemaining())
	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, time.Duration(0), d.TimeRemaining())
	assert.Equal(t, 10*time.Millisecond, d.Budget())
}

func TestFrameDeadline_DefaultsToWallClock(t *testing.T) {
	d := NewFrameDeadline(time.Hour, nil)
	assert.Greater(t, d.TimeRemaining(), 59*time.Minute)
}

func TestAttach_RearmsUntilCommitted(t *testing.T) {
	f := newFixture()
	idle := &ManualIdle{}
	require.NoError(t, f.eng.Render(tree("A1"), f.container))

	var outcome error
	finished := false
	Attach(idle, f.eng, func(err error) {
		outcome = err
		finished = true
	})
	assert.Equal(t, 1, idle.Pending())

	periods := 0
	for idle.Pending() > 0 {
		idle.Idle(testutil.NewUnitDeadline(2))
		periods++
	}

	assert.True(t, finished)
	assert.NoError(t, outcome)
	assert.Equal(t, 3, periods, "six units at two per idle period")
	require.Len(t, f.committed(), 1)
	assert.Len(t, f.container.Children, 1)
}

func TestAttach_ReportsAbortedPass(t *testing.T) {
	f := newFixture()
	idle := &ManualIdle{}
	f.host.FailNext("create_node", nil)
	require.NoError(t, f.eng.Render(tree("A1"), f.container))

	var outcome error
	Attach(idle, f.eng, func(err error) { outcome = err })
	for idle.Pending() > 0 {
		idle.Idle(engine.Unbounded)
	}

	require.Error(t, outcome)
	assert.True(t, engine.IsAdapterFailure(outcome))
}

func TestRunToCompletion_CountsSlices(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.eng.Render(tree("A1"), f.container))

	slices, err := RunToCompletion(context.Background(), f.eng, func() engine.Deadline {
		return testutil.NewUnitDeadline(1)
	})

	require.NoError(t, err)
	assert.Equal(t, 6, slices)
	assert.False(t, f.eng.HasWork())
}

func TestRunToCompletion_ReturnsPassError(t *testing.T) {
	f := newFixture()
	f.host.FailNext("create_node", nil)
	require.NoError(t, f.eng.Render(tree("A1"), f.container))

	slices, err := RunToCompletion(context.Background(), f.eng, func() engine.Deadline {
		return testutil.NewUnitDeadline(1)
	})

	require.Error(t, err)
	assert.True(t, engine.IsAdapterFailure(err))
	assert.Equal(t, 2, slices, "the root unit, then the failing element")
	assert.False(t, f.eng.HasWork())
	require.Len(t, f.committed(), 1)
	assert.Equal(t, trace.StatusAborted, f.committed()[0].Status)
}

func TestRunToCompletion_IdleEngine(t *testing.T) {
	f := newFixture()

	slices, err := RunToCompletion(context.Background(), f.eng, func() engine.Deadline {
		return engine.Unbounded
	})

	require.NoError(t, err)
	assert.Zero(t, slices)
}

func TestRunToCompletion_StopsOnCancelledContext(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.eng.Render(tree("A1"), f.container))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slices, err := RunToCompletion(ctx, f.eng, func() engine.Deadline {
		return engine.Unbounded
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, slices)
	assert.True(t, f.eng.HasWork(), "the pass is left for a later drive")
}

func TestLoop_CoalescesQueuedRequests(t *testing.T) {
	f := newFixture()
	loop := NewLoop(f.eng, f.container, WithLoopLogger(quiet), WithFrameBudget(time.Hour))

	require.NoError(t, loop.Submit(tree("first")))
	require.NoError(t, loop.Submit(tree("second")))
	require.NoError(t, loop.Submit(tree("third")))
	loop.Stop()

	require.NoError(t, loop.Run(context.Background()))

	passes := f.committed()
	require.Len(t, passes, 1)
	assert.Equal(t, "Placement div#third", passes[0].Labels()[4])
}

func TestLoop_SpreadsPassOverFrames(t *testing.T) {
	f := newFixture()
	clock := testutil.NewManualClock(time.Time{})
	loop := NewLoop(f.eng, f.container,
		WithLoopLogger(quiet),
		WithFrameBudget(2*time.Millisecond),
		WithFrameInterval(time.Millisecond),
		WithNow(clock.AdvanceOnRead(time.Millisecond)),
	)

	require.NoError(t, loop.Submit(tree("A1")))
	loop.Stop()
	require.NoError(t, loop.Run(context.Background()))

	passes := f.committed()
	require.Len(t, passes, 1)
	assert.Equal(t, 3, passes[0].Slices)
	assert.Equal(t, 6, passes[0].Units)
}

func TestLoop_ConcurrentSubmitters(t *testing.T) {
	f := newFixture()
	loop := NewLoop(f.eng, f.container,
		WithLoopLogger(quiet),
		WithFrameBudget(time.Hour),
		WithFrameInterval(time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Submit(tree("A1"))
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(f.committed()) > 0 && !loopBusy(loop)
	}, 2*time.Second, 5*time.Millisecond)

	loop.Stop()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Len(t, f.container.Children, 1)
}

func loopBusy(l *Loop) bool {
	return l.queue.Len() > 0
}

func TestLoop_ContextCancel(t *testing.T) {
	f := newFixture()
	loop := NewLoop(f.eng, f.container, WithLoopLogger(quiet))

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop ignored cancellation")
	}
	assert.ErrorIs(t, loop.Submit(tree("A1")), ErrLoopStopped)
}

func TestLoop_SubmitValidates(t *testing.T) {
	f := newFixture()
	loop := NewLoop(f.eng, f.container, WithLoopLogger(quiet))

	err := loop.Submit(&element.Element{Type: 42})

	require.Error(t, err)
	assert.True(t, element.IsInvalidElement(err))
	assert.Zero(t, loop.queue.Len())
}

func TestLoop_ErrorHandlerReceivesPassErrors(t *testing.T) {
	f := newFixture()
	f.host.FailNext("append_child", nil)
	var got []error
	loop := NewLoop(f.eng, f.container,
		WithLoopLogger(quiet),
		WithFrameBudget(time.Hour),
		WithErrorHandler(func(err error) { got = append(got, err) }),
	)

	require.NoError(t, loop.Submit(tree("A1")))
	loop.Stop()
	require.NoError(t, loop.Run(context.Background()))

	require.Len(t, got, 1)
	assert.True(t, engine.IsCommitFailure(got[0]))
}
