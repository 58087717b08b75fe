package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/fiber"
	"github.com/roach88/reconcile/internal/host"
	"github.com/roach88/reconcile/internal/trace"
)

// Deadline exposes the time left in the current idle slice.
type Deadline interface {
	TimeRemaining() time.Duration
}

// DeadlineFunc adapts a function to Deadline.
type DeadlineFunc func() time.Duration

// TimeRemaining implements Deadline.
func (f DeadlineFunc) TimeRemaining() time.Duration { return f() }

// Unbounded is a Deadline that never asks the loop to yield.
var Unbounded Deadline = DeadlineFunc(func() time.Duration { return time.Duration(1<<63 - 1) })

// CommitObserver is told about every finished pass, committed or aborted.
type CommitObserver interface {
	OnCommit(pass trace.Pass)
}

// ObserverFunc adapts a function to CommitObserver.
type ObserverFunc func(pass trace.Pass)

// OnCommit implements CommitObserver.
func (f ObserverFunc) OnCommit(pass trace.Pass) { f(pass) }

// State is the engine's position in its render cycle.
type State int

const (
	StateIdle State = iota
	StateRendering
	StateCommitting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

const (
	// DefaultYieldThreshold matches an idle callback yielding once less
	// than a millisecond remains.
	DefaultYieldThreshold = time.Millisecond

	// DefaultMaxUnits bounds the fibers one pass may begin.
	DefaultMaxUnits = 100000
)

// Engine reconciles element trees into host mutations for one container.
type Engine struct {
	adapter   host.Adapter
	logger    *slog.Logger
	clock     *Clock
	passIDs   PassIDGenerator
	observers []CommitObserver

	yieldThreshold time.Duration
	maxUnits       int

	container   host.Node
	currentRoot *fiber.Fiber
	wipRoot     *fiber.Fiber
	nextUnit    *fiber.Fiber
	deletions   []*fiber.Fiber
	state       State
	pass        passState
}

// passState is bookkeeping for the pass in flight.
type passState struct {
	id       string
	seq      int64
	treeHash string
	slices   int
	quota    *QuotaEnforcer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithYieldThreshold sets the remaining slice time below which the work
// loop yields. Default: DefaultYieldThreshold.
func WithYieldThreshold(d time.Duration) Option {
	return func(e *Engine) {
		e.yieldThreshold = d
	}
}

// WithMaxUnits sets the per-pass unit limit. Zero disables the limit.
// Default: DefaultMaxUnits.
func WithMaxUnits(n int) Option {
	return func(e *Engine) {
		e.maxUnits = n
	}
}

// WithPassIDGenerator overrides the pass ID generator. Default: UUIDv7.
func WithPassIDGenerator(g PassIDGenerator) Option {
	return func(e *Engine) {
		e.passIDs = g
	}
}

// WithClock sets the clock used for pass sequence numbers.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithObserver registers a commit observer. May be given more than once.
func WithObserver(o CommitObserver) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// New creates an idle Engine with an empty current tree.
func New(adapter host.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapter:        adapter,
		logger:         slog.Default(),
		clock:          NewClock(),
		passIDs:        UUIDv7Generator{},
		yieldThreshold: DefaultYieldThreshold,
		maxUnits:       DefaultMaxUnits,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render requests that el be rendered into container.
//
// The element tree is validated synchronously; the work itself happens in
// later WorkLoop calls. The first Render scopes the engine to its container.
// A nil el renders nothing, removing whatever was committed before.
//
// Render returns only validation and container errors. A host.AdapterError
// raised while the pass runs is returned by the WorkLoop call that hit it,
// wrapped in a RenderError with code ErrCodeAdapterFailure or
// ErrCodeCommitFailure.
func (e *Engine) Render(el *element.Element, container host.Node) error {
	if container == nil {
		return &RenderError{Code: ErrCodeContainerMismatch, Message: "container is nil"}
	}
	if e.container != nil && e.container != container {
		return &RenderError{Code: ErrCodeContainerMismatch, Message: "engine is bound to another container"}
	}
	if err := element.Validate(el); err != nil {
		return &RenderError{Code: ErrCodeInvalidElement, Message: "render rejected", Err: err}
	}
	e.container = container

	treeHash, err := element.Fingerprint(el)
	if err != nil {
		e.logger.Debug("element tree has no fingerprint", "error", err)
	}

	e.ScheduleRoot(fiber.NewRoot(container, el))
	e.pass.treeHash = treeHash
	return nil
}

// ScheduleRoot starts a render pass for root, a Root fiber skeleton whose
// Children hold the element to render.
//
// The work-in-progress buffer is chosen as follows:
//   - no current tree: root itself (first render)
//   - current tree without alternate: root, cross-linked to current
//   - otherwise: the current tree's alternate, recycled with root's props
//
// A pass already in flight is abandoned.
func (e *Engine) ScheduleRoot(root *fiber.Fiber) {
	if e.wipRoot != nil {
		e.logger.Warn("render pass abandoned by new render request",
			"pass", e.pass.id,
			"units", e.pass.quota.Current(),
		)
		e.discardDeletions()
	}

	switch {
	case e.currentRoot != nil && e.currentRoot.Alternate != nil:
		wip := e.currentRoot.Alternate
		wip.Alternate = e.currentRoot
		wip.Props = root.Props
		wip.Children = root.Children
		wip.StateNode = root.StateNode
		e.wipRoot = wip
	case e.currentRoot != nil:
		root.Alternate = e.currentRoot
		e.wipRoot = root
	default:
		e.wipRoot = root
	}
	e.wipRoot.ResetEffects()
	e.wipRoot.EffectTag = fiber.EffectNone
	e.nextUnit = e.wipRoot
	e.state = StateRendering

	e.pass = passState{
		id:    e.passIDs.Generate(),
		seq:   e.clock.Next(),
		quota: NewQuotaEnforcer(e.maxUnits),
	}
	e.logger.Debug("render pass scheduled", "pass", e.pass.id, "seq", e.pass.seq)
}

// State returns the current position in the render cycle.
func (e *Engine) State() State {
	return e.state
}

// HasWork reports whether a pass is waiting for WorkLoop.
func (e *Engine) HasWork() bool {
	return e.nextUnit != nil || e.wipRoot != nil
}

// Current returns the root fiber of the committed tree, or nil.
func (e *Engine) Current() *fiber.Fiber {
	return e.currentRoot
}

// WorkInProgress returns the root fiber of the pass in flight, or nil.
func (e *Engine) WorkInProgress() *fiber.Fiber {
	return e.wipRoot
}

// Container returns the container the engine is bound to, or nil.
func (e *Engine) Container() host.Node {
	return e.container
}
