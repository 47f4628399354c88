// Package scope models a finalizer stack: cleanup actions registered while a
// resource is acquired and released in reverse order.
package scope

import (
	"context"
	"crypto/rand"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
	"github.com/aristath/visualeffect/internal/observe"
)

// State is the lifecycle of a scope.
type State string

const (
	StateIdle      State = "idle"
	StateAcquiring State = "acquiring"
	StateActive    State = "active"
	StateReleasing State = "releasing"
	StateReleased  State = "released"
)

// FinalizerState is the lifecycle of a single finalizer.
type FinalizerState string

const (
	FinalizerPending   FinalizerState = "pending"
	FinalizerRunning   FinalizerState = "running"
	FinalizerCompleted FinalizerState = "completed"
)

// DefaultFinalizerDuration is how long a finalizer without a release function takes.
const DefaultFinalizerDuration = 800 * time.Millisecond

var (
	// ErrReleased is returned when adding a finalizer to a released scope.
	ErrReleased = errors.New("scope already released")
	// ErrReleasing is returned by RunFinalizers when a release is already in progress.
	ErrReleasing = errors.New("scope is already releasing")
	// ErrAborted is returned by RunFinalizers when the scope was reset mid-release.
	ErrAborted = errors.New("release aborted by reset")
)

// Finalizer is a registered cleanup action.
type Finalizer struct {
	ID        string
	Name      string
	CreatedAt time.Time
	State     FinalizerState
}

type finalizer struct {
	Finalizer
	release func(ctx context.Context) error
}

// Scope is an observable finalizer stack.
type Scope struct {
	id        string
	duration  time.Duration
	logger    log.Logger
	publisher events.Publisher
	recorder  metrics.Recorder

	mu         sync.Mutex
	state      State
	finalizers []*finalizer
	// reset is closed and replaced on every Reset to wake in-flight releases.
	reset     chan struct{}
	listeners observe.Listeners
}

// Option configures a Scope.
type Option func(*Scope)

// WithFinalizerDuration sets how long simulated finalizers take.
func WithFinalizerDuration(d time.Duration) Option {
	return func(s *Scope) { s.duration = d }
}

// WithLogger sets the logger. Defaults to log.Noop.
func WithLogger(l log.Logger) Option {
	return func(s *Scope) { s.logger = l }
}

// WithPublisher publishes scope and finalizer events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Scope) { s.publisher = p }
}

// WithRecorder records finalizer outcomes on r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Scope) { s.recorder = r }
}

// New creates an idle scope.
func New(id string, opts ...Option) *Scope {
	s := &Scope{
		id:       id,
		duration: DefaultFinalizerDuration,
		logger:   log.Noop,
		recorder: metrics.Noop,
		state:    StateIdle,
		reset:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.duration < 0 {
		s.duration = 0
	}
	s.logger = s.logger.WithValues(log.Kv{"scope": id})
	return s
}

func (s *Scope) ID() string { return s.id }

func (s *Scope) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finalizers returns a copy of the finalizer stack in registration order.
func (s *Scope) Finalizers() []Finalizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Finalizer, len(s.finalizers))
	for i, f := range s.finalizers {
		out[i] = f.Finalizer
	}
	return out
}

// Subscribe registers fn to be called after every change.
func (s *Scope) Subscribe(fn func()) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// SetState moves the scope to state. Setting the current state is a no-op.
func (s *Scope) SetState(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	s.changed(state)
}

// AddFinalizer registers a simulated cleanup action and returns its id.
func (s *Scope) AddFinalizer(name string) (string, error) {
	return s.AddFinalizerFunc(name, nil)
}

// AddFinalizerFunc registers release as a cleanup action and returns its id.
// A nil release takes the configured finalizer duration.
func (s *Scope) AddFinalizerFunc(name string, release func(ctx context.Context) error) (string, error) {
	s.mu.Lock()
	if s.state == StateReleased {
		s.mu.Unlock()
		return "", ErrReleased
	}
	f := &finalizer{
		Finalizer: Finalizer{
			ID:        "finalizer-" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
			Name:      name,
			CreatedAt: time.Now(),
			State:     FinalizerPending,
		},
		release: release,
	}
	s.finalizers = append(s.finalizers, f)
	s.mu.Unlock()

	s.logger.Debugf("finalizer %q added", name)
	s.finalizerChanged(f.Finalizer)
	return f.ID, nil
}

// RunFinalizers releases the scope, running finalizers last-in first-out.
// It blocks until every finalizer ran, the scope is reset (ErrAborted) or ctx
// is done. Finalizers added during the release are not run by it. Releasing
// a released scope does nothing.
func (s *Scope) RunFinalizers(ctx context.Context) error {
	return s.runFinalizers(ctx, s.generation())
}

// generation identifies the current reset epoch of the scope.
func (s *Scope) generation() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset
}

// runFinalizers releases the scope unless it was reset after gen was taken.
func (s *Scope) runFinalizers(ctx context.Context, gen chan struct{}) error {
	s.mu.Lock()
	if s.reset != gen {
		s.mu.Unlock()
		return ErrAborted
	}
	switch s.state {
	case StateReleasing:
		s.mu.Unlock()
		return ErrReleasing
	case StateReleased:
		s.mu.Unlock()
		return nil
	}
	s.state = StateReleasing
	stack := slices.Clone(s.finalizers)
	reset := gen
	s.mu.Unlock()
	s.changed(StateReleasing)

	for _, f := range slices.Backward(stack) {
		if !s.begin(f, reset) {
			return ErrAborted
		}
		err := s.release(ctx, f, reset)
		switch {
		case errors.Is(err, ErrAborted):
			return err
		case ctx.Err() != nil:
			s.recorder.FinalizerRun(s.id, "interrupted")
			return ctx.Err()
		case err != nil:
			// Cleanup keeps going, a failed finalizer is still done.
			s.logger.WithValues(log.Kv{"err": err}).Warningf("finalizer %q failed", f.Name)
			s.recorder.FinalizerRun(s.id, "failed")
		default:
			s.recorder.FinalizerRun(s.id, "completed")
		}
		if !s.complete(f, reset) {
			return ErrAborted
		}
	}

	s.mu.Lock()
	if s.reset != reset || s.state != StateReleasing {
		s.mu.Unlock()
		return ErrAborted
	}
	s.state = StateReleased
	s.mu.Unlock()
	s.changed(StateReleased)
	return nil
}

func (s *Scope) aborted(reset chan struct{}) bool {
	return s.reset != reset || s.state != StateReleasing
}

func (s *Scope) begin(f *finalizer, reset chan struct{}) bool {
	s.mu.Lock()
	if s.aborted(reset) {
		s.mu.Unlock()
		return false
	}
	f.State = FinalizerRunning
	snap := f.Finalizer
	s.mu.Unlock()

	s.logger.Debugf("running finalizer %q", f.Name)
	s.finalizerChanged(snap)
	return true
}

func (s *Scope) complete(f *finalizer, reset chan struct{}) bool {
	s.mu.Lock()
	if s.aborted(reset) {
		s.mu.Unlock()
		return false
	}
	f.State = FinalizerCompleted
	snap := f.Finalizer
	s.mu.Unlock()

	s.finalizerChanged(snap)
	return true
}

func (s *Scope) release(ctx context.Context, f *finalizer, reset chan struct{}) error {
	if f.release != nil {
		rctx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- f.release(rctx) }()
		select {
		case err := <-done:
			return err
		case <-reset:
			return ErrAborted
		}
	}

	timer := time.NewTimer(s.duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-reset:
		return ErrAborted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the finalizer stack and returns to idle, aborting any release
// in progress.
func (s *Scope) Reset() {
	s.mu.Lock()
	close(s.reset)
	s.reset = make(chan struct{})
	s.state = StateIdle
	s.finalizers = nil
	s.mu.Unlock()

	s.changed(StateIdle)
}

func (s *Scope) changed(state State) {
	s.logger.Debugf("scope %s", state)
	if s.publisher != nil {
		s.publisher.Publish(events.TopicScope, events.ScopeStateEvent{
			ScopeID:   s.id,
			State:     string(state),
			Timestamp: time.Now(),
		})
	}
	s.listeners.Notify()
}

func (s *Scope) finalizerChanged(f Finalizer) {
	if s.publisher != nil {
		s.publisher.Publish(events.TopicScope, events.FinalizerEvent{
			ScopeID:     s.id,
			FinalizerID: f.ID,
			Name:        f.Name,
			State:       string(f.State),
			Timestamp:   time.Now(),
		})
	}
	s.listeners.Notify()
}
