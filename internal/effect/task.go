package effect

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
	"github.com/aristath/visualeffect/internal/observe"
)

// Node is the type-erased surface of a Task used by parents, scopes and renderers.
type Node interface {
	Name() string
	Snapshot() Snapshot
	// Start begins an execution when idle. The returned channel is closed
	// once the execution it refers to has settled.
	Start(ctx context.Context) <-chan struct{}
	// Wait blocks until the in-flight execution, if any, settles.
	Wait(ctx context.Context) error
	Interrupt()
	Reset()
	Notify(message string, d time.Duration)
	// Subscribe registers fn to be called after every observable change and
	// returns a function that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// execution is one run of a task's computation.
type execution[A any] struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
	parent *link
	// closing is set once the execution stops accepting children.
	closing bool

	// value and err are written before done is closed.
	value A
	err   error
}

// Task is an observable wrapper around a single computation.
type Task[A any] struct {
	name      string
	effect    Effect[A]
	showTimer bool
	notifyDur time.Duration
	logger    log.Logger
	publisher events.Publisher
	recorder  metrics.Recorder
	tracer    trace.Tracer

	mu           sync.Mutex
	state        State[A]
	exec         *execution[A]
	seq          uint64
	children     []Node
	notification *Notification
	notifyTimer  *time.Timer
	notifySeq    uint64
	listeners    observe.Listeners
}

// New creates an idle task around eff.
func New[A any](name string, eff Effect[A], opts ...Option) *Task[A] {
	o := newOptions(opts)
	return &Task[A]{
		name:      name,
		effect:    eff,
		showTimer: o.showTimer,
		notifyDur: o.notificationDuration,
		logger:    o.logger.WithValues(log.Kv{"task": name}),
		publisher: o.publisher,
		recorder:  o.recorder,
		tracer:    o.tracer,
		state:     State[A]{Type: StateIdle},
	}
}

func (t *Task[A]) Name() string { return t.name }

// ShowTimer reports whether renderers should display elapsed time.
func (t *Task[A]) ShowTimer() bool { return t.showTimer }

// State returns the current state.
func (t *Task[A]) State() State[A] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Notification returns the active notification, or nil.
func (t *Task[A]) Notification() *Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notification == nil {
		return nil
	}
	n := *t.notification
	return &n
}

func (t *Task[A]) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Snapshot{
		Name:       t.name,
		Type:       t.state.Type,
		Err:        t.state.Err,
		ShowTimer:  t.showTimer,
		StartedAt:  t.state.StartedAt,
		FinishedAt: t.state.FinishedAt,
		Children:   len(t.children),
	}
	if t.state.Type == StateCompleted {
		s.Result = t.state.Result
	}
	if t.notification != nil {
		n := *t.notification
		s.Notification = &n
	}
	return s
}

// Children returns the tasks registered under the current execution.
func (t *Task[A]) Children() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.children)
}

// Effect returns the computation to compose with other effects.
// A completed task yields its memoized result. Otherwise running the returned
// effect joins the in-flight execution, or starts a new one.
func (t *Task[A]) Effect() Effect[A] {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Type == StateCompleted {
		return Succeed(t.state.Result)
	}
	return t.run
}

// Run executes t.Effect() with ctx.
func (t *Task[A]) Run(ctx context.Context) (A, error) {
	return t.Effect()(ctx)
}

func (t *Task[A]) Start(ctx context.Context) <-chan struct{} {
	t.mu.Lock()
	if t.state.Type != StateIdle {
		done := closedDone
		if t.exec != nil {
			done = t.exec.done
		}
		t.mu.Unlock()
		return done
	}
	ex, runCtx := t.beginLocked(ctx)
	t.mu.Unlock()

	t.launch(ctx, runCtx, ex)
	return ex.done
}

// Wait blocks until the current execution settles or ctx is done.
// It returns immediately when the task is not running.
func (t *Task[A]) Wait(ctx context.Context) error {
	t.mu.Lock()
	ex := t.exec
	t.mu.Unlock()
	if ex == nil {
		return nil
	}
	select {
	case <-ex.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task[A]) run(ctx context.Context) (A, error) {
	t.mu.Lock()
	if t.state.Type == StateCompleted {
		v := t.state.Result
		t.mu.Unlock()
		return v, nil
	}
	if ex := t.exec; ex != nil {
		t.mu.Unlock()
		select {
		case <-ex.done:
			return ex.value, ex.err
		case <-ctx.Done():
			var zero A
			return zero, ErrInterrupted
		}
	}
	ex, runCtx := t.beginLocked(ctx)
	t.mu.Unlock()

	t.launch(ctx, runCtx, ex)
	// The execution derives from ctx, so cancellation reaches it.
	<-ex.done
	return ex.value, ex.err
}

func (t *Task[A]) beginLocked(ctx context.Context) (*execution[A], context.Context) {
	t.seq++
	runCtx, cancel := context.WithCancel(ctx)
	ex := &execution[A]{
		id:     t.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	runCtx = withParent(runCtx, link{parent: t, execID: ex.id})

	from := t.state.Type
	t.exec = ex
	t.children = nil
	t.state = State[A]{Type: StateRunning, StartedAt: time.Now()}
	t.emitLocked(from, StateRunning, nil, 0)
	return ex, runCtx
}

// launch attaches ex to the current parent and runs it, unless a reset or an
// interruption already detached it.
func (t *Task[A]) launch(ctx, runCtx context.Context, ex *execution[A]) {
	l, ok := parentFrom(ctx)
	registered := ok && l.parent != registrar(t) && l.parent.register(l.execID, t)

	t.mu.Lock()
	attached := t.exec == ex
	if attached && registered {
		ex.parent = &l
	}
	t.mu.Unlock()

	t.listeners.Notify()
	if !attached {
		if registered {
			l.parent.deregister(t)
		}
		t.discard(ex)
		return
	}
	go t.execute(runCtx, ex)
}

func (t *Task[A]) execute(ctx context.Context, ex *execution[A]) {
	ctx, span := t.tracer.Start(ctx, "task "+t.name,
		trace.WithAttributes(attribute.String("task.name", t.name)))

	value, err := t.invoke(ctx)
	t.settle(ctx, ex, span, value, err)
}

// endSpan closes the execution span with its outcome, "" meaning superseded.
func endSpan(span trace.Span, outcome StateType, err error) {
	defer span.End()
	if outcome == "" {
		span.SetAttributes(attribute.Bool("task.superseded", true))
		return
	}
	span.SetAttributes(attribute.String("task.outcome", string(outcome)))
	if outcome == StateFailed || outcome == StateDeath {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (t *Task[A]) invoke(ctx context.Context) (A, error) {
	return protect(ctx, t.effect)
}

// settle records the outcome of ex unless a reset or interruption already
// replaced it. The span ends before waiters on ex are released.
func (t *Task[A]) settle(ctx context.Context, ex *execution[A], span trace.Span, value A, err error) {
	typ := classify(ctx, err)

	t.mu.Lock()
	if t.exec != ex {
		t.mu.Unlock()
		endSpan(span, "", nil)
		t.discard(ex)
		return
	}
	ex.closing = true
	children := slices.Clone(t.children)
	t.mu.Unlock()

	// Children still running when the parent settles are interrupted first.
	for _, child := range children {
		child.Interrupt()
	}

	t.mu.Lock()
	if t.exec != ex {
		t.mu.Unlock()
		endSpan(span, "", nil)
		t.discard(ex)
		return
	}
	next := State[A]{Type: typ, StartedAt: t.state.StartedAt, FinishedAt: time.Now()}
	switch typ {
	case StateCompleted:
		next.Result = value
		ex.value = value
	case StateInterrupted:
		ex.err = ErrInterrupted
	default:
		next.Err = err
		ex.err = err
	}
	t.exec = nil
	t.state = next
	parent := ex.parent
	t.emitLocked(StateRunning, typ, next.Err, next.FinishedAt.Sub(next.StartedAt))
	t.mu.Unlock()

	ex.cancel()
	endSpan(span, typ, next.Err)
	close(ex.done)
	if parent != nil {
		parent.parent.deregister(t)
	}
	t.listeners.Notify()
}

func (t *Task[A]) discard(ex *execution[A]) {
	ex.err = ErrInterrupted
	close(ex.done)
}

// Interrupt cancels a running execution and moves the task to interrupted.
// Running children are interrupted too. It is a no-op unless running.
func (t *Task[A]) Interrupt() {
	t.mu.Lock()
	ex := t.exec
	if ex == nil {
		t.mu.Unlock()
		return
	}
	ex.closing = true
	children := slices.Clone(t.children)
	parent := ex.parent
	now := time.Now()
	started := t.state.StartedAt
	t.exec = nil
	t.state = State[A]{Type: StateInterrupted, StartedAt: started, FinishedAt: now}
	t.emitLocked(StateRunning, StateInterrupted, nil, now.Sub(started))
	t.mu.Unlock()

	for _, child := range children {
		child.Interrupt()
	}
	ex.cancel()
	if parent != nil {
		parent.parent.deregister(t)
	}
	t.listeners.Notify()
}

// Reset returns the task to idle from any state, dropping the memoized
// result and the notification, and resets every child. A reset always wins
// over an execution that is still settling.
func (t *Task[A]) Reset() {
	t.mu.Lock()
	ex := t.exec
	var parent *link
	if ex != nil {
		ex.closing = true
		parent = ex.parent
	}
	children := t.children
	from := t.state.Type
	t.exec = nil
	t.children = nil
	t.state = State[A]{Type: StateIdle}
	if t.notification != nil {
		t.publishNotification(t.notification.Message, true)
	}
	t.clearNotificationLocked()
	if from != StateIdle {
		t.emitLocked(from, StateIdle, nil, 0)
	}
	t.mu.Unlock()

	// Children go idle before cancellation reaches them.
	for _, child := range children {
		child.Reset()
	}
	if ex != nil {
		ex.cancel()
	}
	if parent != nil {
		parent.parent.deregister(t)
	}
	t.listeners.Notify()
}

// Notify attaches message to the task for d, replacing any active notification.
// A non-positive d uses the configured default.
func (t *Task[A]) Notify(message string, d time.Duration) {
	if d <= 0 {
		d = t.notifyDur
	}
	t.mu.Lock()
	t.clearNotificationLocked()
	seq := t.notifySeq
	t.notification = &Notification{Message: message, Duration: d, CreatedAt: time.Now()}
	t.notifyTimer = time.AfterFunc(d, func() { t.expireNotification(seq) })
	t.mu.Unlock()

	t.publishNotification(message, false)
	t.listeners.Notify()
}

func (t *Task[A]) expireNotification(seq uint64) {
	t.mu.Lock()
	if t.notifySeq != seq || t.notification == nil {
		t.mu.Unlock()
		return
	}
	message := t.notification.Message
	t.notification = nil
	t.notifyTimer = nil
	t.mu.Unlock()

	t.publishNotification(message, true)
	t.listeners.Notify()
}

func (t *Task[A]) clearNotificationLocked() {
	if t.notifyTimer != nil {
		t.notifyTimer.Stop()
		t.notifyTimer = nil
	}
	t.notifySeq++
	t.notification = nil
}

func (t *Task[A]) Subscribe(fn func()) func() {
	return t.listeners.Add(fn)
}

// emitLocked logs, records and publishes a transition. It runs with t.mu held
// so events leave in the order the state changed. Listeners are notified by
// the caller once the lock is released.
func (t *Task[A]) emitLocked(from, to StateType, err error, d time.Duration) {
	if err != nil {
		t.logger.WithValues(log.Kv{"err": err}).Debugf("%s -> %s", from, to)
	} else {
		t.logger.Debugf("%s -> %s", from, to)
	}

	t.recorder.TaskTransition(t.name, string(from), string(to))
	if to.Terminal() {
		t.recorder.TaskRun(t.name, string(to), d)
	}
	if t.publisher != nil {
		t.publisher.Publish(events.TopicTask, events.TaskStateEvent{
			Name:      t.name,
			From:      string(from),
			To:        string(to),
			Err:       err,
			Duration:  d,
			Timestamp: time.Now(),
		})
	}
}

func (t *Task[A]) publishNotification(message string, cleared bool) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(events.TopicTask, events.TaskNotificationEvent{
		Name:      t.name,
		Message:   message,
		Cleared:   cleared,
		Timestamp: time.Now(),
	})
}

func (t *Task[A]) register(execID uint64, child Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exec == nil || t.exec.id != execID || t.exec.closing {
		return false
	}
	if !slices.Contains(t.children, child) {
		t.children = append(t.children, child)
	}
	return true
}

func (t *Task[A]) deregister(child Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children = slices.DeleteFunc(t.children, func(n Node) bool { return n == child })
}

func (t *Task[A]) String() string {
	s := t.State()
	return fmt.Sprintf("%s(%s)", t.name, s.Type)
}
