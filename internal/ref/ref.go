// Package ref provides an observable value cell that flags recent changes so
// renderers can flash it.
package ref

import (
	"fmt"
	"sync"
	"time"

	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
	"github.com/aristath/visualeffect/internal/observe"
)

// DefaultFlashDelay is how long JustChanged stays set after an update.
const DefaultFlashDelay = 50 * time.Millisecond

// Node is the type-erased surface of a Ref used by renderers.
type Node interface {
	Name() string
	Snapshot() Snapshot
	Reset()
	Subscribe(fn func()) (unsubscribe func())
}

// Snapshot is a type-erased view of a Ref.
type Snapshot struct {
	Name        string
	Value       any
	JustChanged bool
}

// cell is the storage behind a Ref. It is created on first access and
// dropped on reset.
type cell[A any] struct {
	mu    sync.Mutex
	value A
}

func (c *cell[A]) update(fn func(A) A) A {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	return c.value
}

func (c *cell[A]) get() A {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type options struct {
	flash     time.Duration
	logger    log.Logger
	publisher events.Publisher
	recorder  metrics.Recorder
}

// Option configures a Ref.
type Option func(*options)

// WithFlashDelay sets how long JustChanged stays set after an update.
func WithFlashDelay(d time.Duration) Option {
	return func(o *options) { o.flash = d }
}

// WithLogger sets the logger. Defaults to log.Noop.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPublisher publishes change events to p.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithRecorder counts value changes on r.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// Ref is a named observable value.
type Ref[A comparable] struct {
	name    string
	initial A
	flash   time.Duration
	logger  log.Logger
	pub     events.Publisher
	rec     metrics.Recorder

	mu          sync.Mutex
	cell        *cell[A]
	current     A
	justChanged bool
	timer       *time.Timer
	flashSeq    uint64
	listeners   observe.Listeners
}

// New creates a ref holding initial.
func New[A comparable](name string, initial A, opts ...Option) *Ref[A] {
	o := options{flash: DefaultFlashDelay}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Noop
	}
	if o.recorder == nil {
		o.recorder = metrics.Noop
	}
	if o.flash <= 0 {
		o.flash = DefaultFlashDelay
	}
	return &Ref[A]{
		name:    name,
		initial: initial,
		flash:   o.flash,
		logger:  o.logger.WithValues(log.Kv{"ref": name}),
		pub:     o.publisher,
		rec:     o.recorder,
		current: initial,
	}
}

func (r *Ref[A]) Name() string { return r.name }

// Value returns the last observed value without touching the cell.
func (r *Ref[A]) Value() A {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// JustChanged reports whether the value changed within the flash delay.
func (r *Ref[A]) JustChanged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.justChanged
}

func (r *Ref[A]) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Name: r.name, Value: r.current, JustChanged: r.justChanged}
}

func (r *Ref[A]) Subscribe(fn func()) func() {
	return r.listeners.Add(fn)
}

func (r *Ref[A]) storage() *cell[A] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cell == nil {
		r.cell = &cell[A]{value: r.initial}
	}
	return r.cell
}

// Get reads the value through the cell.
func (r *Ref[A]) Get() A {
	return r.storage().get()
}

// Set stores v in the cell and publishes it.
func (r *Ref[A]) Set(v A) {
	r.storage().update(func(A) A { return v })
	r.UpdateValue(v)
}

// UpdateAndGet atomically applies fn to the cell and returns the new value.
func (r *Ref[A]) UpdateAndGet(fn func(A) A) A {
	v := r.storage().update(fn)
	r.UpdateValue(v)
	return v
}

// UpdateValue publishes v as the current value. Equal values are ignored.
// A change sets JustChanged and (re)schedules its clear after the flash delay,
// so listeners hear about the value now and about the flash ending later.
func (r *Ref[A]) UpdateValue(v A) {
	r.mu.Lock()
	if r.current == v {
		r.mu.Unlock()
		return
	}
	r.current = v
	r.justChanged = true
	r.stopFlashLocked()
	seq := r.flashSeq
	r.timer = time.AfterFunc(r.flash, func() { r.clearFlash(seq) })
	r.mu.Unlock()

	r.logger.Debugf("value %v", v)
	r.rec.RefUpdate(r.name)
	r.changed(v, true)
}

func (r *Ref[A]) clearFlash(seq uint64) {
	r.mu.Lock()
	if r.flashSeq != seq || !r.justChanged {
		r.mu.Unlock()
		return
	}
	r.justChanged = false
	r.timer = nil
	v := r.current
	r.mu.Unlock()

	r.changed(v, false)
}

func (r *Ref[A]) stopFlashLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.flashSeq++
}

// Reset restores the initial value, clears the flash and drops the cell.
func (r *Ref[A]) Reset() {
	r.mu.Lock()
	r.stopFlashLocked()
	r.current = r.initial
	r.justChanged = false
	r.cell = nil
	v := r.current
	r.mu.Unlock()

	r.changed(v, false)
}

func (r *Ref[A]) changed(v A, justChanged bool) {
	if r.pub != nil {
		r.pub.Publish(events.TopicRef, events.RefChangedEvent{
			Name:        r.name,
			Value:       fmt.Sprint(v),
			JustChanged: justChanged,
			Timestamp:   time.Now(),
		})
	}
	r.listeners.Notify()
}
