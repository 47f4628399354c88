// Package observe holds the listener set shared by tasks, scopes and refs.
package observe

import (
	"slices"
	"sync"
)

type listener struct {
	id uint64
	fn func()
}

// Listeners is a set of change callbacks. The zero value is ready to use.
type Listeners struct {
	mu   sync.Mutex
	next uint64
	list []listener
}

// Add registers fn and returns an idempotent function that removes it.
func (l *Listeners) Add(fn func()) (remove func()) {
	l.mu.Lock()
	l.next++
	id := l.next
	l.list = append(l.list, listener{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.list = slices.DeleteFunc(l.list, func(e listener) bool { return e.id == id })
		})
	}
}

// Notify calls every registered listener in registration order.
// Listeners run on the caller's goroutine without any lock held, so they may
// read the observed value or add and remove listeners.
func (l *Listeners) Notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.list))
	for _, e := range l.list {
		fns = append(fns, e.fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.list)
}
