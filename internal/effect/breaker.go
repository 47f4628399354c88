package effect

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures NewBreaker.
type BreakerSettings struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown      time.Duration
	OnStateChange func(from, to gobreaker.State)
}

// NewBreaker builds a circuit breaker. Interruptions and defects do not count
// as failures.
func NewBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	if s.MaxFailures == 0 {
		s.MaxFailures = 3
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsInterrupted(err) || IsDefect(err)
		},
	}
	if s.OnStateChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			s.OnStateChange(from, to)
		}
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// WithBreaker runs eff through cb. While cb is open eff is not run and the
// effect fails with gobreaker.ErrOpenState.
func WithBreaker[A any](cb *gobreaker.CircuitBreaker, eff Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		v, err := cb.Execute(func() (interface{}, error) {
			return eff(ctx)
		})
		if err != nil {
			var zero A
			return zero, err
		}
		a, _ := v.(A)
		return a, nil
	}
}

// BreakerRegistry hands out one breaker per name.
type BreakerRegistry struct {
	defaults BreakerSettings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates a registry whose breakers use defaults.
func NewBreakerRegistry(defaults BreakerSettings) *BreakerRegistry {
	return &BreakerRegistry{
		defaults: defaults,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *BreakerRegistry) Get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	s := r.defaults
	s.Name = name
	cb := NewBreaker(s)
	r.breakers[name] = cb
	return cb
}
