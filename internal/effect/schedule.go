package effect

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Schedule builds a fresh backoff policy for each retried or repeated run.
type Schedule func() backoff.BackOff

// Spaced waits d between recurrences, forever.
func Spaced(d time.Duration) Schedule {
	return func() backoff.BackOff { return backoff.NewConstantBackOff(d) }
}

// Exponential doubles the delay starting from initial, forever.
func Exponential(initial time.Duration) Schedule {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.RandomizationFactor = 0
		b.Multiplier = 2
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
}

// Recurs allows n recurrences without delay.
func Recurs(n int) Schedule {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(max(n, 0)))
	}
}

// Intersect continues while both schedules continue, using the longer delay.
func Intersect(a, b Schedule) Schedule {
	return func() backoff.BackOff { return &intersect{a: a(), b: b()} }
}

type intersect struct {
	a, b backoff.BackOff
}

func (i *intersect) NextBackOff() time.Duration {
	da, db := i.a.NextBackOff(), i.b.NextBackOff()
	if da == backoff.Stop || db == backoff.Stop {
		return backoff.Stop
	}
	return max(da, db)
}

func (i *intersect) Reset() {
	i.a.Reset()
	i.b.Reset()
}

// WhileElapsed continues s until limit has passed since the schedule was built or reset.
func WhileElapsed(s Schedule, limit time.Duration) Schedule {
	return func() backoff.BackOff { return &whileElapsed{next: s(), limit: limit, start: time.Now()} }
}

type whileElapsed struct {
	next  backoff.BackOff
	limit time.Duration
	start time.Time
}

func (w *whileElapsed) NextBackOff() time.Duration {
	if time.Since(w.start) >= w.limit {
		return backoff.Stop
	}
	return w.next.NextBackOff()
}

func (w *whileElapsed) Reset() {
	w.start = time.Now()
	w.next.Reset()
}

// Retry re-runs eff on failure following schedule. Defects, interruption and
// breaker rejections are never retried. When the schedule is exhausted the
// last failure is returned.
func Retry[A any](eff Effect[A], schedule Schedule) Effect[A] {
	return RetryNotify(eff, schedule, nil)
}

// RetryNotify is Retry calling notify before each wait.
func RetryNotify[A any](eff Effect[A], schedule Schedule, notify func(err error, wait time.Duration)) Effect[A] {
	return func(ctx context.Context) (A, error) {
		var out A
		op := func() error {
			a, err := eff(ctx)
			switch {
			case err == nil:
				out = a
				return nil
			case IsDefect(err), IsInterrupted(err), ctx.Err() != nil:
				return backoff.Permanent(err)
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return backoff.Permanent(err)
			default:
				return err
			}
		}

		var err error
		if notify != nil {
			err = backoff.RetryNotify(op, backoff.WithContext(schedule(), ctx), notify)
		} else {
			err = backoff.Retry(op, backoff.WithContext(schedule(), ctx))
		}
		if err != nil {
			var zero A
			if ctx.Err() != nil && !IsDefect(err) {
				return zero, ErrInterrupted
			}
			return zero, err
		}
		return out, nil
	}
}

// Eventually retries eff until it succeeds.
func Eventually[A any](eff Effect[A]) Effect[A] {
	return Retry(eff, func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

// Repeat re-runs eff after each success following schedule and returns the
// last value. A failure stops the repetition.
func Repeat[A any](eff Effect[A], schedule Schedule) Effect[A] {
	return RepeatWhile(eff, schedule, nil)
}

// RepeatWhile is Repeat that also stops once while reports false for a value.
func RepeatWhile[A any](eff Effect[A], schedule Schedule, while func(A) bool) Effect[A] {
	return func(ctx context.Context) (A, error) {
		b := schedule()
		b.Reset()
		for {
			a, err := eff(ctx)
			if err != nil {
				return a, err
			}
			if while != nil && !while(a) {
				return a, nil
			}
			next := b.NextBackOff()
			if next == backoff.Stop {
				return a, nil
			}
			if err := Sleep(ctx, next); err != nil {
				return a, err
			}
		}
	}
}
