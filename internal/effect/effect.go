package effect

import (
	"context"
	"errors"
	"time"
)

// Effect is a lazy computation. Implementations must honour ctx cancellation.
type Effect[A any] func(ctx context.Context) (A, error)

// Succeed returns an effect that yields a.
func Succeed[A any](a A) Effect[A] {
	return func(context.Context) (A, error) { return a, nil }
}

// Fail returns an effect that fails with err.
func Fail[A any](err error) Effect[A] {
	return func(context.Context) (A, error) {
		var zero A
		return zero, err
	}
}

// Die returns an effect that fails with an unrecoverable defect.
func Die[A any](err error) Effect[A] {
	return func(context.Context) (A, error) {
		var zero A
		return zero, NewDefect(err)
	}
}

// Sync lifts a synchronous function. Panics become defects.
func Sync[A any](fn func() A) Effect[A] {
	return func(context.Context) (a A, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = defectFromPanic(r)
			}
		}()
		return fn(), nil
	}
}

// Try lifts a synchronous function that can fail.
func Try[A any](fn func() (A, error)) Effect[A] {
	return func(context.Context) (A, error) { return fn() }
}

// Promise adapts a function that returns a channel delivering exactly one
// result, as produced by callback based APIs.
func Promise[A any](fn func(ctx context.Context) <-chan Result[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		select {
		case r := <-fn(ctx):
			return r.Value, r.Err
		case <-ctx.Done():
			var zero A
			return zero, ErrInterrupted
		}
	}
}

// Result is a value or an error.
type Result[A any] struct {
	Value A
	Err   error
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// Delay runs eff after d.
func Delay[A any](d time.Duration, eff Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		if err := Sleep(ctx, d); err != nil {
			var zero A
			return zero, err
		}
		return eff(ctx)
	}
}

// Map transforms the success value of eff.
func Map[A, B any](eff Effect[A], fn func(A) B) Effect[B] {
	return func(ctx context.Context) (B, error) {
		a, err := eff(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return fn(a), nil
	}
}

// AndThen sequences fn after eff.
func AndThen[A, B any](eff Effect[A], fn func(A) Effect[B]) Effect[B] {
	return func(ctx context.Context) (B, error) {
		a, err := eff(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return fn(a)(ctx)
	}
}

// Tap runs fn for its effect on success and keeps the original value.
func Tap[A any](eff Effect[A], fn func(A)) Effect[A] {
	return func(ctx context.Context) (A, error) {
		a, err := eff(ctx)
		if err == nil {
			fn(a)
		}
		return a, err
	}
}

// Ensuring runs finalizer after eff regardless of its outcome.
func Ensuring[A any](eff Effect[A], finalizer func()) Effect[A] {
	return func(ctx context.Context) (A, error) {
		defer finalizer()
		return eff(ctx)
	}
}

// OrElse falls back to fallback when eff fails. Defects and interruptions
// are not recovered.
func OrElse[A any](eff Effect[A], fallback Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		a, err := eff(ctx)
		if err == nil || IsDefect(err) || IsInterrupted(err) || ctx.Err() != nil {
			return a, err
		}
		return fallback(ctx)
	}
}

// OrElseFail replaces a failure of eff with the error built by fn.
func OrElseFail[A any](eff Effect[A], fn func(error) error) Effect[A] {
	return func(ctx context.Context) (A, error) {
		a, err := eff(ctx)
		if err == nil || IsDefect(err) || IsInterrupted(err) {
			return a, err
		}
		return a, fn(err)
	}
}

// Timeout fails with ErrTimeout when eff does not finish within d.
// eff is interrupted when the limit is hit.
func Timeout[A any](eff Effect[A], d time.Duration) Effect[A] {
	return func(ctx context.Context) (A, error) {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		a, err := eff(tctx)
		if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			var zero A
			return zero, ErrTimeout
		}
		return a, err
	}
}

// Forever repeats eff until it fails or ctx is done.
func Forever[A any](eff Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		for {
			if _, err := eff(ctx); err != nil {
				var zero A
				return zero, err
			}
			if ctx.Err() != nil {
				var zero A
				return zero, ErrInterrupted
			}
		}
	}
}
