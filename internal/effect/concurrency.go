package effect

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Concurrency bounds how many effects a collection combinator runs at once.
type Concurrency int

const (
	Sequential Concurrency = 1
	Unbounded  Concurrency = -1
)

func (c Concurrency) limit() int {
	if c <= 0 {
		return -1
	}
	return int(c)
}

// All runs effs and collects their results in order. The first failure
// interrupts the effects still running and effects not yet started never run.
func All[A any](concurrency Concurrency, effs ...Effect[A]) Effect[[]A] {
	return func(ctx context.Context) ([]A, error) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency.limit())

		out := make([]A, len(effs))
		for i, eff := range effs {
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				a, err := protect(gctx, eff)
				if err != nil {
					return err
				}
				out[i] = a
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ErrInterrupted
		}
		return out, nil
	}
}

// ForEach applies fn to every item and runs the resulting effects like All.
func ForEach[A, B any](concurrency Concurrency, items []A, fn func(A) Effect[B]) Effect[[]B] {
	effs := make([]Effect[B], len(items))
	for i, item := range items {
		effs[i] = fn(item)
	}
	return All(concurrency, effs...)
}

// Partitioned holds the outcome of Partition.
type Partitioned[A any] struct {
	Failures  []error
	Successes []A
}

// Partition runs every effect and splits failures from successes.
// It only fails on defects or interruption.
func Partition[A any](concurrency Concurrency, effs ...Effect[A]) Effect[Partitioned[A]] {
	return func(ctx context.Context) (Partitioned[A], error) {
		results, err := settleAll(ctx, concurrency, effs)
		if err != nil {
			return Partitioned[A]{}, err
		}
		var p Partitioned[A]
		for _, r := range results {
			if r.Err != nil {
				p.Failures = append(p.Failures, r.Err)
				continue
			}
			p.Successes = append(p.Successes, r.Value)
		}
		return p, nil
	}
}

// Validate runs every effect and fails with a *ValidationError listing all
// failures, or succeeds with every value.
func Validate[A any](concurrency Concurrency, effs ...Effect[A]) Effect[[]A] {
	return func(ctx context.Context) ([]A, error) {
		results, err := settleAll(ctx, concurrency, effs)
		if err != nil {
			return nil, err
		}
		var (
			out  = make([]A, 0, len(results))
			errs []error
		)
		for _, r := range results {
			if r.Err != nil {
				errs = append(errs, r.Err)
				continue
			}
			out = append(out, r.Value)
		}
		if len(errs) > 0 {
			return nil, &ValidationError{Errors: errs}
		}
		return out, nil
	}
}

// settleAll runs every effect to completion. Only defects stop the others.
func settleAll[A any](ctx context.Context, concurrency Concurrency, effs []Effect[A]) ([]Result[A], error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency.limit())

	results := make([]Result[A], len(effs))
	for i, eff := range effs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			a, err := protect(gctx, eff)
			if IsDefect(err) {
				return err
			}
			results[i] = Result[A]{Value: a, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ErrInterrupted
	}
	return results, nil
}

// Race returns the first of a and b to succeed and interrupts the other.
func Race[A any](a, b Effect[A]) Effect[A] {
	return RaceAll(a, b)
}

// RaceAll returns the first effect to succeed. Losers are interrupted and
// awaited before it returns. When every effect fails the errors are joined.
func RaceAll[A any](effs ...Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		var zero A
		if len(effs) == 0 {
			return zero, errors.New("race: no effects")
		}

		rctx, cancel := context.WithCancel(ctx)
		defer cancel()

		type outcome struct {
			index int
			value A
			err   error
		}
		results := make(chan outcome, len(effs))
		var wg sync.WaitGroup
		for i, eff := range effs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a, err := protect(rctx, eff)
				results <- outcome{index: i, value: a, err: err}
			}()
		}

		errs := make([]error, len(effs))
		for range effs {
			r := <-results
			switch {
			case r.err == nil:
				cancel()
				wg.Wait()
				return r.value, nil
			case IsDefect(r.err):
				// A defect ends the race even when another effect could still win.
				cancel()
				wg.Wait()
				return zero, r.err
			}
			errs[r.index] = r.err
		}
		return zero, errors.Join(errs...)
	}
}

// Fiber is a handle on a forked effect.
type Fiber[A any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	value  A
	err    error
}

// Fork starts eff in the background. The fiber is interrupted when ctx is done.
func Fork[A any](ctx context.Context, eff Effect[A]) *Fiber[A] {
	fctx, cancel := context.WithCancel(ctx)
	f := &Fiber[A]{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer cancel()
		f.value, f.err = protect(fctx, eff)
	}()
	return f
}

// Interrupt cancels the fiber and waits for it to stop.
func (f *Fiber[A]) Interrupt() {
	f.cancel()
	<-f.done
}

// Join waits for the fiber's result.
func (f *Fiber[A]) Join(ctx context.Context) (A, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero A
		return zero, ErrInterrupted
	}
}

// Done is closed when the fiber has stopped.
func (f *Fiber[A]) Done() <-chan struct{} { return f.done }

// Erase widens eff to Effect[any] so heterogeneous effects can be combined.
func Erase[A any](eff Effect[A]) Effect[any] {
	return func(ctx context.Context) (any, error) { return eff(ctx) }
}
