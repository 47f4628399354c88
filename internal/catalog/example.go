// Package catalog builds the playground examples: each one wires tasks,
// scopes and refs around a single combinator and describes how they depend
// on each other.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/ref"
	"github.com/aristath/visualeffect/internal/scope"
)

// ErrUnknownExample is returned by Build for an id missing from the manifest.
var ErrUnknownExample = errors.New("unknown example")

// Example is a built, runnable demo.
type Example struct {
	Metadata
	// Option is the selected entry of Metadata.Options, if any.
	Option string
	Code   string
	Inputs []effect.Node
	// Result composes the inputs. It is nil for single task examples.
	Result effect.Node
	Scope  *scope.Scope
	Refs   []ref.Node
	Graph  *Graph

	onReset []func()
	stops   []func()
}

type builder func(ctx context.Context, env Env, option string) *Example

var builders = map[string]builder{
	"effect-succeed":             buildSucceed,
	"effect-fail":                buildFail,
	"effect-die":                 buildDie,
	"effect-sync":                buildSync,
	"effect-promise":             buildPromise,
	"effect-sleep":               buildSleep,
	"effect-all":                 buildAll,
	"effect-race":                buildRace,
	"effect-raceall":             buildRaceAll,
	"effect-foreach":             buildForEach,
	"effect-fork":                buildFork,
	"effect-all-short-circuit":   buildAllShortCircuit,
	"effect-orelse":              buildOrElse,
	"effect-timeout":             buildTimeout,
	"effect-eventually":          buildEventually,
	"effect-partition":           buildPartition,
	"effect-validate":            buildValidate,
	"effect-circuit-breaker":     buildCircuitBreaker,
	"effect-repeat-spaced":       buildRepeatSpaced,
	"effect-repeat-while-output": buildRepeatWhileOutput,
	"effect-retry-recurs":        buildRetryRecurs,
	"effect-retry-exponential":   buildRetryExponential,
	"ref-make":                   buildRefMake,
	"ref-update-and-get":         buildRefUpdateAndGet,
	"effect-add-finalizer":       buildAddFinalizer,
	"effect-acquire-release":     buildAcquireRelease,
}

// Build creates the example with the given id. An empty option selects the
// default one. ctx bounds background work such as finalizer runs.
func Build(ctx context.Context, id string, env Env, option string) (*Example, error) {
	meta, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExample, id)
	}
	build, ok := builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no builder", ErrUnknownExample, id)
	}

	switch {
	case option == "" && len(meta.Options) > 0:
		option = meta.Options[0]
	case option != "" && !slices.Contains(meta.Options, option):
		return nil, fmt.Errorf("example %q has no option %q (options: %v)", id, option, meta.Options)
	}

	env = env.WithDefaults()
	ex := build(ctx, env, option)
	ex.Metadata = meta
	ex.Option = option

	g := NewGraph()
	for _, n := range ex.Inputs {
		if err := g.Add(n.Name()); err != nil {
			return nil, fmt.Errorf("could not lay out %q: %w", id, err)
		}
	}
	if ex.Result != nil {
		deps := make([]string, len(ex.Inputs))
		for i, n := range ex.Inputs {
			deps[i] = n.Name()
		}
		if err := g.Add(ex.Result.Name(), deps...); err != nil {
			return nil, fmt.Errorf("could not lay out %q: %w", id, err)
		}
	}
	if _, err := g.Order(); err != nil {
		return nil, fmt.Errorf("could not lay out %q: %w", id, err)
	}
	ex.Graph = g

	env.Logger.Debugf("built example %s (option %q)", id, option)
	return ex, nil
}

// Root is the task that drives the example: the result task, or the only
// input when there is no result.
func (e *Example) Root() effect.Node {
	if e.Result != nil {
		return e.Result
	}
	return e.Inputs[0]
}

// Nodes returns the inputs followed by the result.
func (e *Example) Nodes() []effect.Node {
	nodes := slices.Clone(e.Inputs)
	if e.Result != nil {
		nodes = append(nodes, e.Result)
	}
	return nodes
}

// Node returns the task called name.
func (e *Example) Node(name string) (effect.Node, bool) {
	for _, n := range e.Nodes() {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Start runs the root task. It is a no-op while the root is not idle.
func (e *Example) Start(ctx context.Context) {
	e.Root().Start(ctx)
}

// Wait blocks until the root task settles or ctx is done.
func (e *Example) Wait(ctx context.Context) error {
	return e.Root().Wait(ctx)
}

// Interrupt interrupts the root task and, through it, every running child.
func (e *Example) Interrupt() {
	e.Root().Interrupt()
}

// Reset returns every task, scope and ref of the example to its initial state.
func (e *Example) Reset() {
	if e.Result != nil {
		e.Result.Reset()
	}
	for _, n := range e.Inputs {
		n.Reset()
	}
	if e.Scope != nil {
		e.Scope.Reset()
	}
	for _, r := range e.Refs {
		r.Reset()
	}
	for _, fn := range e.onReset {
		fn()
	}
}

// DarkMode reports whether the root task died.
func (e *Example) DarkMode() bool {
	return e.Root().Snapshot().Type == effect.StateDeath
}

// Close stops background guards. The example must not be used afterwards.
func (e *Example) Close() {
	for _, stop := range e.stops {
		stop()
	}
	e.stops = nil
}

func newExample(code string, result effect.Node, inputs ...effect.Node) *Example {
	return &Example{
		Code:   code,
		Result: result,
		Inputs: inputs,
	}
}

// guard runs the finalizers of s whenever the root of e settles.
func (e *Example) guard(ctx context.Context, s *scope.Scope) {
	e.Scope = s
	e.stops = append(e.stops, scope.Guard(ctx, s, e.Root()))
}

// rerun resets t and runs it again, so repeating it re-executes the work
// instead of reading the memoized result.
func rerun[A any](t *effect.Task[A]) effect.Effect[A] {
	return func(ctx context.Context) (A, error) {
		t.Reset()
		return t.Run(ctx)
	}
}
