package catalog

import (
	"slices"
)

// Section groups examples in the playground.
type Section string

const (
	SectionConstructors  Section = "constructors"
	SectionConcurrency   Section = "concurrency"
	SectionErrorHandling Section = "error handling"
	SectionSchedule      Section = "schedule"
	SectionRef           Section = "ref"
	SectionScope         Section = "scope"
)

// Sections lists every section in display order.
var Sections = []Section{
	SectionConstructors,
	SectionConcurrency,
	SectionErrorHandling,
	SectionSchedule,
	SectionRef,
	SectionScope,
}

// Metadata describes one example.
type Metadata struct {
	ID          string
	Name        string
	Variant     string
	Description string
	Section     Section
	// Options are the selectable settings of the example. The first one is
	// the default.
	Options []string
}

// Title is the name with its variant, if any.
func (m Metadata) Title() string {
	if m.Variant == "" {
		return m.Name
	}
	return m.Name + " (" + m.Variant + ")"
}

// Examples are listed in the order they should appear.
var manifest = []Metadata{
	{
		ID:          "effect-succeed",
		Name:        "Effect.succeed",
		Description: "Create an effect that always succeeds with a given value",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-fail",
		Name:        "Effect.fail",
		Description: "Create an effect that represents a recoverable error",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-die",
		Name:        "Effect.die",
		Description: "Create an effect that terminates with an unrecoverable defect",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-sync",
		Name:        "Effect.sync",
		Description: "Create an effect from a synchronous side-effectful computation",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-promise",
		Name:        "Effect.promise",
		Description: "Create an effect from an asynchronous computation guaranteed to succeed",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-sleep",
		Name:        "Effect.sleep",
		Description: "Create an effect that suspends execution for a given duration",
		Section:     SectionConstructors,
	},
	{
		ID:          "effect-all",
		Name:        "Effect.all",
		Description: "Combine multiple effects into one, returning results based on input structure",
		Section:     SectionConcurrency,
		Options:     []string{ConcurrencySequential, ConcurrencyBounded, ConcurrencyUnbounded},
	},
	{
		ID:          "effect-race",
		Name:        "Effect.race",
		Description: "Race two effects and return the result of the first successful one",
		Section:     SectionConcurrency,
	},
	{
		ID:          "effect-raceall",
		Name:        "Effect.raceAll",
		Description: "Race multiple effects and return the first successful result",
		Section:     SectionConcurrency,
	},
	{
		ID:          "effect-foreach",
		Name:        "Effect.forEach",
		Description: "Execute an effectful operation for each element in an iterable",
		Section:     SectionConcurrency,
	},
	{
		ID:          "effect-fork",
		Name:        "Effect.fork",
		Description: "Run an effect concurrently in a background fiber",
		Section:     SectionConcurrency,
	},
	{
		ID:          "effect-all-short-circuit",
		Name:        "Effect.all",
		Variant:     "short circuit",
		Description: "Stop execution on the first error encountered",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-orelse",
		Name:        "Effect.orElse",
		Description: "Try one effect, and if it fails, fall back to another effect",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-timeout",
		Name:        "Effect.timeout",
		Description: "Add a time limit to an effect, failing with timeout if exceeded",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-eventually",
		Name:        "Effect.eventually",
		Description: "Run an effect repeatedly until it succeeds, ignoring errors",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-partition",
		Name:        "Effect.partition",
		Description: "Execute effects and partition results into successes and failures",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-validate",
		Name:        "Effect.validate",
		Description: "Accumulate validation errors instead of short-circuiting",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-circuit-breaker",
		Name:        "CircuitBreaker",
		Description: "Stop calling a failing dependency until it has had time to recover",
		Section:     SectionErrorHandling,
	},
	{
		ID:          "effect-repeat-spaced",
		Name:        "Effect.repeat",
		Variant:     "spaced",
		Description: "Repeat an effect with a fixed delay between each execution",
		Section:     SectionSchedule,
	},
	{
		ID:          "effect-repeat-while-output",
		Name:        "Effect.repeat",
		Variant:     "whileOutput",
		Description: "Repeat while output matches a condition",
		Section:     SectionSchedule,
	},
	{
		ID:          "effect-retry-recurs",
		Name:        "Effect.retry",
		Variant:     "recurs",
		Description: "Retry an effect a fixed number of times",
		Section:     SectionSchedule,
	},
	{
		ID:          "effect-retry-exponential",
		Name:        "Effect.retry",
		Variant:     "exponential",
		Description: "Retry with exponential backoff",
		Section:     SectionSchedule,
	},
	{
		ID:          "ref-make",
		Name:        "Ref.make",
		Description: "Create a concurrency-safe mutable reference",
		Section:     SectionRef,
	},
	{
		ID:          "ref-update-and-get",
		Name:        "Ref.updateAndGet",
		Description: "Update a ref and return the new value",
		Section:     SectionRef,
	},
	{
		ID:          "effect-add-finalizer",
		Name:        "Effect.addFinalizer",
		Description: "Register cleanup actions in a scope",
		Section:     SectionScope,
		Options:     []string{OutcomeSucceed, OutcomeFail, OutcomeDie, OutcomeInterrupt},
	},
	{
		ID:          "effect-acquire-release",
		Name:        "Effect.acquireRelease",
		Description: "Acquire resources with guaranteed cleanup",
		Section:     SectionScope,
	},
}

// Manifest returns every example in display order.
func Manifest() []Metadata {
	out := make([]Metadata, len(manifest))
	for i, m := range manifest {
		m.Options = slices.Clone(m.Options)
		out[i] = m
	}
	return out
}

// Lookup returns the metadata of the example with the given id.
func Lookup(id string) (Metadata, bool) {
	i := slices.IndexFunc(manifest, func(m Metadata) bool { return m.ID == id })
	if i < 0 {
		return Metadata{}, false
	}
	m := manifest[i]
	m.Options = slices.Clone(m.Options)
	return m, true
}

// InSection returns the examples of s in display order.
func InSection(s Section) []Metadata {
	var out []Metadata
	for _, m := range Manifest() {
		if m.Section == s {
			out = append(out, m)
		}
	}
	return out
}
