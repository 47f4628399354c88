// Package effect implements visual tasks: observable wrappers around a single
// asynchronous computation.
//
// A [Task] exposes its lifecycle (idle, running, completed, failed,
// interrupted, death) to subscribers, memoizes a successful execution until it
// is reset, supports cooperative interruption through context cancellation and
// cascades Reset and Interrupt to every task started from inside its
// computation.
//
// Child registration is carried by the context handed to the computation: a
// task started with a context derived from a running task's context becomes
// that task's child for the duration of the run.
//
// The package also provides the combinators used by the example catalog
// (All, Race, Retry, Repeat, Timeout and friends). They operate on plain
// [Effect] values, so they compose tasks and ordinary computations alike.
package effect
