package effect

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// ErrInterrupted is returned to callers of an execution that was cancelled.
	ErrInterrupted = errors.New("interrupted")
	// ErrTimeout is the failure produced by Timeout when the limit is exceeded.
	ErrTimeout = errors.New("timed out")
)

// Defect is an unrecoverable failure. Tasks settling with a Defect end in death.
type Defect struct {
	Cause error
	Stack []byte
}

func (d *Defect) Error() string {
	return fmt.Sprintf("defect: %v", d.Cause)
}

func (d *Defect) Unwrap() error { return d.Cause }

// NewDefect wraps err as a defect, capturing the current stack.
func NewDefect(err error) *Defect {
	return &Defect{Cause: err, Stack: debug.Stack()}
}

func defectFromPanic(v any) *Defect {
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", v)
	}
	return &Defect{Cause: err, Stack: debug.Stack()}
}

// protect runs eff on the calling goroutine and turns a panic into a Defect.
func protect[A any](ctx context.Context, eff Effect[A]) (a A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = defectFromPanic(r)
		}
	}()
	return eff(ctx)
}

// IsDefect reports whether err carries a Defect.
func IsDefect(err error) bool {
	var d *Defect
	return errors.As(err, &d)
}

// IsInterrupted reports whether err represents cancellation.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
}

// ValidationError accumulates every failure of a Validate run.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error { return e.Errors }

// classify maps the outcome of an execution onto a terminal state.
func classify(ctx context.Context, err error) StateType {
	switch {
	case err == nil:
		return StateCompleted
	case IsDefect(err):
		return StateDeath
	case ctx.Err() != nil, IsInterrupted(err):
		return StateInterrupted
	default:
		return StateFailed
	}
}
