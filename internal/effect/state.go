package effect

import (
	"time"
)

// StateType is the lifecycle tag of a task.
type StateType string

const (
	StateIdle        StateType = "idle"
	StateRunning     StateType = "running"
	StateCompleted   StateType = "completed"
	StateFailed      StateType = "failed"
	StateInterrupted StateType = "interrupted"
	StateDeath       StateType = "death"
)

// Terminal reports whether t ends an execution.
func (t StateType) Terminal() bool {
	switch t {
	case StateCompleted, StateFailed, StateInterrupted, StateDeath:
		return true
	}
	return false
}

// State is the observable state of a Task.
// Result is only meaningful when completed; Err holds the failure when failed
// and the *Defect when death.
type State[A any] struct {
	Type       StateType
	Result     A
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Notification is a transient message attached to a task.
type Notification struct {
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

// Snapshot is a type-erased view of a task for renderers.
type Snapshot struct {
	Name         string
	Type         StateType
	Result       any
	Err          error
	ShowTimer    bool
	StartedAt    time.Time
	FinishedAt   time.Time
	Notification *Notification
	Children     int
}

// Elapsed returns how long the last execution ran, or has been running as of now.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	switch {
	case s.StartedAt.IsZero():
		return 0
	case s.FinishedAt.IsZero():
		return now.Sub(s.StartedAt)
	default:
		return s.FinishedAt.Sub(s.StartedAt)
	}
}
