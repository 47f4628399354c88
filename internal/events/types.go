package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Source() string
}

// Publisher is implemented by anything that can fan events out to subscribers.
type Publisher interface {
	Publish(topic string, event Event)
}

// Topic constants
const (
	TopicTask  = "task"
	TopicScope = "scope"
	TopicRef   = "ref"
)

// Event type constants
const (
	EventTypeTaskState        = "task.state"
	EventTypeTaskNotification = "task.notification"
	EventTypeScopeState       = "scope.state"
	EventTypeFinalizer        = "scope.finalizer"
	EventTypeRefChanged       = "ref.changed"
)

// TaskStateEvent is published whenever a task changes lifecycle state.
type TaskStateEvent struct {
	Name      string
	From      string
	To        string
	Err       error // failure or defect, if any
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskStateEvent) EventType() string { return EventTypeTaskState }
func (e TaskStateEvent) Source() string    { return e.Name }

// TaskNotificationEvent is published when a transient notification is attached or expires.
type TaskNotificationEvent struct {
	Name      string
	Message   string
	Cleared   bool
	Timestamp time.Time
}

func (e TaskNotificationEvent) EventType() string { return EventTypeTaskNotification }
func (e TaskNotificationEvent) Source() string    { return e.Name }

// ScopeStateEvent is published when a scope changes state.
type ScopeStateEvent struct {
	ScopeID   string
	State     string
	Timestamp time.Time
}

func (e ScopeStateEvent) EventType() string { return EventTypeScopeState }
func (e ScopeStateEvent) Source() string    { return e.ScopeID }

// FinalizerEvent is published when a finalizer is added or changes state.
type FinalizerEvent struct {
	ScopeID     string
	FinalizerID string
	Name        string
	State       string
	Timestamp   time.Time
}

func (e FinalizerEvent) EventType() string { return EventTypeFinalizer }
func (e FinalizerEvent) Source() string    { return e.ScopeID }

// RefChangedEvent is published when a ref value or its flash flag changes.
type RefChangedEvent struct {
	Name        string
	Value       string
	JustChanged bool
	Timestamp   time.Time
}

func (e RefChangedEvent) EventType() string { return EventTypeRefChanged }
func (e RefChangedEvent) Source() string    { return e.Name }
