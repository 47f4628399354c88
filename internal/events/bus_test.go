package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func assertEmpty(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %s", ev.EventType())
	case <-time.After(10 * time.Millisecond):
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicTask, 10)

	bus.Publish(TopicTask, TaskStateEvent{
		Name:      "nyc",
		From:      "idle",
		To:        "running",
		Timestamp: time.Now(),
	})

	ev := receive(t, ch)
	assert.Equal(t, "nyc", ev.Source())
	assert.Equal(t, EventTypeTaskState, ev.EventType())
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch1 := bus.Subscribe(TopicScope, 10)
	ch2 := bus.Subscribe(TopicScope, 10)

	bus.Publish(TopicScope, ScopeStateEvent{ScopeID: "resources", State: "releasing"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := receive(t, ch)
		assert.Equal(t, "resources", ev.Source())
	}
}

func TestNonBlockingSend(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicRef, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(TopicRef, RefChangedEvent{Name: "counter", Value: "1", JustChanged: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publisher blocked (expected non-blocking behavior)")
	}

	require.NotNil(t, receive(t, ch))
}

func TestCloseSignalsSubscribers(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicTask, 10)

	bus.Close()
	bus.Close()

	received := 0
	for range ch {
		received++
	}
	assert.Zero(t, received)

	// Subscriptions after close come back closed.
	_, ok := <-bus.SubscribeAll(1)
	assert.False(t, ok)
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicTask, 10)
	bus.Close()

	assert.NotPanics(t, func() {
		bus.Publish(TopicTask, TaskStateEvent{Name: "nyc", To: "running"})
	})

	_, ok := <-ch
	assert.False(t, ok)
}

func TestMultipleTopics(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	taskCh := bus.Subscribe(TopicTask, 10)
	scopeCh := bus.Subscribe(TopicScope, 10)

	bus.Publish(TopicTask, TaskNotificationEvent{Name: "background", Message: "⭐"})
	bus.Publish(TopicScope, FinalizerEvent{ScopeID: "resources", Name: "Close database", State: "pending"})

	assert.Equal(t, EventTypeTaskNotification, receive(t, taskCh).EventType())
	assert.Equal(t, EventTypeFinalizer, receive(t, scopeCh).EventType())

	assertEmpty(t, taskCh)
	assertEmpty(t, scopeCh)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	allCh := bus.SubscribeAll(20)

	bus.Publish(TopicTask, TaskStateEvent{Name: "nyc", To: "completed"})
	bus.Publish(TopicRef, RefChangedEvent{Name: "counter", Value: "2"})

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		got[receive(t, allCh).EventType()] = true
	}

	assert.True(t, got[EventTypeTaskState])
	assert.True(t, got[EventTypeRefChanged])
	assertEmpty(t, allCh)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	keep := bus.Subscribe(TopicTask, 10)
	drop := bus.Subscribe(TopicTask, 10)
	all := bus.SubscribeAll(10)

	bus.Unsubscribe(drop)
	bus.Unsubscribe(all)

	_, ok := <-drop
	assert.False(t, ok, "unsubscribed channel should be closed")
	_, ok = <-all
	assert.False(t, ok, "unsubscribed all-topics channel should be closed")

	bus.Publish(TopicTask, TaskStateEvent{Name: "nyc", To: "running"})
	assert.Equal(t, "nyc", receive(t, keep).Source())

	// Unknown channels are ignored.
	assert.NotPanics(t, func() { bus.Unsubscribe(make(chan Event)) })
}
