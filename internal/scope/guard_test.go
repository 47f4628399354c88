package scope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/visualeffect/internal/effect"
)

func TestGuard(t *testing.T) {
	tests := map[string]struct {
		effect effect.Effect[string]
	}{
		"A completed task should release its scope.": {
			effect: effect.Succeed("ok"),
		},
		"A failed task should release its scope.": {
			effect: effect.Fail[string](errors.New("boom")),
		},
		"A dead task should release its scope.": {
			effect: effect.Die[string](errors.New("boom")),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := New("resources", WithFinalizerDuration(time.Millisecond))
			task := effect.New("main", func(ctx context.Context) (string, error) {
				s.SetState(StateAcquiring)
				if _, err := s.AddFinalizer("release"); err != nil {
					return "", err
				}
				s.SetState(StateActive)
				return test.effect(ctx)
			})
			stop := Guard(context.Background(), s, task)
			defer stop()

			<-task.Start(context.Background())

			require.Eventually(t, func() bool { return s.State() == StateReleased }, waitFor, time.Millisecond)
			assert.Equal(t, FinalizerCompleted, s.Finalizers()[0].State)
		})
	}
}

func TestGuardResetsScopeWithTask(t *testing.T) {
	s := New("resources", WithFinalizerDuration(time.Second))
	task := effect.New("main", func(ctx context.Context) (int, error) {
		if _, err := s.AddFinalizer("release"); err != nil {
			return 0, err
		}
		return 1, nil
	})
	stop := Guard(context.Background(), s, task)
	defer stop()

	<-task.Start(context.Background())
	require.Eventually(t, func() bool { return s.State() == StateReleasing }, waitFor, time.Millisecond)

	task.Reset()
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Finalizers())
}

func TestGuardStop(t *testing.T) {
	s := New("resources", WithFinalizerDuration(time.Millisecond))
	task := effect.New("main", effect.Succeed(1))

	Guard(context.Background(), s, task)()
	<-task.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateIdle, s.State())
}

func TestGuardResetBeforeReleaseStarts(t *testing.T) {
	for range 50 {
		s := New("resources", WithFinalizerDuration(time.Millisecond))
		task := effect.New("main", func(ctx context.Context) (int, error) {
			if _, err := s.AddFinalizer("release"); err != nil {
				return 0, err
			}
			return 1, nil
		})
		stop := Guard(context.Background(), s, task)

		// Reset the task from inside the terminal notification, before the
		// guard's release goroutine had a chance to run.
		unsubscribe := task.Subscribe(func() {
			if task.State().Type.Terminal() {
				task.Reset()
			}
		})
		task.Start(context.Background())
		require.Eventually(t, func() bool { return task.State().Type == effect.StateIdle }, waitFor, time.Millisecond)
		unsubscribe()
		time.Sleep(5 * time.Millisecond)

		require.Equal(t, StateIdle, s.State())
		_, err := s.AddFinalizer("again")
		require.NoError(t, err, "a reset scope accepts finalizers again")
		stop()
	}
}
