package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/ref"
	"github.com/aristath/visualeffect/internal/scope"
)

// fast runs every simulated delay a hundred times faster.
func fast() Env {
	return Env{Speed: 100}
}

func build(t *testing.T, id, option string) *Example {
	t.Helper()
	return buildWith(t, fast(), id, option)
}

func buildWith(t *testing.T, env Env, id, option string) *Example {
	t.Helper()
	ex, err := Build(context.Background(), id, env, option)
	require.NoError(t, err)
	t.Cleanup(ex.Close)
	return ex
}

// play starts the example and returns the settled root snapshot.
func play(t *testing.T, ex *Example) effect.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ex.Start(ctx)
	require.NoError(t, ex.Wait(ctx))
	return ex.Root().Snapshot()
}

func states(ex *Example) map[string]effect.StateType {
	out := map[string]effect.StateType{}
	for _, n := range ex.Nodes() {
		out[n.Name()] = n.Snapshot().Type
	}
	return out
}

func TestBuildEveryExample(t *testing.T) {
	for _, m := range Manifest() {
		t.Run(m.ID, func(t *testing.T) {
			ex := build(t, m.ID, "")
			assert.Equal(t, m.ID, ex.ID)
			assert.NotEmpty(t, ex.Code)
			require.NotEmpty(t, ex.Inputs)
			if len(m.Options) > 0 {
				assert.Equal(t, m.Options[0], ex.Option)
			}

			layers, err := ex.Graph.Layers()
			require.NoError(t, err)
			assert.Equal(t, ex.Root().Name(), layers[len(layers)-1][len(layers[len(layers)-1])-1])
			for _, n := range ex.Nodes() {
				assert.Equal(t, effect.StateIdle, n.Snapshot().Type, n.Name())
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(context.Background(), "effect-teleport", fast(), "")
	assert.ErrorIs(t, err, ErrUnknownExample)

	_, err = Build(context.Background(), "effect-all", fast(), "sideways")
	assert.ErrorContains(t, err, `example "effect-all" has no option "sideways"`)

	_, err = Build(context.Background(), "effect-succeed", fast(), "unbounded")
	assert.Error(t, err)
}

func TestConstructors(t *testing.T) {
	tests := map[string]struct {
		id      string
		expType effect.StateType
		expVal  any
		expErr  string
		expDark bool
	}{
		"Succeed should complete with its value.": {
			id:      "effect-succeed",
			expType: effect.StateCompleted,
			expVal:  42,
		},
		"Fail should fail with its error.": {
			id:      "effect-fail",
			expType: effect.StateFailed,
			expErr:  "Kaboom!",
		},
		"Die should die and turn the lights off.": {
			id:      "effect-die",
			expType: effect.StateDeath,
			expErr:  "defect: 404: Will to live not found",
			expDark: true,
		},
		"Sleep should eventually refresh.": {
			id:      "effect-sleep",
			expType: effect.StateCompleted,
			expVal:  "Refreshed!",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ex := build(t, test.id, "")
			snap := play(t, ex)

			assert.Equal(t, test.expType, snap.Type)
			if test.expErr != "" {
				assert.EqualError(t, snap.Err, test.expErr)
			} else {
				assert.Equal(t, test.expVal, snap.Result)
			}
			assert.Equal(t, test.expDark, ex.DarkMode())
		})
	}
}

func TestPromiseReadsTemperature(t *testing.T) {
	snap := play(t, build(t, "effect-promise", ""))

	require.Equal(t, effect.StateCompleted, snap.Type)
	temp, ok := snap.Result.(Temperature)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(temp), 60)
	assert.Less(t, int(temp), 90)
}

func TestAllRunsEveryInput(t *testing.T) {
	for _, option := range []string{ConcurrencySequential, ConcurrencyBounded, ConcurrencyUnbounded} {
		t.Run(option, func(t *testing.T) {
			ex := build(t, "effect-all", option)
			snap := play(t, ex)

			require.Equal(t, effect.StateCompleted, snap.Type)
			assert.Len(t, snap.Result, 4)
			assert.Contains(t, ex.Code, "effect.All(")
			for name, typ := range states(ex) {
				assert.Equal(t, effect.StateCompleted, typ, name)
			}
		})
	}
}

func TestRaceInterruptsTheLoser(t *testing.T) {
	ex := build(t, "effect-race", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateCompleted, snap.Type)
	assert.Contains(t, []any{emojiTortoise, emojiAchilles}, snap.Result)

	got := states(ex)
	for _, name := range []string{"tortoise", "achilles"} {
		assert.Contains(t, []effect.StateType{effect.StateCompleted, effect.StateInterrupted}, got[name], name)
	}
	assert.True(t, got["tortoise"] == effect.StateCompleted || got["achilles"] == effect.StateCompleted)
}

func TestForkInterruptsTheBackgroundFiber(t *testing.T) {
	ex := build(t, "effect-fork", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateCompleted, snap.Type)
	assert.Equal(t, "Done!", snap.Result)
	assert.Equal(t, effect.StateInterrupted, states(ex)["background"])
}

func TestAllShortCircuits(t *testing.T) {
	ex := build(t, "effect-all-short-circuit", "")
	snap := play(t, ex)

	assert.Equal(t, effect.StateFailed, snap.Type)
	assert.EqualError(t, snap.Err, "Too Low!")
	assert.Equal(t, map[string]effect.StateType{
		"balance": effect.StateCompleted,
		"credit":  effect.StateFailed,
		"payment": effect.StateIdle,
		"result":  effect.StateFailed,
	}, states(ex))

	// The next cycle fails at the payment gateway.
	ex.Reset()
	snap = play(t, ex)
	assert.EqualError(t, snap.Err, "Gateway Error!")
}

func TestTimeoutFailsLateDeliveries(t *testing.T) {
	// Slower than fast() to keep the on-time delivery well inside the limit.
	ex := buildWith(t, Env{Speed: 20}, "effect-timeout", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateFailed, snap.Type)
	assert.ErrorIs(t, snap.Err, effect.ErrTimeout)
	assert.Equal(t, effect.StateInterrupted, states(ex)["pizza"])

	ex.Reset()
	snap = play(t, ex)
	assert.Equal(t, effect.StateCompleted, snap.Type)
	assert.Equal(t, "🍕", snap.Result)
}

func TestEventuallySucceeds(t *testing.T) {
	ex := build(t, "effect-eventually", "")
	snap := play(t, ex)

	assert.Equal(t, effect.StateCompleted, snap.Type)
	assert.Equal(t, "💰", snap.Result)
	// The snippet shows the schedule the example actually retries with.
	assert.Contains(t, ex.Code, "effect.Retry(swipeCard, effect.Spaced(time.Second))")
}

func TestPartitionCountsEveryLick(t *testing.T) {
	ex := build(t, "effect-partition", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateCompleted, snap.Type)
	assert.Regexp(t, `^👹 [0-5] 😇 [0-5]$`, snap.Result)
	assert.Len(t, ex.Inputs, 5)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	ex := build(t, "effect-validate", "")
	snap := play(t, ex)

	switch snap.Type {
	case effect.StateCompleted:
		assert.Equal(t, "Password Accepted!", snap.Result)
	case effect.StateFailed:
		var verr *effect.ValidationError
		require.ErrorAs(t, snap.Err, &verr)
		failed := 0
		for _, typ := range states(ex) {
			if typ == effect.StateFailed {
				failed++
			}
		}
		// Every failing check plus the result.
		assert.Equal(t, len(verr.Errors)+1, failed)
	default:
		t.Fatalf("unexpected state %s", snap.Type)
	}
	for _, n := range ex.Inputs {
		assert.NotEqual(t, effect.StateIdle, n.Snapshot().Type, "validation runs every check")
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	ex := build(t, "effect-circuit-breaker", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateFailed, snap.Type)
	assert.True(t, errors.Is(snap.Err, gobreaker.ErrOpenState), snap.Err)
	assert.Equal(t, effect.StateFailed, states(ex)["request"])
}

func TestSchedules(t *testing.T) {
	tests := map[string]struct {
		id     string
		expVal string
	}{
		"Retrying with exponential backoff should eventually park.": {
			id:     "effect-retry-exponential",
			expVal: "🚗 Parked!",
		},
		"Repeating spaced should run until the phone dies.": {
			id: "effect-repeat-spaced",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			snap := play(t, build(t, test.id, ""))
			if test.expVal == "" {
				assert.Equal(t, effect.StateFailed, snap.Type)
				assert.EqualError(t, snap.Err, "☠️ Phone Died!")
				return
			}
			assert.Equal(t, effect.StateCompleted, snap.Type)
			assert.Equal(t, test.expVal, snap.Result)
		})
	}
}

func TestRetryRecursCyclesScenarios(t *testing.T) {
	ex := build(t, "effect-retry-recurs", "")

	snap := play(t, ex)
	assert.EqualError(t, snap.Err, "💀 Asleep Forever")

	ex.Reset()
	snap = play(t, ex)
	assert.Equal(t, "👀 I'M UP!", snap.Result)
}

func TestRepeatWhileOutputCountsHotdogs(t *testing.T) {
	snap := play(t, build(t, "effect-repeat-while-output", ""))

	require.Equal(t, effect.StateCompleted, snap.Type)
	assert.Regexp(t, `^🤢 \d+ Hotdogs!$`, snap.Result)
}

func TestRefExamples(t *testing.T) {
	for _, id := range []string{"ref-make", "ref-update-and-get"} {
		t.Run(id, func(t *testing.T) {
			ex := build(t, id, "")
			snap := play(t, ex)

			require.Equal(t, effect.StateCompleted, snap.Type)
			assert.Equal(t, "✅", snap.Result)
			require.Len(t, ex.Refs, 1)
			assert.Equal(t, 5, ex.Refs[0].Snapshot().Value)

			ex.Reset()
			assert.Equal(t, 0, ex.Refs[0].Snapshot().Value)
			assert.Equal(t, ref.Snapshot{Name: "counter", Value: 0}, ex.Refs[0].Snapshot())
		})
	}
}

func TestAcquireReleaseRunsFinalizersInReverse(t *testing.T) {
	ex := build(t, "effect-acquire-release", "")
	snap := play(t, ex)

	require.Equal(t, effect.StateCompleted, snap.Type)
	assert.Equal(t, "Work completed!", snap.Result)
	require.Eventually(t, func() bool {
		return ex.Scope.State() == scope.StateReleased
	}, 2*time.Second, 5*time.Millisecond)

	var names []string
	for _, f := range ex.Scope.Finalizers() {
		names = append(names, f.Name)
		assert.Equal(t, scope.FinalizerCompleted, f.State)
	}
	assert.Equal(t, []string{"Close database", "Flush cache", "Close log file"}, names)

	// The second run fails, and still releases everything.
	ex.Reset()
	assert.Equal(t, scope.StateIdle, ex.Scope.State())
	assert.Empty(t, ex.Scope.Finalizers())

	snap = play(t, ex)
	assert.Equal(t, effect.StateFailed, snap.Type)
	require.Eventually(t, func() bool {
		return ex.Scope.State() == scope.StateReleased
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAddFinalizerOutcomes(t *testing.T) {
	tests := map[string]struct {
		outcome string
		expType effect.StateType
	}{
		"A successful effect should release its scope.": {outcome: OutcomeSucceed, expType: effect.StateCompleted},
		"A failed effect should release its scope.":     {outcome: OutcomeFail, expType: effect.StateFailed},
		"A dead effect should release its scope.":       {outcome: OutcomeDie, expType: effect.StateDeath},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ex := build(t, "effect-add-finalizer", test.outcome)
			assert.Contains(t, ex.Code, outcomeCode[test.outcome][0])

			snap := play(t, ex)
			assert.Equal(t, test.expType, snap.Type)
			assert.Eventually(t, func() bool {
				return ex.Scope.State() == scope.StateReleased
			}, 2*time.Second, 5*time.Millisecond)
		})
	}
}

func TestAddFinalizerInterrupted(t *testing.T) {
	ex := build(t, "effect-add-finalizer", OutcomeInterrupt)
	ex.Start(context.Background())

	require.Eventually(t, func() bool {
		return ex.Scope.State() == scope.StateActive
	}, 2*time.Second, time.Millisecond)
	ex.Interrupt()

	assert.Equal(t, effect.StateInterrupted, ex.Root().Snapshot().Type)
	assert.Eventually(t, func() bool {
		return ex.Scope.State() == scope.StateReleased
	}, 2*time.Second, 5*time.Millisecond)
}

func TestResetRestoresEverything(t *testing.T) {
	ex := build(t, "effect-all", ConcurrencyUnbounded)
	play(t, ex)

	ex.Reset()
	for name, typ := range states(ex) {
		assert.Equal(t, effect.StateIdle, typ, name)
	}
	assert.False(t, ex.DarkMode())
}
