package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
)

func buildSucceed(_ context.Context, env Env, _ string) *Example {
	value := task(env, "value", effect.Succeed(42))
	return newExample(`value := effect.Succeed(42)`, nil, value)
}

func buildFail(_ context.Context, env Env, _ string) *Example {
	failure := task(env, "error", effect.Fail[string](errors.New("Kaboom!")))
	return newExample(`failure := effect.Fail[string](errors.New("Kaboom!"))`, nil, failure)
}

func buildDie(_ context.Context, env Env, _ string) *Example {
	death := task(env, "death", effect.Die[string](errors.New("404: Will to live not found")))
	return newExample(`death := effect.Die[string](errors.New("404: Will to live not found"))`, nil, death)
}

func buildSync(_ context.Context, env Env, _ string) *Example {
	random := task(env, "random", effect.Sync(func() string {
		return fmt.Sprintf("%.4f", rand.Float64())
	}))
	return newExample(`random := effect.Sync(rand.Float64)`, nil, random)
}

func buildPromise(_ context.Context, env Env, _ string) *Example {
	readTemperature := func(ctx context.Context) <-chan effect.Result[Temperature] {
		out := make(chan effect.Result[Temperature], 1)
		go func() {
			t, err := env.weather()(ctx)
			out <- effect.Result[Temperature]{Value: t, Err: err}
		}()
		return out
	}
	london := timedTask(env, "london", effect.Promise(readTemperature))

	return newExample(`func readTemperature(ctx context.Context) <-chan effect.Result[Temperature] {
	out := make(chan effect.Result[Temperature], 1)
	go func() { out <- fetch(ctx, "slow.weather.com/api/London") }()
	return out
}

london := effect.Promise(readTemperature)`, nil, london)
}

func buildSleep(_ context.Context, env Env, _ string) *Example {
	sleep := timedTask(env, "sleep", func(ctx context.Context) (string, error) {
		if err := env.sleep(ctx, time.Second); err != nil {
			return "", err
		}
		notifySelf(ctx, "😴", env.d(2*time.Second))
		if err := env.sleep(ctx, 2*time.Second); err != nil {
			return "", err
		}
		return "Refreshed!", nil
	})
	return newExample(`sleep := func(ctx context.Context) (string, error) {
	if err := effect.Sleep(ctx, 3*time.Second); err != nil {
		return "", err
	}
	return "Refreshed!", nil
}`, nil, sleep)
}
