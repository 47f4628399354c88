package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/ref"
)

func buildRefMake(_ context.Context, env Env, _ string) *Example {
	counter := ref.New("counter", 0, env.refOptions()...)

	increment := task(env, "increment", func(ctx context.Context) (string, error) {
		if err := env.sleep(ctx, 400*time.Millisecond); err != nil {
			return "", err
		}
		n := counter.UpdateAndGet(func(n int) int { return n + 1 })
		if err := env.sleep(ctx, 150*time.Millisecond); err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	})
	repeat := task(env, "repeat", func(ctx context.Context) (string, error) {
		counter.Set(0)
		schedule := effect.Intersect(effect.Recurs(4), effect.Spaced(env.d(400*time.Millisecond)))
		if _, err := effect.Repeat(rerun(increment), schedule)(ctx); err != nil {
			return "", err
		}
		return "✅", nil
	})

	ex := newExample(`counter := ref.New("counter", 0)

increment := func(context.Context) (int, error) {
	return counter.UpdateAndGet(func(n int) int { return n + 1 }), nil
}

repeat := effect.Repeat(increment, effect.Recurs(4))`, repeat, increment)
	ex.Refs = []ref.Node{counter}
	return ex
}

func buildRefUpdateAndGet(_ context.Context, env Env, _ string) *Example {
	counter := ref.New("counter", 0, env.refOptions()...)

	var (
		inputs []effect.Node
		effs   []effect.Effect[string]
	)
	for i := 1; i <= 5; i++ {
		t := task(env, fmt.Sprintf("increment%d", i), func(ctx context.Context) (string, error) {
			if err := env.sleepBetween(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
				return "", err
			}
			n := counter.UpdateAndGet(func(n int) int { return n + 1 })
			if err := env.sleep(ctx, 50*time.Millisecond); err != nil {
				return "", err
			}
			return strconv.Itoa(n), nil
		})
		inputs = append(inputs, t)
		effs = append(effs, t.Effect())
	}
	all := effect.All(effect.Unbounded, effs...)
	concurrent := task(env, "concurrent", func(ctx context.Context) (string, error) {
		counter.Set(0)
		if _, err := all(ctx); err != nil {
			return "", err
		}
		return "✅", nil
	})

	ex := newExample(`increment := func(ctx context.Context) (int, error) {
	if err := effect.Sleep(ctx, randomDelay()); err != nil {
		return 0, err
	}
	return counter.UpdateAndGet(func(n int) int { return n + 1 }), nil
}

concurrent := effect.All(effect.Unbounded,
	increment, increment, increment, increment, increment,
)`, concurrent, inputs...)
	ex.Refs = []ref.Node{counter}
	return ex
}
