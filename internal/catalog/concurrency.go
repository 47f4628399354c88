package catalog

import (
	"context"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
)

// Options of the effect-all example.
const (
	ConcurrencySequential = "sequential"
	ConcurrencyBounded    = "bounded"
	ConcurrencyUnbounded  = "unbounded"
)

func concurrencyOf(option string) (effect.Concurrency, string) {
	switch option {
	case ConcurrencyBounded:
		return 2, "effect.Concurrency(2)"
	case ConcurrencyUnbounded:
		return effect.Unbounded, "effect.Unbounded"
	default:
		return effect.Sequential, "effect.Sequential"
	}
}

func buildAll(_ context.Context, env Env, option string) *Example {
	nyc := task(env, "nyc", env.weather())
	berlin := task(env, "berlin", env.weather())
	tokyo := task(env, "tokyo", env.weather())
	london := task(env, "london", env.weather())

	concurrency, literal := concurrencyOf(option)
	all := effect.All(concurrency, nyc.Effect(), berlin.Effect(), tokyo.Effect(), london.Effect())
	result := timedTask(env, "result", effect.Map(all, func(ts []Temperature) Temperatures { return ts }))

	return newExample(`nyc := readTemperature("New York")
berlin := readTemperature("Berlin")
tokyo := readTemperature("Tokyo")
london := readTemperature("London")

result := effect.All(`+literal+`, nyc, berlin, tokyo, london)`,
		result, nyc, berlin, tokyo, london)
}

func buildRace(_ context.Context, env Env, _ string) *Example {
	tortoise := task(env, "tortoise", env.loadEmoji(emojiTortoise))
	achilles := task(env, "achilles", env.loadEmoji(emojiAchilles))
	winner := task(env, "winner", effect.Race(tortoise.Effect(), achilles.Effect()))

	return newExample(`tortoise := runFast("tortoise")
achilles := runFast("achilles")

winner := effect.Race(tortoise, achilles)`, winner, tortoise, achilles)
}

func buildRaceAll(_ context.Context, env Env, _ string) *Example {
	cat := task(env, "cat", env.loadEmoji(emojiCat))
	dog := task(env, "dog", env.loadEmoji(emojiDog))
	mouse := task(env, "mouse", env.loadEmoji(emojiMouse))
	rabbit := task(env, "rabbit", env.loadEmoji(emojiRabbit))
	winner := task(env, "winner", effect.RaceAll(cat.Effect(), dog.Effect(), mouse.Effect(), rabbit.Effect()))

	return newExample(`cat := runFast("cat")
dog := runFast("dog")
mouse := runFast("mouse")
rabbit := runFast("rabbit")

winner := effect.RaceAll(cat, dog, mouse, rabbit)`, winner, cat, dog, mouse, rabbit)
}

func buildForEach(_ context.Context, env Env, _ string) *Example {
	locations := []*effect.Task[Temperature]{
		task(env, "newYork", env.weather()),
		task(env, "london", env.weather()),
		task(env, "tokyo", env.weather()),
	}
	forEach := effect.ForEach(effect.Sequential, locations, func(t *effect.Task[Temperature]) effect.Effect[Temperature] {
		return t.Effect()
	})
	result := timedTask(env, "result", effect.Map(forEach, func(ts []Temperature) Temperatures { return ts }))

	return newExample(`locations := []string{"New York", "London", "Tokyo"}

result := effect.ForEach(effect.Sequential, locations, readTemperature)`,
		result, locations[0], locations[1], locations[2])
}

func buildFork(_ context.Context, env Env, _ string) *Example {
	background := task(env, "background", effect.Forever(effect.Delay(env.d(600*time.Millisecond),
		func(ctx context.Context) (struct{}, error) {
			notifySelf(ctx, "⭐", env.d(1200*time.Millisecond))
			return struct{}{}, nil
		})))
	main := timedTask(env, "main", func(ctx context.Context) (string, error) {
		if err := env.sleep(ctx, 3*time.Second); err != nil {
			return "", err
		}
		return "Done!", nil
	})
	result := task(env, "result", func(ctx context.Context) (string, error) {
		fiber := effect.Fork(ctx, background.Effect())
		v, err := main.Run(ctx)
		fiber.Interrupt()
		return v, err
	})

	return newExample(`background := effect.Forever(effect.Delay(600*time.Millisecond, ping))
main := effect.Map(sleep(3*time.Second), func(struct{}) string { return "Done!" })

result := func(ctx context.Context) (string, error) {
	fiber := effect.Fork(ctx, background)
	v, err := main(ctx)
	fiber.Interrupt()
	return v, err
}`, result, background, main)
}
