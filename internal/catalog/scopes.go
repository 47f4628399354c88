package catalog

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/scope"
)

// Options of the effect-add-finalizer example.
const (
	OutcomeSucceed   = "succeed"
	OutcomeFail      = "fail"
	OutcomeDie       = "die"
	OutcomeInterrupt = "interrupt"
)

var outcomeCode = map[string][]string{
	OutcomeSucceed:   {"\t// Succeed", "\treturn \"Done\", nil"},
	OutcomeFail:      {"\t// Fail", "\treturn \"\", errors.New(\"Boom\")"},
	OutcomeDie:       {"\t// Die", "\treturn effect.Die[string](errors.New(\"Boom\"))(ctx)"},
	OutcomeInterrupt: {"\t// Wait to be interrupted", "\treturn \"\", effect.Sleep(ctx, time.Hour)"},
}

func buildAddFinalizer(ctx context.Context, env Env, outcome string) *Example {
	s := scope.New("simpleFinalizer", env.scopeOptions()...)

	t := timedTask(env, "effect", func(ctx context.Context) (string, error) {
		s.SetState(scope.StateAcquiring)
		if err := env.sleepBetween(ctx, 300*time.Millisecond, 400*time.Millisecond); err != nil {
			return "", err
		}
		if _, err := s.AddFinalizer("🧹 Clean up"); err != nil {
			return "", err
		}
		s.SetState(scope.StateActive)
		if err := env.sleepBetween(ctx, 600*time.Millisecond, 900*time.Millisecond); err != nil {
			return "", err
		}

		switch outcome {
		case OutcomeFail:
			return "", errors.New("💥 Fail")
		case OutcomeDie:
			return effect.Die[string](errors.New("☠️ Die"))(ctx)
		case OutcomeInterrupt:
			if err := effect.Sleep(ctx, time.Hour); err != nil {
				return "", err
			}
			return "Interrupted", nil
		default:
			return "Done", nil
		}
	})

	code := []string{
		"effect := func(ctx context.Context) (string, error) {",
		"\t// Register finalizer first",
		"\tscope.AddFinalizerFunc(\"cleanup\", cleanup)",
	}
	code = append(code, outcomeCode[outcome]...)
	code = append(code, "}")

	ex := newExample(strings.Join(code, "\n"), nil, t)
	ex.guard(ctx, s)
	return ex
}

func buildAcquireRelease(ctx context.Context, env Env, _ string) *Example {
	s := scope.New("resourceScope", env.scopeOptions()...)
	var runs atomic.Int64

	acquire := func(name, resource, release string) *effect.Task[string] {
		return task(env, name, func(ctx context.Context) (string, error) {
			if err := env.sleepBetween(ctx, 600*time.Millisecond, 900*time.Millisecond); err != nil {
				return "", err
			}
			if _, err := s.AddFinalizer(release); err != nil {
				return "", err
			}
			if err := env.sleep(ctx, 200*time.Millisecond); err != nil {
				return "", err
			}
			return resource, nil
		})
	}
	database := acquire("database", "DATABASE", "Close database")
	cache := acquire("cache", "CACHE", "Flush cache")
	logger := acquire("logger", "LOGGER", "Close log file")

	result := timedTask(env, "result", func(ctx context.Context) (string, error) {
		run := runs.Add(1)
		s.SetState(scope.StateAcquiring)
		for _, resource := range []*effect.Task[string]{database, cache, logger} {
			if _, err := resource.Run(ctx); err != nil {
				return "", err
			}
		}
		s.SetState(scope.StateActive)
		if err := env.sleepBetween(ctx, time.Second, 1500*time.Millisecond); err != nil {
			return "", err
		}

		switch (run - 1) % 3 {
		case 0:
			return "Work completed!", nil
		case 1:
			return "", errors.New("Oops.")
		default:
			return effect.Die[string](errors.New("BANG!"))(ctx)
		}
	})

	ex := newExample(`makeDatabase := acquireRelease(connectDatabase, closeDatabase)
makeCache := acquireRelease(connectCache, flushCache)
makeLogger := acquireRelease(openLogFile, closeLogFile)

result := func(ctx context.Context) (string, error) {
	scope := scope.New("resourceScope")
	defer scope.RunFinalizers(ctx)

	db, err := makeDatabase(ctx, scope)
	if err != nil {
		return "", err
	}
	cache, err := makeCache(ctx, scope)
	if err != nil {
		return "", err
	}
	logger, err := makeLogger(ctx, scope)
	if err != nil {
		return "", err
	}
	return doWork(db, cache, logger)
}`, result, database, cache, logger)
	ex.guard(ctx, s)
	return ex
}
