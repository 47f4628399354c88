package catalog

import (
	"context"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aristath/visualeffect/internal/config"
	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
	"github.com/aristath/visualeffect/internal/ref"
	"github.com/aristath/visualeffect/internal/scope"
)

// Env carries the dependencies shared by every built example.
type Env struct {
	Config    *config.Config
	Logger    log.Logger
	Publisher events.Publisher
	Recorder  metrics.Recorder
	// Tracer records a span per task execution. Nil uses the global provider.
	Tracer trace.Tracer
	// Breakers outlive a single build so a tripped breaker stays open when
	// the example is rebuilt.
	Breakers *effect.BreakerRegistry
	// Speed divides every simulated delay. Zero means real time.
	Speed float64
}

// WithDefaults fills every unset field. Build applies it too; call it once
// up front to share one breaker registry between builds.
func (e Env) WithDefaults() Env {
	if e.Config == nil {
		e.Config = config.DefaultConfig()
	}
	if e.Logger == nil {
		e.Logger = log.Noop
	}
	if e.Recorder == nil {
		e.Recorder = metrics.Noop
	}
	if e.Speed <= 0 {
		e.Speed = 1
	}
	if e.Breakers == nil {
		e.Breakers = effect.NewBreakerRegistry(effect.BreakerSettings{
			MaxFailures: 2,
			Cooldown:    e.d(2 * time.Second),
		})
	}
	return e
}

// d scales a simulated duration by Speed.
func (e Env) d(d time.Duration) time.Duration {
	return time.Duration(float64(d) / e.Speed)
}

// between returns a random scaled duration in [lo, hi].
func (e Env) between(lo, hi time.Duration) time.Duration {
	return e.d(lo + rand.N(hi-lo+1))
}

func (e Env) sleep(ctx context.Context, d time.Duration) error {
	return effect.Sleep(ctx, e.d(d))
}

func (e Env) sleepBetween(ctx context.Context, lo, hi time.Duration) error {
	return effect.Sleep(ctx, e.between(lo, hi))
}

func (e Env) taskOptions() []effect.Option {
	opts := []effect.Option{
		effect.WithLogger(e.Logger),
		effect.WithRecorder(e.Recorder),
		effect.WithNotificationDuration(e.Config.Timings.NotificationDuration.Std()),
	}
	if e.Publisher != nil {
		opts = append(opts, effect.WithPublisher(e.Publisher))
	}
	if e.Tracer != nil {
		opts = append(opts, effect.WithTracer(e.Tracer))
	}
	return opts
}

func (e Env) timedOptions() []effect.Option {
	opts := e.taskOptions()
	if e.Config.Display.ShowTimers {
		opts = append(opts, effect.WithShowTimer())
	}
	return opts
}

func (e Env) scopeOptions() []scope.Option {
	opts := []scope.Option{
		scope.WithLogger(e.Logger),
		scope.WithRecorder(e.Recorder),
		scope.WithFinalizerDuration(e.d(e.Config.Timings.FinalizerDuration.Std())),
	}
	if e.Publisher != nil {
		opts = append(opts, scope.WithPublisher(e.Publisher))
	}
	return opts
}

func (e Env) refOptions() []ref.Option {
	opts := []ref.Option{
		ref.WithLogger(e.Logger),
		ref.WithRecorder(e.Recorder),
		ref.WithFlashDelay(e.Config.Timings.FlashDelay.Std()),
	}
	if e.Publisher != nil {
		opts = append(opts, ref.WithPublisher(e.Publisher))
	}
	return opts
}

// task builds a task with the shared options.
func task[A any](env Env, name string, eff effect.Effect[A]) *effect.Task[A] {
	return effect.New(name, eff, env.taskOptions()...)
}

// timedTask is task with the elapsed timer shown when the config allows it.
func timedTask[A any](env Env, name string, eff effect.Effect[A]) *effect.Task[A] {
	return effect.New(name, eff, env.timedOptions()...)
}
