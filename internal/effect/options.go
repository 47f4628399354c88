package effect

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
)

// DefaultNotificationDuration is used by Notify when no duration is given.
const DefaultNotificationDuration = time.Second

const tracerName = "github.com/aristath/visualeffect/internal/effect"

type options struct {
	showTimer            bool
	notificationDuration time.Duration
	logger               log.Logger
	publisher            events.Publisher
	recorder             metrics.Recorder
	tracer               trace.Tracer
}

// Option configures a Task.
type Option func(*options)

// WithShowTimer makes renderers show the elapsed time of the task.
func WithShowTimer() Option {
	return func(o *options) { o.showTimer = true }
}

// WithNotificationDuration sets the default lifetime of notifications.
func WithNotificationDuration(d time.Duration) Option {
	return func(o *options) { o.notificationDuration = d }
}

// WithLogger sets the logger. Defaults to log.Noop.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPublisher publishes state and notification events to p.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithRecorder records transitions and run durations on r.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithTracer sets the tracer used for execution spans.
// Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func newOptions(opts []Option) options {
	o := options{
		notificationDuration: DefaultNotificationDuration,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Noop
	}
	if o.recorder == nil {
		o.recorder = metrics.Noop
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.notificationDuration <= 0 {
		o.notificationDuration = DefaultNotificationDuration
	}
	return o
}
