package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/aristath/visualeffect/internal/catalog"
	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/scope"
)

// RunCommand runs one example headless and prints every runtime event.
type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	example string
	option  string
	format  string
	timeout time.Duration
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run an example without the playground and print its events.")
	c.Cmd.Arg("example", "Example id (see the list command).").Required().StringVar(&c.example)
	c.Cmd.Flag("option", "Example option, the first one by default.").Short('o').StringVar(&c.option)
	c.Cmd.Flag("format", "Output format (text, json).").Default(FormatText).EnumVar(&c.format, FormatText, FormatJSON)
	c.Cmd.Flag("timeout", "Interrupt the example after this long.").Default("1m").DurationVar(&c.timeout)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger.WithValues(log.Kv{"example": c.example})

	bus := events.NewEventBus()
	defer bus.Close()
	sub := bus.SubscribeAll(1024)

	env := c.rootCmd.Env()
	env.Publisher = bus
	ex, err := catalog.Build(ctx, c.example, env, c.option)
	if err != nil {
		return fmt.Errorf("could not build example: %w", err)
	}
	defer ex.Close()

	p := newEventPrinter(c.format, c.rootCmd.Stdout)
	printed := make(chan error, 1)
	go func() {
		var err error
		for e := range sub {
			if perr := p.PrintEvent(e); perr != nil && err == nil {
				err = perr
			}
		}
		printed <- err
	}()

	logger.Infof("running %s", ex.Title())
	if err := c.play(ctx, ex); err != nil {
		logger.Warningf("example did not settle cleanly: %v", err)
	}

	// Closing the bus ends the printer once every event is out.
	bus.Close()
	if err := <-printed; err != nil {
		return fmt.Errorf("could not print events: %w", err)
	}
	if err := p.PrintResult(ex.Root().Snapshot()); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}
	return nil
}

// play runs ex until it settles and its scope, if any, is released.
func (c RunCommand) play(ctx context.Context, ex *catalog.Example) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ex.Start(runCtx)
	if err := ex.Wait(runCtx); err != nil {
		ex.Interrupt()
		settleCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ex.Wait(settleCtx); err != nil {
			return fmt.Errorf("interrupted example did not settle: %w", err)
		}
	}

	if ex.Scope == nil {
		return nil
	}
	releaseCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return waitReleased(releaseCtx, ex.Scope)
}

// waitReleased blocks until s is released or ctx is done.
func waitReleased(ctx context.Context, s *scope.Scope) error {
	changed := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for s.State() != scope.StateReleased {
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("scope %s not released: %w", s.ID(), ctx.Err())
		}
	}
	return nil
}

// eventPrinter writes runtime events and the final result.
type eventPrinter interface {
	PrintEvent(e events.Event) error
	PrintResult(s effect.Snapshot) error
}

func newEventPrinter(format string, w io.Writer) eventPrinter {
	if format == FormatJSON {
		return jsonPrinter{enc: json.NewEncoder(w)}
	}
	return textPrinter{w: w}
}

type textPrinter struct {
	w io.Writer
}

func (p textPrinter) PrintEvent(e events.Event) error {
	var line string
	switch e := e.(type) {
	case events.TaskStateEvent:
		line = fmt.Sprintf("%s task %s: %s -> %s", stamp(e.Timestamp), e.Name, e.From, e.To)
		if e.Duration > 0 {
			line += fmt.Sprintf(" (%s)", e.Duration.Round(time.Millisecond))
		}
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
	case events.TaskNotificationEvent:
		if e.Cleared {
			return nil
		}
		line = fmt.Sprintf("%s task %s: %s", stamp(e.Timestamp), e.Name, e.Message)
	case events.ScopeStateEvent:
		line = fmt.Sprintf("%s scope %s: %s", stamp(e.Timestamp), e.ScopeID, e.State)
	case events.FinalizerEvent:
		line = fmt.Sprintf("%s scope %s: finalizer %q %s", stamp(e.Timestamp), e.ScopeID, e.Name, e.State)
	case events.RefChangedEvent:
		if !e.JustChanged {
			return nil
		}
		line = fmt.Sprintf("%s ref %s = %s", stamp(e.Timestamp), e.Name, e.Value)
	default:
		return nil
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

func (p textPrinter) PrintResult(s effect.Snapshot) error {
	var err error
	switch s.Type {
	case effect.StateCompleted:
		_, err = fmt.Fprintf(p.w, "result: %s %v\n", s.Type, s.Result)
	case effect.StateFailed, effect.StateDeath:
		_, err = fmt.Fprintf(p.w, "result: %s: %v\n", s.Type, s.Err)
	default:
		_, err = fmt.Fprintf(p.w, "result: %s\n", s.Type)
	}
	return err
}

func stamp(t time.Time) string {
	return t.Format("15:04:05.000")
}

type jsonPrinter struct {
	enc *json.Encoder
}

// record is one JSON line of output.
type record struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Source  string    `json:"source"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func (p jsonPrinter) PrintEvent(e events.Event) error {
	r := record{Kind: e.EventType(), Source: e.Source()}
	switch e := e.(type) {
	case events.TaskStateEvent:
		r.Time, r.From, r.To = e.Timestamp, e.From, e.To
		if e.Err != nil {
			r.Error = e.Err.Error()
		}
	case events.TaskNotificationEvent:
		if e.Cleared {
			return nil
		}
		r.Time, r.Message = e.Timestamp, e.Message
	case events.ScopeStateEvent:
		r.Time, r.To = e.Timestamp, e.State
	case events.FinalizerEvent:
		r.Time, r.Message, r.To = e.Timestamp, e.Name, e.State
	case events.RefChangedEvent:
		if !e.JustChanged {
			return nil
		}
		r.Time, r.Value = e.Timestamp, e.Value
	default:
		return nil
	}
	return p.enc.Encode(r)
}

func (p jsonPrinter) PrintResult(s effect.Snapshot) error {
	r := record{
		Time:   s.FinishedAt,
		Kind:   "result",
		Source: s.Name,
		To:     string(s.Type),
	}
	if s.Type == effect.StateCompleted {
		r.Value = fmt.Sprint(s.Result)
	}
	if s.Err != nil {
		r.Error = s.Err.Error()
	}
	return p.enc.Encode(r)
}
