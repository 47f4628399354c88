package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/aristath/visualeffect/cmd/visualeffect/commands"
	"github.com/aristath/visualeffect/internal/config"
	"github.com/aristath/visualeffect/internal/log"
	loglogrus "github.com/aristath/visualeffect/internal/log/logrus"
	"github.com/aristath/visualeffect/internal/metrics"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("visualeffect", "Terminal playground for observable effects.")
	app.Version(Version)
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	playCmd := commands.NewPlayCommand(rootCmd, app)
	listCmd := commands.NewListCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		playCmd.Name(): playCmd,
		listCmd.Name(): listCmd,
		runCmd.Name():  runCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// The playground owns the terminal, so it only logs to a file.
	if cmdName == playCmd.Name() && rootCmd.LogFile == "" {
		rootCmd.NoLog = true
	}

	// Set logger.
	logger, closeLog, err := getLogger(*rootCmd)
	if err != nil {
		return err
	}
	defer closeLog()
	rootCmd.Logger = logger

	// Load configuration, flags win over files.
	cfg, err := config.Load(rootCmd.GlobalConfigPath, rootCmd.ProjectConfigPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if rootCmd.MetricsAddr != "" {
		cfg.Metrics.Addr = rootCmd.MetricsAddr
	}
	rootCmd.Config = cfg
	rootCmd.Recorder = metrics.Noop

	// Set tracer.
	tracer, closeTracer, err := getTracer(*rootCmd)
	if err != nil {
		return err
	}
	defer closeTracer()
	rootCmd.Tracer = tracer

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Metrics.
	if addr := cfg.Metrics.Addr; addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rootCmd.Recorder = metrics.NewPrometheus(metrics.Config{Registry: reg})
		server := metrics.NewServer(addr, reg)

		g.Add(
			func() error {
				rootCmd.Logger.Infof("serving metrics on %s", addr)
				return server.ListenAndServe()
			},
			func(_ error) {
				if err := server.Shutdown(); err != nil {
					rootCmd.Logger.Errorf("could not stop metrics server: %v", err)
				}
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger and a function releasing its output.
func getLogger(rootCmd commands.RootCommand) (log.Logger, func(), error) {
	if rootCmd.NoLog {
		return log.Noop, func() {}, nil
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = rootCmd.Stderr // By default logger goes to stderr (so it can split stdout prints).
	closeLog := func() {}
	if rootCmd.LogFile != "" {
		f, err := os.OpenFile(rootCmd.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open log file: %w", err)
		}
		logrusLog.Out = f
		closeLog = func() { _ = f.Close() }
	}
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if rootCmd.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch rootCmd.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !rootCmd.NoColor && rootCmd.LogFile == "",
			DisableColors: rootCmd.NoColor || rootCmd.LogFile != "",
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger, closeLog, nil
}

// getTracer returns a tracer exporting task spans to the trace file, or nil
// when tracing is disabled, and a function flushing the spans.
func getTracer(rootCmd commands.RootCommand) (trace.Tracer, func(), error) {
	if rootCmd.TraceFile == "" {
		return nil, func() {}, nil
	}

	f, err := os.OpenFile(rootCmd.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("could not create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	closeTracer := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			rootCmd.Logger.Errorf("could not flush traces: %v", err)
		}
		_ = f.Close()
	}
	return tp.Tracer("github.com/aristath/visualeffect"), closeTracer, nil
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
