package commands

import (
	"context"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/aristath/visualeffect/internal/catalog"
	"github.com/aristath/visualeffect/internal/config"
	"github.com/aristath/visualeffect/internal/log"
	"github.com/aristath/visualeffect/internal/metrics"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// FormatText prints human readable output.
	FormatText = "text"
	// FormatJSON prints machine readable output.
	FormatJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug             bool
	NoLog             bool
	NoColor           bool
	LoggerType        string
	LogFile           string
	Speed             float64
	MetricsAddr       string
	TraceFile         string
	GlobalConfigPath  string
	ProjectConfigPath string

	// Global instances.
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   log.Logger
	Config   *config.Config
	Recorder metrics.Recorder
	Tracer   trace.Tracer
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("log-file", "Write logs to this file instead of stderr. The playground only logs when set.").StringVar(&c.LogFile)
	app.Flag("speed", "Divide every simulated delay by this factor.").Default("1").Float64Var(&c.Speed)
	app.Flag("metrics-addr", "Serve Prometheus metrics on this address (overrides the config).").StringVar(&c.MetricsAddr)
	app.Flag("trace-file", "Export a span per task execution to this file as JSON.").StringVar(&c.TraceFile)

	globalPath, err := config.GlobalPath()
	if err != nil {
		globalPath = ""
	}
	app.Flag("global-config", "Path to the global config file.").Default(globalPath).StringVar(&c.GlobalConfigPath)
	app.Flag("project-config", "Path to the project config file.").Default(config.ProjectPath()).StringVar(&c.ProjectConfigPath)

	return c
}

// Env returns the dependencies shared by the examples a command builds.
func (c *RootCommand) Env() catalog.Env {
	return catalog.Env{
		Config:   c.Config,
		Logger:   c.Logger,
		Recorder: c.Recorder,
		Tracer:   c.Tracer,
		Speed:    c.Speed,
	}
}
