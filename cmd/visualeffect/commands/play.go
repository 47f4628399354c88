package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/visualeffect/internal/events"
	"github.com/aristath/visualeffect/internal/tui"
)

// PlayCommand opens the interactive playground.
type PlayCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	example string
}

// NewPlayCommand returns the play command, the default one.
func NewPlayCommand(rootCmd *RootCommand, app *kingpin.Application) *PlayCommand {
	c := &PlayCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("play", "Open the interactive playground.").Default()
	c.Cmd.Flag("example", "Example selected on start.").Short('e').StringVar(&c.example)

	return c
}

func (c PlayCommand) Name() string { return c.Cmd.FullCommand() }

func (c PlayCommand) Run(ctx context.Context) error {
	bus := events.NewEventBus()
	defer bus.Close()

	model := tui.New(ctx, bus, c.rootCmd.Env(), c.rootCmd.GlobalConfigPath, c.rootCmd.ProjectConfigPath, c.example)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(c.rootCmd.Stdin),
		tea.WithOutput(c.rootCmd.Stdout),
	)

	c.rootCmd.Logger.Infof("playground started")
	if _, err := p.Run(); err != nil {
		// A cancelled context means we are shutting down.
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("playground failed: %w", err)
	}
	c.rootCmd.Logger.Infof("playground closed")
	return nil
}
