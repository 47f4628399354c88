package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"

	"github.com/aristath/visualeffect/internal/catalog"
)

// ListCommand prints the example catalog.
type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	section string
	format  string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	sections := make([]string, len(catalog.Sections))
	for i, s := range catalog.Sections {
		sections[i] = string(s)
	}

	c.Cmd = app.Command("list", "List the available examples.")
	c.Cmd.Flag("section", "Only list examples of this section.").EnumVar(&c.section, sections...)
	c.Cmd.Flag("format", "Output format (text, json).").Default(FormatText).EnumVar(&c.format, FormatText, FormatJSON)

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

// listItem is the JSON form of an example.
type listItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Section     string   `json:"section"`
	Description string   `json:"description"`
	Options     []string `json:"options,omitempty"`
}

func (c ListCommand) Run(_ context.Context) error {
	examples := catalog.Manifest()
	if c.section != "" {
		examples = catalog.InSection(catalog.Section(c.section))
	}
	c.rootCmd.Logger.Debugf("listing %d examples", len(examples))

	if c.format == FormatJSON {
		items := make([]listItem, len(examples))
		for i, e := range examples {
			items[i] = listItem{
				ID:          e.ID,
				Title:       e.Title(),
				Section:     string(e.Section),
				Description: e.Description,
				Options:     e.Options,
			}
		}
		enc := json.NewEncoder(c.rootCmd.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("could not print list: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(c.rootCmd.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tID\tTITLE\tOPTIONS")
	for _, e := range examples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Section, e.ID, e.Title(), strings.Join(e.Options, ","))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}
	return nil
}
