package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/visualeffect/internal/config"
)

// SettingsPaneModel manages the settings form overlay.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Form field bindings (strings for Huh)
	saveTarget           string
	finalizerDuration    string
	flashDelay           string
	notificationDuration string
	showTimers           bool
	theme                string
	metricsAddr          string
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.Config, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
	}
	m.loadFields()
	m.buildForm()
	return m
}

// loadFields copies the config into the form bindings.
func (m *SettingsPaneModel) loadFields() {
	m.saveTarget = "global"
	m.finalizerDuration = m.config.Timings.FinalizerDuration.String()
	m.flashDelay = m.config.Timings.FlashDelay.String()
	m.notificationDuration = m.config.Timings.NotificationDuration.String()
	m.showTimers = m.config.Display.ShowTimers
	m.theme = m.config.Display.Theme
	m.metricsAddr = m.config.Metrics.Addr
}

// validDuration accepts positive Go durations such as "800ms".
func validDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("not a duration: %q", s)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	themes := make([]huh.Option[string], len(config.Themes))
	for i, t := range config.Themes {
		themes[i] = huh.NewOption(t, t)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global (~/.visualeffect/config.json)", "global"),
					huh.NewOption("Project (.visualeffect/config.json)", "project"),
				).
				Value(&m.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("finalizerDuration").
				Title("Finalizer Duration").
				Value(&m.finalizerDuration).
				Placeholder("800ms").
				Validate(validDuration),

			huh.NewInput().
				Key("flashDelay").
				Title("Ref Flash Delay").
				Value(&m.flashDelay).
				Placeholder("50ms").
				Validate(validDuration),

			huh.NewInput().
				Key("notificationDuration").
				Title("Notification Duration").
				Value(&m.notificationDuration).
				Placeholder("1s").
				Validate(validDuration),
		).Title("Timings"),

		huh.NewGroup(
			huh.NewConfirm().
				Key("showTimers").
				Title("Show Task Timers").
				Value(&m.showTimers),

			huh.NewSelect[string]().
				Key("theme").
				Title("Theme").
				Options(themes...).
				Value(&m.theme),

			huh.NewInput().
				Key("metricsAddr").
				Title("Metrics Address").
				Description("Takes effect on restart. Empty disables the server.").
				Value(&m.metricsAddr).
				Placeholder(":9090"),
		).Title("Display"),
	)
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == KeyEsc {
		// Cancel without saving
		m.visible = false
		m.saved = false
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if err := m.applyFormToConfig(); err != nil {
			m.err = err
			m.saved = false
			return m, cmd
		}

		targetPath := m.globalPath
		if m.saveTarget == "project" {
			targetPath = m.projectPath
		}

		if err := config.Save(m.config, targetPath); err != nil {
			m.err = err
			m.saved = false
		} else {
			m.saved = true
			m.err = nil
			m.visible = false
		}
	}

	return m, cmd
}

// applyFormToConfig copies form field values back to the config struct.
// The config is left untouched when a field does not parse.
func (m *SettingsPaneModel) applyFormToConfig() error {
	parsed := make([]config.Duration, 0, 3)
	for _, s := range []string{m.finalizerDuration, m.flashDelay, m.notificationDuration} {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", s, err)
		}
		parsed = append(parsed, config.Duration(d))
	}

	m.config.Timings.FinalizerDuration = parsed[0]
	m.config.Timings.FlashDelay = parsed[1]
	m.config.Timings.NotificationDuration = parsed[2]
	m.config.Display.ShowTimers = m.showTimers
	m.config.Display.Theme = m.theme
	m.config.Metrics.Addr = m.metricsAddr
	return nil
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string
	if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4).
		Height(m.height - 4)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane. Showing it reloads the form
// from the current config.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	if v {
		m.loadFields()
		m.buildForm()
		if m.width > 0 {
			m.form.WithWidth(m.width - 8).WithHeight(m.height - 8)
		}
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

// Saved reports whether the last submission was written to disk.
func (m SettingsPaneModel) Saved() bool {
	return m.saved
}
