package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/visualeffect/internal/catalog"
	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneList PaneID = iota
	PaneGraph
	PaneLog
)

const frameInterval = 100 * time.Millisecond

// frameMsg advances animations and redraws the task graph.
type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	ctx               context.Context
	env               catalog.Env
	example           *catalog.Example
	listPane          ListPaneModel
	graphPane         GraphPaneModel
	logPane           LogPaneModel
	settingsPane      SettingsPaneModel
	focusedPane       PaneID
	eventSub          <-chan events.Event
	err               error
	width             int
	height            int
	quitting          bool
	showSettings      bool
	globalConfigPath  string
	projectConfigPath string
}

// New creates a new TUI model showing the example with the given id.
// It subscribes to all events from the event bus using SubscribeAll and
// publishes the runtime of every example on it. Tasks run under ctx.
func New(ctx context.Context, eventBus *events.EventBus, env catalog.Env, globalPath, projectPath, id string) Model {
	env.Publisher = eventBus
	env = env.WithDefaults()
	applyTheme(env.Config.Display.Theme)

	m := Model{
		ctx:               ctx,
		env:               env,
		listPane:          NewListPaneModel(id),
		graphPane:         NewGraphPaneModel(),
		logPane:           NewLogPaneModel(),
		settingsPane:      NewSettingsPaneModel(env.Config, globalPath, projectPath),
		focusedPane:       PaneList,
		eventSub:          eventBus.SubscribeAll(256),
		globalConfigPath:  globalPath,
		projectConfigPath: projectPath,
	}
	m.load(m.listPane.Selected().ID, "")
	m.updateFocusStates()
	return m
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventSub), frameTick())
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While the settings panel is open it receives every key.
		if m.showSettings {
			if msg.String() == KeyEsc {
				m.showSettings = false
				m.settingsPane.SetVisible(false)
				return m, nil
			}

			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)

			if !m.settingsPane.IsVisible() {
				m.showSettings = false
				if m.settingsPane.Saved() {
					applyTheme(m.env.Config.Display.Theme)
					option := ""
					if m.example != nil {
						option = m.example.Option
					}
					m.load(m.listPane.Selected().ID, option)
				}
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			m.closeExample()
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab:
			m.focusedPane = (m.focusedPane + 1) % 3
			m.updateFocusStates()

		case KeyShiftTab:
			m.focusedPane = (m.focusedPane + 2) % 3 // +2 is equivalent to -1 mod 3
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneList
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneGraph
			m.updateFocusStates()

		case KeyPane3:
			m.focusedPane = PaneLog
			m.updateFocusStates()

		case KeyRun, KeySpace:
			m.run()

		case KeyInterrupt:
			if m.example != nil {
				m.example.Interrupt()
			}

		case KeyReset:
			if m.example != nil {
				m.example.Reset()
			}

		case KeyOption:
			m.nextOption()

		default:
			switch m.focusedPane {
			case PaneList:
				prev := m.listPane.Selected().ID
				var cmd tea.Cmd
				m.listPane, cmd = m.listPane.Update(msg)
				cmds = append(cmds, cmd)
				if id := m.listPane.Selected().ID; id != prev {
					m.load(id, "")
				}
			case PaneGraph:
				var cmd tea.Cmd
				m.graphPane, cmd = m.graphPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneLog:
				var cmd tea.Cmd
				m.logPane, cmd = m.logPane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case frameMsg:
		var cmd tea.Cmd
		m.graphPane, cmd = m.graphPane.Update(msg)
		cmds = append(cmds, cmd, frameTick())

	case tickMsg:
		var cmd tea.Cmd
		m.logPane, cmd = m.logPane.Update(msg)
		cmds = append(cmds, cmd)

	case events.Event:
		var cmd tea.Cmd
		m.logPane, cmd = m.logPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	default:
		// The settings form runs its own commands while open.
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// run starts the example, resetting it first when the last run has settled.
func (m *Model) run() {
	if m.example == nil {
		return
	}
	switch m.example.Root().Snapshot().Type {
	case effect.StateRunning:
		return
	case effect.StateIdle:
	default:
		m.example.Reset()
	}
	m.example.Start(m.ctx)
}

// nextOption rebuilds the example with the option after the current one.
func (m *Model) nextOption() {
	if m.example == nil || len(m.example.Options) < 2 {
		return
	}
	next := m.example.Options[0]
	for i, o := range m.example.Options {
		if o == m.example.Option {
			next = m.example.Options[(i+1)%len(m.example.Options)]
		}
	}
	m.load(m.example.ID, next)
}

// load replaces the current example with a fresh build.
func (m *Model) load(id, option string) {
	m.closeExample()

	ex, err := catalog.Build(m.ctx, id, m.env, option)
	if err != nil {
		m.err = err
		m.env.Logger.Errorf("could not build %s: %v", id, err)
		return
	}
	m.err = nil
	m.example = ex
	m.graphPane.SetExample(ex)
	m.logPane.SetCode(ex.Code)
}

// closeExample interrupts and releases the current example.
func (m *Model) closeExample() {
	if m.example == nil {
		return
	}
	m.example.Interrupt()
	m.example.Close()
	m.example = nil
	m.graphPane.SetExample(nil)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	right := lipgloss.JoinVertical(lipgloss.Left, m.graphPane.View(), m.logPane.View())
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, m.listPane.View(), right)

	helpBar := HelpView()
	if m.err != nil {
		helpBar = StyleStatusFailed.Render(m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 28) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // reserve 1 line for help bar
	graphHeight := (availableHeight * 65) / 100
	logHeight := availableHeight - graphHeight

	m.listPane.SetSize(leftWidth, availableHeight)
	m.graphPane.SetSize(rightWidth, graphHeight)
	m.logPane.SetSize(rightWidth, logHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.listPane.SetFocused(m.focusedPane == PaneList)
	m.graphPane.SetFocused(m.focusedPane == PaneGraph)
	m.logPane.SetFocused(m.focusedPane == PaneLog)
}

// Example returns the example currently shown.
func (m Model) Example() *catalog.Example {
	return m.example
}

// applyTheme forces the background detection of lipgloss unless theme is "auto".
func applyTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
