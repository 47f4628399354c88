package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/events"
)

const maxLogLines = 500

// LogPaneModel shows the event log of the runtime, or the code of the
// current example.
type LogPaneModel struct {
	lines     []string
	code      string
	showCode  bool
	viewport  viewport.Model
	width     int
	height    int
	focused   bool
	updateTag int // for debouncing
}

// NewLogPaneModel creates an empty log pane.
func NewLogPaneModel() LogPaneModel {
	return LogPaneModel{viewport: viewport.New(0, 0)}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the log pane.
func (m LogPaneModel) Update(msg tea.Msg) (LogPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyCode:
			m.showCode = !m.showCode
			m.updateViewportContent()
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.Event:
		line := formatEvent(msg)
		if line == "" {
			break
		}
		m.lines = append(m.lines, line)
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		if m.showCode {
			break
		}
		m.updateTag++
		tag := m.updateTag
		return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
			return tickMsg{tag: tag}
		})

	case tickMsg:
		// Only the latest tick refreshes the viewport.
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// SetCode replaces the code snippet.
func (m *LogPaneModel) SetCode(code string) {
	m.code = code
	m.updateViewportContent()
}

// Lines returns the retained log lines.
func (m LogPaneModel) Lines() []string {
	return m.lines
}

// View renders the log pane.
func (m LogPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	heading := "Events"
	if m.showCode {
		heading = "Code"
	}
	title := StyleTitle.Render(heading) + StyleHelp.Render("(c: toggle)")

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View())

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// updateViewportContent renders the selected view into the viewport.
func (m *LogPaneModel) updateViewportContent() {
	if m.showCode {
		m.viewport.SetContent(StyleCode.Render(m.code))
		m.viewport.GotoTop()
		return
	}
	if len(m.lines) == 0 {
		m.viewport.SetContent(StyleStatusPending.Render("Press Enter to run the example..."))
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	// Auto-scroll to bottom
	m.viewport.GotoBottom()
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *LogPaneModel) resizeViewport() {
	m.viewport.Width = max(m.width-4, 10)
	m.viewport.Height = max(m.height-3, 3)
}

// SetSize updates the pane dimensions.
func (m *LogPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
	m.updateViewportContent()
}

// SetFocused updates the focus state.
func (m *LogPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

// formatEvent renders an event as one log line. Unknown events render empty.
func formatEvent(e events.Event) string {
	switch e := e.(type) {
	case events.TaskStateEvent:
		line := fmt.Sprintf("%s task %s %s → %s", stamp(e.Timestamp), e.Name, e.From,
			stateStyle(effect.StateType(e.To)).Render(e.To))
		if e.Duration > 0 {
			line += StyleHelp.Render(" " + e.Duration.Round(time.Millisecond).String())
		}
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
		return line
	case events.TaskNotificationEvent:
		if e.Cleared {
			return ""
		}
		return fmt.Sprintf("%s task %s says %s", stamp(e.Timestamp), e.Name, StyleNotification.Render(e.Message))
	case events.ScopeStateEvent:
		return fmt.Sprintf("%s scope %s %s", stamp(e.Timestamp), e.ScopeID, e.State)
	case events.FinalizerEvent:
		return fmt.Sprintf("%s scope %s finalizer %q %s", stamp(e.Timestamp), e.ScopeID, e.Name, e.State)
	case events.RefChangedEvent:
		if !e.JustChanged {
			return ""
		}
		return fmt.Sprintf("%s ref %s = %s", stamp(e.Timestamp), e.Name, e.Value)
	}
	return ""
}

func stamp(t time.Time) string {
	return StyleHelp.Render(t.Format("15:04:05.000"))
}
