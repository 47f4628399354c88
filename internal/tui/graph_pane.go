package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/aristath/visualeffect/internal/catalog"
	"github.com/aristath/visualeffect/internal/effect"
)

const nodeWidth = 22

// GraphPaneModel renders the tasks, scope and refs of the current example.
// It reads snapshots on every frame instead of keeping its own copy of the state.
type GraphPaneModel struct {
	example *catalog.Example
	frame   int
	now     time.Time
	width   int
	height  int
	focused bool
}

// NewGraphPaneModel creates an empty graph pane.
func NewGraphPaneModel() GraphPaneModel {
	return GraphPaneModel{now: time.Now()}
}

// Update handles messages for the graph pane.
func (m GraphPaneModel) Update(msg tea.Msg) (GraphPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		m.frame++
		m.now = time.Time(msg)
	}
	return m, nil
}

// SetExample replaces the rendered example.
func (m *GraphPaneModel) SetExample(ex *catalog.Example) {
	m.example = ex
}

// View renders the graph pane.
func (m GraphPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	if m.example == nil {
		return style.
			Width(m.width - 2).
			Height(m.height - 2).
			Render(StyleStatusPending.Render("No example selected"))
	}
	if m.example.DarkMode() {
		style = StyleDarkBorder
	}

	var b strings.Builder
	title := StyleTitle.Render(m.example.Title())
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n")
	b.WriteString(StyleHelp.Render(ansi.Truncate(m.example.Description, m.width-4, "...")))
	b.WriteString("\n")
	if m.example.Option != "" {
		b.WriteString(fmt.Sprintf("Option: %s %s\n", StyleSelected.Render(" "+m.example.Option+" "),
			StyleHelp.Render(fmt.Sprintf("(%v)", m.example.Options))))
	}
	b.WriteString("\n")
	b.WriteString(m.renderGraph())

	if side := m.renderResources(); side != "" {
		b.WriteString("\n\n")
		b.WriteString(side)
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// renderGraph draws one row of node boxes per dependency layer.
func (m GraphPaneModel) renderGraph() string {
	layers, err := m.example.Graph.Layers()
	if err != nil {
		return StyleStatusFailed.Render(err.Error())
	}

	rows := make([]string, 0, len(layers)*2)
	for i, layer := range layers {
		boxes := make([]string, 0, len(layer))
		for _, name := range layer {
			node, ok := m.example.Node(name)
			if !ok {
				continue
			}
			boxes = append(boxes, m.renderNode(node.Snapshot()))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
		if i > 0 {
			rows = append(rows, lipgloss.PlaceHorizontal(lipgloss.Width(row), lipgloss.Center, "↓"))
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}

// renderNode draws a single task box.
func (m GraphPaneModel) renderNode(s effect.Snapshot) string {
	inner := nodeWidth - 4
	lines := []string{
		StatusIcon(s.Type, m.frame) + " " + ansi.Truncate(s.Name, inner-2, "…"),
	}

	if summary := nodeSummary(s); summary != "" {
		lines = append(lines, stateStyle(s.Type).Render(ansi.Truncate(summary, inner, "…")))
	}
	if s.ShowTimer && !s.StartedAt.IsZero() {
		lines = append(lines, StyleHelp.Render(formatElapsed(s.Elapsed(m.now))))
	}
	if s.Notification != nil {
		lines = append(lines, StyleNotification.Render(ansi.Truncate(s.Notification.Message, inner-2, "…")))
	}

	return StyleNode.
		BorderForeground(stateStyle(s.Type).GetForeground()).
		Width(nodeWidth - 2).
		Render(strings.Join(lines, "\n"))
}

// nodeSummary is the one-line outcome shown under the task name.
func nodeSummary(s effect.Snapshot) string {
	switch s.Type {
	case effect.StateCompleted:
		return fmt.Sprint(s.Result)
	case effect.StateFailed, effect.StateDeath:
		if s.Err != nil {
			return s.Err.Error()
		}
	case effect.StateInterrupted:
		return "interrupted"
	case effect.StateRunning:
		if s.Children > 0 {
			return fmt.Sprintf("%d running", s.Children)
		}
	}
	return ""
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// renderResources draws the scope finalizer stack and the refs side by side.
func (m GraphPaneModel) renderResources() string {
	var blocks []string

	if s := m.example.Scope; s != nil {
		state := s.State()
		lines := []string{
			StyleSection.Render("Scope") + " " + scopeStyle(state).Render(string(state)),
		}
		finalizers := s.Finalizers()
		if len(finalizers) == 0 {
			lines = append(lines, StyleStatusPending.Render("  (no finalizers)"))
		}
		// Top of the stack runs first.
		for _, f := range slices.Backward(finalizers) {
			lines = append(lines, "  "+finalizerIcon(f.State, m.frame)+" "+f.Name)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if len(m.example.Refs) > 0 {
		lines := []string{StyleSection.Render("Refs")}
		for _, r := range m.example.Refs {
			snap := r.Snapshot()
			value := fmt.Sprint(snap.Value)
			if snap.JustChanged {
				value = StyleFlash.Render(" " + value + " ")
			}
			lines = append(lines, fmt.Sprintf("  %s = %s", snap.Name, value))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if len(blocks) == 0 {
		return ""
	}
	for i := range blocks[:len(blocks)-1] {
		blocks[i] = lipgloss.NewStyle().PaddingRight(4).Render(blocks[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// SetSize updates the pane dimensions.
func (m *GraphPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *GraphPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
