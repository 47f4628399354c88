package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/aristath/visualeffect/internal/catalog"
)

// ListPaneModel is the example list grouped by section.
type ListPaneModel struct {
	items       []catalog.Metadata
	selectedIdx int
	width       int
	height      int
	focused     bool
}

// NewListPaneModel creates a list of every example with id selected, or the
// first one when id is unknown.
func NewListPaneModel(id string) ListPaneModel {
	m := ListPaneModel{items: catalog.Manifest()}
	for i, item := range m.items {
		if item.ID == id {
			m.selectedIdx = i
		}
	}
	return m
}

// Update handles messages for the list pane.
func (m ListPaneModel) Update(msg tea.Msg) (ListPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.items)-1 {
				m.selectedIdx++
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		}
	}
	return m, nil
}

// Selected returns the metadata of the highlighted example.
func (m ListPaneModel) Selected() catalog.Metadata {
	return m.items[m.selectedIdx]
}

// lines renders every row and reports which one is selected.
func (m ListPaneModel) lines(width int) ([]string, int) {
	var (
		lines    []string
		selected int
		section  catalog.Section
	)
	for i, item := range m.items {
		if item.Section != section {
			section = item.Section
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, StyleSection.Render(strings.ToUpper(string(section))))
		}

		line := ansi.Truncate("  "+item.Title(), width, "...")
		if i == m.selectedIdx {
			selected = len(lines)
			line = StyleSelected.Render(line)
		}
		lines = append(lines, line)
	}
	return lines, selected
}

// View renders the list pane, scrolled so the selection stays visible.
func (m ListPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	innerWidth := m.width - 2
	innerHeight := m.height - 4

	lines, selected := m.lines(innerWidth)
	start := 0
	if len(lines) > innerHeight {
		start = min(max(0, selected-innerHeight/2), len(lines)-innerHeight)
	}
	end := min(len(lines), start+max(innerHeight, 0))

	var b strings.Builder
	title := StyleTitle.Render("Examples")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n")
	b.WriteString(strings.Join(lines[start:end], "\n"))

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *ListPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *ListPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
