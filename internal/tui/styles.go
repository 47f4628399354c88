package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/scope"
)

// Border styles
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	// StyleDarkBorder replaces the graph border once the example died.
	StyleDarkBorder = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("52"))
)

// Status styles
var (
	StyleStatusRunning = lipgloss.NewStyle().
				Foreground(lipgloss.Color("yellow")).
				Bold(true)

	StyleStatusComplete = lipgloss.NewStyle().
				Foreground(lipgloss.Color("green")).
				Bold(true)

	StyleStatusFailed = lipgloss.NewStyle().
				Foreground(lipgloss.Color("red")).
				Bold(true)

	StyleStatusInterrupted = lipgloss.NewStyle().
				Foreground(lipgloss.Color("208"))

	StyleStatusDeath = lipgloss.NewStyle().
				Foreground(lipgloss.Color("201")).
				Bold(true)

	StyleStatusPending = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	StyleSection = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0"))

	StyleNode = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	StyleNotification = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("228")).
				Padding(0, 1)

	StyleFlash = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Bold(true)

	StyleCode = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// stateStyle returns the style used for a task state.
func stateStyle(t effect.StateType) lipgloss.Style {
	switch t {
	case effect.StateRunning:
		return StyleStatusRunning
	case effect.StateCompleted:
		return StyleStatusComplete
	case effect.StateFailed:
		return StyleStatusFailed
	case effect.StateInterrupted:
		return StyleStatusInterrupted
	case effect.StateDeath:
		return StyleStatusDeath
	default:
		return StyleStatusPending
	}
}

var spinner = []string{"◐", "◓", "◑", "◒"}

// StatusIcon returns a styled state indicator. frame animates running tasks.
func StatusIcon(t effect.StateType, frame int) string {
	var icon string
	switch t {
	case effect.StateRunning:
		icon = spinner[frame%len(spinner)]
	case effect.StateCompleted:
		icon = "✓"
	case effect.StateFailed:
		icon = "✗"
	case effect.StateInterrupted:
		icon = "⏹"
	case effect.StateDeath:
		icon = "☠"
	default:
		icon = "○"
	}
	return stateStyle(t).Render(icon)
}

// scopeStyle returns the style used for a scope state.
func scopeStyle(s scope.State) lipgloss.Style {
	switch s {
	case scope.StateAcquiring, scope.StateReleasing:
		return StyleStatusRunning
	case scope.StateActive:
		return StyleStatusComplete
	case scope.StateReleased:
		return StyleStatusInterrupted
	default:
		return StyleStatusPending
	}
}

func finalizerIcon(s scope.FinalizerState, frame int) string {
	switch s {
	case scope.FinalizerRunning:
		return StyleStatusRunning.Render(spinner[frame%len(spinner)])
	case scope.FinalizerCompleted:
		return StyleStatusComplete.Render("✓")
	default:
		return StyleStatusPending.Render("○")
	}
}
