package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/visualeffect/internal/catalog"
	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/events"
)

func newTestModel(t *testing.T, id string) Model {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Close)

	dir := t.TempDir()
	m := New(context.Background(), bus, catalog.Env{Speed: 100},
		filepath.Join(dir, "global.json"), filepath.Join(dir, "project.json"), id)
	require.NotNil(t, m.Example())
	t.Cleanup(func() {
		if ex := m.Example(); ex != nil {
			ex.Interrupt()
			ex.Close()
		}
	})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	return next.(Model)
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case KeyRun:
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case KeyTab:
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case KeyEsc:
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func waitRoot(t *testing.T, ex *catalog.Example) effect.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ex.Wait(ctx))
	return ex.Root().Snapshot()
}

func TestModelStartsOnRequestedExample(t *testing.T) {
	m := newTestModel(t, "effect-fail")

	assert.Equal(t, "effect-fail", m.Example().ID)
	assert.Contains(t, m.View(), "Effect.fail")
}

func TestModelUnknownExampleFallsBackToFirst(t *testing.T) {
	m := newTestModel(t, "does-not-exist")

	assert.Equal(t, catalog.Manifest()[0].ID, m.Example().ID)
}

func TestModelRunAndRerun(t *testing.T) {
	m := newTestModel(t, "effect-succeed")

	m = press(t, m, KeyRun)
	snap := waitRoot(t, m.Example())
	assert.Equal(t, effect.StateCompleted, snap.Type)
	assert.Equal(t, 42, snap.Result)

	// Running a settled example resets it first.
	m = press(t, m, KeyRun)
	snap = waitRoot(t, m.Example())
	assert.Equal(t, effect.StateCompleted, snap.Type)
}

func TestModelReset(t *testing.T) {
	m := newTestModel(t, "effect-fail")

	m = press(t, m, KeyRun)
	assert.Equal(t, effect.StateFailed, waitRoot(t, m.Example()).Type)

	m = press(t, m, KeyReset)
	assert.Equal(t, effect.StateIdle, m.Example().Root().Snapshot().Type)
}

func TestModelInterrupt(t *testing.T) {
	m := newTestModel(t, "effect-sleep")

	m = press(t, m, KeyRun)
	m = press(t, m, KeyInterrupt)
	assert.Equal(t, effect.StateInterrupted, waitRoot(t, m.Example()).Type)
}

func TestModelSelectionLoadsExample(t *testing.T) {
	m := newTestModel(t, "effect-succeed")
	first := m.Example()

	m = press(t, m, KeyJ)
	assert.Equal(t, "effect-fail", m.Example().ID)
	assert.NotSame(t, first, m.Example())

	m = press(t, m, KeyK)
	assert.Equal(t, "effect-succeed", m.Example().ID)
}

func TestModelSelectionIgnoredWhenListUnfocused(t *testing.T) {
	m := newTestModel(t, "effect-succeed")

	m = press(t, m, KeyTab)
	m = press(t, m, KeyJ)
	assert.Equal(t, "effect-succeed", m.Example().ID)
}

func TestModelOptionCycles(t *testing.T) {
	m := newTestModel(t, "effect-all")
	options := m.Example().Options
	require.Len(t, options, 3)
	assert.Equal(t, options[0], m.Example().Option)

	for _, want := range []string{options[1], options[2], options[0]} {
		m = press(t, m, KeyOption)
		assert.Equal(t, want, m.Example().Option)
	}
}

func TestModelOptionIgnoredWithoutOptions(t *testing.T) {
	m := newTestModel(t, "effect-succeed")
	before := m.Example()

	m = press(t, m, KeyOption)
	assert.Same(t, before, m.Example())
}

func TestModelSettingsOverlay(t *testing.T) {
	m := newTestModel(t, "effect-succeed")

	m = press(t, m, KeySettings)
	assert.True(t, m.showSettings)
	assert.Contains(t, m.View(), "Settings")

	m = press(t, m, KeyEsc)
	assert.False(t, m.showSettings)
}

func TestModelQuitClosesExample(t *testing.T) {
	m := newTestModel(t, "effect-sleep")
	m = press(t, m, KeyRun)
	ex := m.Example()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(KeyQuit)})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Nil(t, m.Example())
	assert.Equal(t, "Goodbye!\n", m.View())
	assert.Equal(t, effect.StateInterrupted, waitRoot(t, ex).Type)
}

func TestModelForwardsEventsToLog(t *testing.T) {
	m := newTestModel(t, "effect-succeed")

	next, cmd := m.Update(events.TaskStateEvent{
		Name:      "value",
		From:      "idle",
		To:        "running",
		Timestamp: time.Now(),
	})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Len(t, m.logPane.Lines(), 1)
	assert.Contains(t, m.logPane.Lines()[0], "task value idle")
}

func TestFormatEvent(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{
			name:  "task failure",
			event: events.TaskStateEvent{Name: "error", From: "running", To: "failed", Err: errors.New("Kaboom!"), Timestamp: now},
			want:  "Kaboom!",
		},
		{
			name:  "notification",
			event: events.TaskNotificationEvent{Name: "sleep", Message: "😴", Timestamp: now},
			want:  "task sleep says",
		},
		{
			name:  "scope",
			event: events.ScopeStateEvent{ScopeID: "resourceScope", State: "releasing", Timestamp: now},
			want:  "scope resourceScope",
		},
		{
			name:  "finalizer",
			event: events.FinalizerEvent{ScopeID: "resourceScope", Name: "Close database", State: "running", Timestamp: now},
			want:  `finalizer "Close database" running`,
		},
		{
			name:  "ref",
			event: events.RefChangedEvent{Name: "counter", Value: "3", JustChanged: true, Timestamp: now},
			want:  "ref counter = 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, formatEvent(tt.event), tt.want)
		})
	}
}

func TestFormatEventSkipsQuietChanges(t *testing.T) {
	assert.Empty(t, formatEvent(events.TaskNotificationEvent{Name: "sleep", Cleared: true}))
	assert.Empty(t, formatEvent(events.RefChangedEvent{Name: "counter", Value: "3"}))
}

func TestGraphPaneRendersEveryNode(t *testing.T) {
	m := newTestModel(t, "effect-all")
	view := m.graphPane.View()

	for _, n := range m.Example().Nodes() {
		assert.Contains(t, view, n.Name())
	}
}

func TestGraphPaneShowsRefs(t *testing.T) {
	m := newTestModel(t, "ref-update-and-get")

	assert.Contains(t, m.graphPane.View(), "Refs")
}

func TestGraphPaneShowsFinalizers(t *testing.T) {
	m := newTestModel(t, "effect-acquire-release")

	m = press(t, m, KeyRun)
	waitRoot(t, m.Example())

	require.Eventually(t, func() bool {
		return len(m.Example().Scope.Finalizers()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, m.graphPane.View(), "Close database")
}

func TestListPaneScrollKeepsSelectionVisible(t *testing.T) {
	manifest := catalog.Manifest()
	last := manifest[len(manifest)-1]

	l := NewListPaneModel(last.ID)
	l.SetSize(40, 12)
	assert.Equal(t, last.ID, l.Selected().ID)
	assert.Contains(t, l.View(), last.Name)
	assert.NotContains(t, l.View(), strings.ToUpper(string(catalog.SectionConstructors)))
}

func TestValidDuration(t *testing.T) {
	assert.NoError(t, validDuration("800ms"))
	assert.Error(t, validDuration("soon"))
	assert.Error(t, validDuration("0s"))
	assert.Error(t, validDuration("-1s"))
}
