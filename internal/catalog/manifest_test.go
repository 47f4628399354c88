package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestIsComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Manifest() {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true

		assert.NotEmpty(t, m.Name, m.ID)
		assert.NotEmpty(t, m.Description, m.ID)
		assert.Contains(t, Sections, m.Section, m.ID)
		assert.Contains(t, builders, m.ID, "%s has no builder", m.ID)
	}
	assert.Len(t, builders, len(seen))
}

func TestManifestSectionsAreContiguous(t *testing.T) {
	var order []Section
	for _, m := range Manifest() {
		if len(order) == 0 || order[len(order)-1] != m.Section {
			order = append(order, m.Section)
		}
	}
	assert.Equal(t, Sections, order)
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("effect-all-short-circuit")
	require.True(t, ok)
	assert.Equal(t, "Effect.all (short circuit)", m.Title())
	assert.Equal(t, SectionErrorHandling, m.Section)

	m, ok = Lookup("effect-all")
	require.True(t, ok)
	assert.Equal(t, "Effect.all", m.Title())
	assert.Equal(t, []string{ConcurrencySequential, ConcurrencyBounded, ConcurrencyUnbounded}, m.Options)

	m.Options[0] = "changed"
	again, _ := Lookup("effect-all")
	assert.Equal(t, ConcurrencySequential, again.Options[0], "lookups return copies")

	_, ok = Lookup("effect-teleport")
	assert.False(t, ok)
}

func TestInSection(t *testing.T) {
	var ids []string
	for _, m := range InSection(SectionScope) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"effect-add-finalizer", "effect-acquire-release"}, ids)
}
