package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphOrder(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("result", "a", "b"))
	require.NoError(t, g.Add("a"))
	require.NoError(t, g.Add("b", "a"))

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "result"}, order)
	assert.Equal(t, []string{"result", "a", "b"}, g.Nodes())
	assert.Equal(t, []string{"a", "b"}, g.DependsOn("result"))
	assert.Equal(t, []string{"result", "b"}, g.Dependents("a"))
}

func TestGraphErrors(t *testing.T) {
	tests := map[string]struct {
		build  func(g *Graph) error
		expErr string
	}{
		"Adding a node twice should fail.": {
			build: func(g *Graph) error {
				_ = g.Add("a")
				return g.Add("a")
			},
			expErr: `node "a" already exists`,
		},
		"A missing dependency should fail to order.": {
			build: func(g *Graph) error {
				_ = g.Add("a", "ghost")
				_, err := g.Order()
				return err
			},
			expErr: `node "a" depends on non-existent node "ghost"`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.EqualError(t, test.build(NewGraph()), test.expErr)
		})
	}
}

func TestGraphCycle(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("a", "b"))
	require.NoError(t, g.Add("b", "a"))

	_, err := g.Order()
	assert.ErrorContains(t, err, "graph contains cycle")
}

func TestGraphLayers(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("nyc"))
	require.NoError(t, g.Add("berlin"))
	require.NoError(t, g.Add("summary", "nyc"))
	require.NoError(t, g.Add("result", "summary", "berlin"))

	layers, err := g.Layers()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"nyc", "berlin"}, {"summary"}, {"result"}}, layers)

	empty, err := NewGraph().Layers()
	require.NoError(t, err)
	assert.Empty(t, empty)
}
