package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gammazero/toposort"
)

// Graph is the dependency graph of the tasks of an example. An edge from a
// to b means b composes a.
type Graph struct {
	nodes      []string            // insertion order
	dependsOn  map[string][]string // node -> nodes it composes
	dependents map[string][]string // node -> nodes composing it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		dependsOn:  make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// Add adds a node. Returns an error if the name already exists.
func (g *Graph) Add(name string, dependsOn ...string) error {
	if _, exists := g.dependsOn[name]; exists {
		return fmt.Errorf("node %q already exists", name)
	}
	g.nodes = append(g.nodes, name)
	g.dependsOn[name] = slices.Clone(dependsOn)
	for _, dep := range dependsOn {
		g.dependents[dep] = append(g.dependents[dep], name)
	}
	return nil
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// DependsOn returns the nodes name composes.
func (g *Graph) DependsOn(name string) []string {
	return slices.Clone(g.dependsOn[name])
}

// Dependents returns the nodes composing name.
func (g *Graph) Dependents(name string) []string {
	return slices.Clone(g.dependents[name])
}

// Order sorts the nodes topologically with gammazero/toposort.
// Returns an error on a cycle or a dependency that is not a node.
func (g *Graph) Order() ([]string, error) {
	for _, name := range g.nodes {
		for _, dep := range g.dependsOn[name] {
			if _, exists := g.dependsOn[dep]; !exists {
				return nil, fmt.Errorf("node %q depends on non-existent node %q", name, dep)
			}
		}
	}

	var edges []toposort.Edge
	for _, name := range g.nodes {
		deps := g.dependsOn[name]
		if len(deps) == 0 {
			// Nil source keeps isolated nodes in the result.
			edges = append(edges, toposort.Edge{nil, name})
			continue
		}
		for _, dep := range deps {
			edges = append(edges, toposort.Edge{dep, name})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("graph contains cycle: %w", err)
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	if len(order) != len(g.nodes) {
		var missing []string
		for _, name := range g.nodes {
			if !slices.Contains(order, name) {
				missing = append(missing, name)
			}
		}
		return nil, fmt.Errorf("topological sort lost %d nodes: %s", len(missing), strings.Join(missing, ", "))
	}
	return order, nil
}

// Layers groups nodes by depth: inputs first, the result last. Within a
// layer nodes keep insertion order.
func (g *Graph) Layers() ([][]string, error) {
	order, err := g.Order()
	if err != nil || len(order) == 0 {
		return nil, err
	}

	depth := make(map[string]int, len(order))
	maxDepth := 0
	for _, name := range order {
		d := 0
		for _, dep := range g.dependsOn[name] {
			d = max(d, depth[dep]+1)
		}
		depth[name] = d
		maxDepth = max(maxDepth, d)
	}

	layers := make([][]string, maxDepth+1)
	for _, name := range g.nodes {
		layers[depth[name]] = append(layers[depth[name]], name)
	}
	return layers, nil
}
