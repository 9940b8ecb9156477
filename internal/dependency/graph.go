// Package dependency models the service dependency graph: which
// services must be healthy before another may start. It provides
// deterministic topological ordering, cycle detection that names the
// services on the cycle, and dependent lookups for failure cascades.
package dependency

import (
	"fmt"
	"sort"
	"strings"
)

// NodeID identifies a node in the graph (the service name).
type NodeID string

// Node is one service in the dependency graph.
type Node struct {
	ID           NodeID
	FriendlyName string
	DependsOn    []NodeID
}

// Graph is a directed graph of service dependencies. An edge A -> B
// means A depends on B (B must be healthy before A starts).
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID // insertion order, for deterministic traversal
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]*Node),
	}
}

// AddNode adds a node to the graph. Adding a node with an existing ID
// replaces the previous node but keeps its insertion position.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns the node with the given ID, or nil if not present.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IDs returns all node IDs in insertion order.
func (g *Graph) IDs() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Dependents returns the IDs of nodes that directly depend on the
// given node, in insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var deps []NodeID
	for _, candidate := range g.order {
		node := g.nodes[candidate]
		for _, d := range node.DependsOn {
			if d == id {
				deps = append(deps, candidate)
				break
			}
		}
	}
	return deps
}

// TransitiveDependents returns every node that depends on the given
// node directly or through intermediaries, in insertion order.
func (g *Graph) TransitiveDependents(id NodeID) []NodeID {
	reached := make(map[NodeID]bool)

	var walk func(NodeID)
	walk = func(current NodeID) {
		for _, dep := range g.Dependents(current) {
			if reached[dep] {
				continue
			}
			reached[dep] = true
			walk(dep)
		}
	}
	walk(id)

	var out []NodeID
	for _, candidate := range g.order {
		if reached[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}

// CycleError reports a dependency cycle, naming every service on the
// cycle path in order.
type CycleError struct {
	Path []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path)+1)
	for _, id := range e.Path {
		parts = append(parts, string(id))
	}
	if len(e.Path) > 0 {
		parts = append(parts, string(e.Path[0]))
	}
	return "circular dependency detected: " + strings.Join(parts, " -> ")
}

const (
	unvisited = 0
	visiting  = 1
	visited   = 2
)

// TopologicalOrder returns an ordering in which every node appears
// after all of its dependencies. The order is deterministic for a
// given insertion order. Returns a *CycleError if the graph is cyclic.
func (g *Graph) TopologicalOrder() ([]NodeID, error) {
	state := make(map[NodeID]uint8, len(g.nodes))
	parent := make(map[NodeID]NodeID, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	var dfs func(NodeID) error
	dfs = func(id NodeID) error {
		switch state[id] {
		case visiting:
			// Back-edge: reconstruct the cycle path using parent pointers.
			return &CycleError{Path: reconstructCycle(parent, id)}
		case visited:
			return nil
		}
		state[id] = visiting

		node := g.nodes[id]
		for _, dep := range node.DependsOn {
			// Unknown dependencies are a config concern, checked elsewhere.
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			if _, ok := parent[dep]; !ok {
				parent[dep] = id
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}

		state[id] = visited
		order = append(order, id)
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if err := dfs(id); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// reconstructCycle walks parent pointers from the node where the
// back-edge was found until the cycle closes.
func reconstructCycle(parent map[NodeID]NodeID, start NodeID) []NodeID {
	path := []NodeID{start}
	seen := map[NodeID]bool{start: true}

	current := start
	for {
		next, ok := parent[current]
		if !ok || seen[next] {
			break
		}
		path = append(path, next)
		seen[next] = true
		current = next
	}

	// Parent pointers run from dependency to dependent; reverse so the
	// reported path reads in depends-on direction.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Levels groups nodes by dependency depth: level 0 has no
// dependencies, level n depends only on nodes in levels < n. Nodes
// within a level may start concurrently. Returns a *CycleError for
// cyclic graphs.
func (g *Graph) Levels() ([][]NodeID, error) {
	if _, err := g.TopologicalOrder(); err != nil {
		return nil, err
	}

	depths := make(map[NodeID]int, len(g.nodes))

	var depth func(NodeID) int
	depth = func(id NodeID) int {
		if d, ok := depths[id]; ok {
			return d
		}
		maxDep := -1
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			if d := depth(dep); d > maxDep {
				maxDep = d
			}
		}
		depths[id] = maxDep + 1
		return maxDep + 1
	}

	maxLevel := 0
	for _, id := range g.order {
		if d := depth(id); d > maxLevel {
			maxLevel = d
		}
	}

	levels := make([][]NodeID, maxLevel+1)
	for _, id := range g.order {
		d := depths[id]
		levels[d] = append(levels[d], id)
	}
	return levels, nil
}

// Validate checks that every declared dependency names a known node.
func (g *Graph) Validate() error {
	missing := make(map[string][]string)
	for _, id := range g.order {
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				missing[string(dep)] = append(missing[string(dep)], string(id))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, 0, len(missing))
	for dep := range missing {
		names = append(names, dep)
	}
	sort.Strings(names)

	var parts []string
	for _, dep := range names {
		parts = append(parts, fmt.Sprintf("%s (required by %s)", dep, strings.Join(missing[dep], ", ")))
	}
	return fmt.Errorf("unknown dependencies: %s", strings.Join(parts, "; "))
}
