// Package dag provides a small directed acyclic graph keyed by string IDs.
// It keeps insertion order so sorting reproduces the declaration order
// whenever that order already satisfies the dependencies.
package dag

import (
	"fmt"
	"slices"
)

// Node represents a node in the DAG.
type Node[T any] struct {
	// ID is the unique identifier (a join alias)
	ID string
	// Data holds the node payload
	Data T

	index int
}

// Graph represents a directed acyclic graph.
type Graph[T any] struct {
	nodes   map[string]*Node[T]
	order   []string
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:   make(map[string]*Node[T]),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing ID fails.
func (g *Graph[T]) AddNode(id string, data T) error {
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("node %q already exists", id)
	}
	g.nodes[id] = &Node[T]{ID: id, Data: data, index: len(g.order)}
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph[T]) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph[T]) GetNode(id string) (*Node[T], bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node.
func (g *Graph[T]) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node.
func (g *Graph[T]) GetChildren(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph[T]) NodeCount() int {
	return len(g.nodes)
}

// GetRoots returns nodes with no parents, in insertion order.
func (g *Graph[T]) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph[T]) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, childID := range g.edges[id] {
			if onStack[childID] {
				start := slices.Index(stack, childID)
				cyclePath = append(slices.Clone(stack[start:]), childID)
				return true
			}
			if !visited[childID] && dfs(childID) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}
	return false, nil
}

// TopologicalSort returns nodes with every dependency before its dependents.
// Among the nodes ready at each step the earliest inserted comes first.
// Returns an error if the graph contains a cycle.
func (g *Graph[T]) TopologicalSort() ([]*Node[T], error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	pending := make(map[string]int, len(g.nodes))
	var ready []*Node[T]
	for _, id := range g.order {
		pending[id] = len(g.parents[id])
		if pending[id] == 0 {
			ready = append(ready, g.nodes[id])
		}
	}

	result := make([]*Node[T], 0, len(g.nodes))
	for len(ready) > 0 {
		next := slices.MinFunc(ready, func(a, b *Node[T]) int { return a.index - b.index })
		ready = slices.DeleteFunc(ready, func(n *Node[T]) bool { return n == next })
		result = append(result, next)

		for _, childID := range g.edges[next.ID] {
			pending[childID]--
			if pending[childID] == 0 {
				ready = append(ready, g.nodes[childID])
			}
		}
	}
	return result, nil
}

// GetUpstreamNodes returns all nodes upstream of the given node, nearest first.
func (g *Graph[T]) GetUpstreamNodes(id string) []string {
	visited := make(map[string]bool)
	var result []string

	queue := slices.Clone(g.parents[id])
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if visited[curr] {
			continue
		}
		visited[curr] = true
		result = append(result, curr)
		queue = append(queue, g.parents[curr]...)
	}
	return result
}
