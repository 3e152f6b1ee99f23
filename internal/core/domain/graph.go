// Package domain contains the core domain models of the package manager: packages,
// repositories, the installed database, resolution plans and transactions.
package domain

import (
	"iter"
	"maps"
	"slices"
)

const (
	unvisited = iota
	visiting
	visited
)

// Graph is a dependency graph of packages keyed by name.
// An edge from a to b means a depends on b.
type Graph struct {
	deps         map[string][]string
	dependents   map[string][]string
	order        []string
	reverseOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// AddNode adds a package without edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.deps[name]; !ok {
		g.deps[name] = nil
	}
}

// AddEdge records that from depends on to, adding both nodes if needed.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.deps[from] = insertSorted(g.deps[from], to)
	g.dependents[to] = insertSorted(g.dependents[to], from)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.deps[name]
	return ok
}

// Nodes returns every node in lexicographic order.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.deps))
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.deps)
}

// DependenciesOf returns the direct dependencies of name, sorted.
func (g *Graph) DependenciesOf(name string) []string {
	return slices.Clone(g.deps[name])
}

// DependentsOf returns the nodes directly depending on name, sorted.
func (g *Graph) DependentsOf(name string) []string {
	return slices.Clone(g.dependents[name])
}

// Validate rejects cycles and computes the walk orders.
// On success Walk yields dependencies before dependents and WalkReverse the opposite,
// both breaking ties by name.
func (g *Graph) Validate() error {
	if err := g.detectCycle(); err != nil {
		return err
	}
	nodes := g.Nodes()
	g.order = kahn(nodes, g.deps, g.dependents)
	g.reverseOrder = kahn(nodes, g.dependents, g.deps)
	return nil
}

// detectCycle runs an iterative depth-first search so that deep graphs cannot exhaust the stack.
func (g *Graph) detectCycle() error {
	type frame struct {
		node string
		next int
	}

	state := make(map[string]int, len(g.deps))
	for _, root := range g.Nodes() {
		if state[root] != unvisited {
			continue
		}
		state[root] = visiting
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.node]
			if top.next == len(deps) {
				state[top.node] = visited
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++
			switch state[dep] {
			case visiting:
				path := make([]string, 0, len(stack)+1)
				for _, f := range stack {
					path = append(path, f.node)
				}
				return buildCycleError(path, dep)
			case unvisited:
				state[dep] = visiting
				stack = append(stack, frame{node: dep})
			}
		}
	}
	return nil
}

// buildCycleError cuts the DFS path down to the cycle closing at dep.
func buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return &CyclicDependencyError{Cycle: cycle}
}

// kahn orders nodes so that every node comes after all nodes it waits for.
// The ready set is kept sorted, making the order deterministic.
func kahn(nodes []string, waitsFor, unblocks map[string][]string) []string {
	pending := make(map[string]int, len(nodes))
	var ready []string
	for _, n := range nodes {
		pending[n] = len(waitsFor[n])
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, m := range unblocks[n] {
			pending[m]--
			if pending[m] == 0 {
				ready = insertSorted(ready, m)
			}
		}
	}
	return order
}

func insertSorted(s []string, v string) []string {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// Walk returns an iterator that yields package names, dependencies first.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range g.order {
			if !yield(name) {
				return
			}
		}
	}
}

// WalkReverse returns an iterator that yields package names, dependents first.
// It assumes Validate() has been called and returned nil.
func (g *Graph) WalkReverse() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range g.reverseOrder {
			if !yield(name) {
				return
			}
		}
	}
}
