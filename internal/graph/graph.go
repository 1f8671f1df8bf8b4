// Package graph materializes a workflow's steps and dependencies into a
// directed graph and resolves a deterministic execution order over it.
package graph

import (
	"errors"
	"sort"

	"github.com/soochol/stepflow/internal/stepflow"
)

// ErrCycleDetected is returned by ExecutionOrder when the dependency edges
// contain at least one cycle, so no total ordering exists.
var ErrCycleDetected = errors.New("cycle detected in dependency graph")

// Graph is a directed dependency graph over step ids. Edges point from a
// prerequisite step to the steps that depend on it.
type Graph struct {
	nodes    map[string]bool
	children map[string][]string
	parents  map[string][]string
}

// Build constructs the graph for one workflow. Every step becomes a node,
// including steps with no edges; every dependency becomes an edge from its
// prerequisite to its dependent step. Build reads its inputs only.
func Build(steps []stepflow.Step, deps []stepflow.Dependency) *Graph {
	g := &Graph{
		nodes:    make(map[string]bool, len(steps)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
	for _, s := range steps {
		g.nodes[s.ID] = true
	}
	for _, d := range deps {
		g.children[d.PrerequisiteID] = append(g.children[d.PrerequisiteID], d.StepID)
		g.parents[d.StepID] = append(g.parents[d.StepID], d.PrerequisiteID)
	}
	return g
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int { return len(g.nodes) }

// Children returns the steps that directly depend on id.
func (g *Graph) Children(id string) []string { return g.children[id] }

// Parents returns the direct prerequisites of id.
func (g *Graph) Parents(id string) []string { return g.parents[id] }

// ExecutionOrder runs Kahn's algorithm over the graph. It returns a total
// ordering of all nodes in which every prerequisite precedes its dependents,
// or ErrCycleDetected if any node can never reach in-degree zero. When several
// nodes are ready at once the lexicographically smallest id is emitted first,
// so the result is deterministic. Never returns a partial order.
func (g *Graph) ExecutionOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, children := range g.children {
		for _, c := range children {
			inDegree[c]++
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, c := range g.children[id] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
		sort.Strings(queue)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
