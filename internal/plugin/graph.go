package plugin

import (
	"cmp"
	"slices"
)

type color uint8

const (
	white color = iota // unvisited
	grey               // on the current DFS path
	black              // emitted
)

// graph is the name-keyed dependency graph of the registered plugins.
// Edges point from a plugin to the plugins it depends on.
type graph struct {
	nodes []string            // priority order, ties in registration order
	edges map[string][]string // declared dependencies present in the graph
}

// newGraph builds a graph over plugins, given in registration order.
// Dependencies naming plugins outside the set are dropped.
func newGraph(plugins []Plugin) *graph {
	sorted := slices.Clone(plugins)
	slices.SortStableFunc(sorted, func(a, b Plugin) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})

	known := make(map[string]struct{}, len(plugins))
	for _, p := range plugins {
		known[p.Name()] = struct{}{}
	}

	g := &graph{
		nodes: make([]string, 0, len(sorted)),
		edges: make(map[string][]string, len(sorted)),
	}
	for _, p := range sorted {
		g.nodes = append(g.nodes, p.Name())
		for _, dep := range p.Dependencies() {
			if _, ok := known[dep]; ok {
				g.edges[p.Name()] = append(g.edges[p.Name()], dep)
			}
		}
	}
	return g
}

// frame is one level of the explicit DFS stack.
type frame struct {
	name string
	next int // index of the next dependency to visit
}

// order returns a topological order in which every plugin follows its
// dependencies. Independent plugins keep priority order. A back edge to a
// grey node yields a *CycleError.
func (g *graph) order() ([]string, error) {
	colors := make(map[string]color, len(g.nodes))
	out := make([]string, 0, len(g.nodes))
	var stack []frame

	for _, root := range g.nodes {
		if colors[root] != white {
			continue
		}
		colors[root] = grey
		stack = append(stack[:0], frame{name: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.edges[top.name]

			if top.next == len(deps) {
				colors[top.name] = black
				out = append(out, top.name)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++

			switch colors[dep] {
			case white:
				colors[dep] = grey
				stack = append(stack, frame{name: dep})
			case grey:
				return nil, &CycleError{Path: cyclePath(stack, dep)}
			}
		}
	}
	return out, nil
}

// cyclePath extracts the cycle closed by an edge into dep from the stack.
func cyclePath(stack []frame, dep string) []string {
	start := slices.IndexFunc(stack, func(f frame) bool { return f.name == dep })
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.name)
	}
	return append(path, dep)
}
