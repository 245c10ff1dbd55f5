package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mixer/internal/ir"
)

// CycleWarning reports mixins of one target whose ordering dependencies form
// a cycle. Composing such a target fails unless suppression removes a member.
type CycleWarning struct {
	Target  ir.TypeName `json:"target"`
	Path    []string    `json:"path"` // e.g. ["m.A", "m.B", "m.A"]
	Message string      `json:"message"`
}

// AnalyzeCycles finds dependency cycles among each target's configured
// mixins, before suppression. Results are ordered by target, then by the
// first mixin of each cycle.
func AnalyzeCycles(cfg *Config) []CycleWarning {
	var warnings []CycleWarning
	for _, tname := range cfg.TargetNames() {
		graph := buildDependencyGraph(cfg.Targets[tname].Mixins)
		for _, scc := range tarjanSCC(graph) {
			if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
				path := reconstructCyclePath(scc, graph)
				warnings = append(warnings, CycleWarning{
					Target:  tname,
					Path:    path,
					Message: fmt.Sprintf("mixin dependency cycle on %s: %s", tname, strings.Join(path, " → ")),
				})
			}
		}
	}
	return warnings
}

// dependencyGraph maps a mixin to the mixins it must follow.
type dependencyGraph map[string][]string

func buildDependencyGraph(m ir.MixinMap) dependencyGraph {
	graph := make(dependencyGraph, len(m))
	for _, name := range m.SortedNames() {
		edges := []string{}
		for _, dep := range m[name].Dependencies() {
			if _, ok := m[dep]; ok {
				edges = append(edges, string(dep))
			}
		}
		slices.Sort(edges)
		graph[string(name)] = slices.Compact(edges)
	}
	return graph
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC returns the strongly connected components of graph. Each
// component is sorted and components are ordered by their first member.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	slices.SortFunc(sccs, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return sccs
}

// reconstructCyclePath walks edges inside scc from its first member until
// it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
