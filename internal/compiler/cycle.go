package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/plancore/internal/ir"
)

// CycleWarning reports a set of retag rules that can rewrite an op type
// back into itself.
//
// Cycles are warnings, not errors: the processor detects the repeated
// subtree and stops, and a rule set may oscillate on purpose while another
// rule, a hoist for instance, eventually removes the node.
type CycleWarning struct {
	Path    []string `json:"path"`    // op types: ["And", "Or", "And"]
	Rules   []string `json:"rules"`   // rules along the path, one per edge
	Message string   `json:"message"` // human-readable description
	Level   string   `json:"level"`   // "warning"
}

// retagEdge is one retag rule seen as an edge between op types.
type retagEdge struct {
	to   ir.OpType
	rule string
}

// retagGraph maps an op type to the op types its retag rules produce.
type retagGraph map[ir.OpType][]retagEdge

// AnalyzeCycles performs static cycle analysis on declarative rules.
//
// The algorithm:
//  1. Build an op type graph with one edge per retag rule (match -> target)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or a self-loop, as a potential cycle
//
// Hoist rules never add an edge; they shrink the tree. A graph without
// cycles returns an empty warning list.
func AnalyzeCycles(rules []RuleSpec) []CycleWarning {
	graph := buildRetagGraph(rules)
	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

func buildRetagGraph(rules []RuleSpec) retagGraph {
	graph := make(retagGraph)
	for _, r := range rules {
		if r.Kind != RewriteRetag {
			continue
		}
		graph[r.Match] = append(graph[r.Match], retagEdge{to: r.Target, rule: r.Name})
		if _, ok := graph[r.Target]; !ok {
			graph[r.Target] = nil
		}
	}
	return graph
}

func hasSelfLoop(t ir.OpType, graph retagGraph) bool {
	for _, e := range graph[t] {
		if e.to == t {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in OpType order so the result is deterministic.
func tarjanSCC(graph retagGraph) [][]ir.OpType {
	var (
		index   = 0
		stack   []ir.OpType
		indices = make(map[ir.OpType]int)
		lowlink = make(map[ir.OpType]int)
		onStack = make(map[ir.OpType]bool)
		sccs    [][]ir.OpType
	)

	var strongConnect func(ir.OpType)
	strongConnect = func(v ir.OpType) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range graph[v] {
			w := e.to
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []ir.OpType
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

	nodes := make([]ir.OpType, 0, len(graph))
	for t := range graph {
		nodes = append(nodes, t)
	}
	slices.Sort(nodes)
	for _, t := range nodes {
		if _, visited := indices[t]; !visited {
			strongConnect(t)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []ir.OpType, graph retagGraph) CycleWarning {
	path, rules := reconstructCyclePath(scc, graph)
	names := make([]string, len(path))
	for i, t := range path {
		names[i] = t.String()
	}
	msg := fmt.Sprintf("Potential rewrite cycle: %s", strings.Join(names, " -> "))
	if len(scc) == 1 {
		msg = fmt.Sprintf("Self-retagging rule: %s -> %s", names[0], names[0])
	}
	return CycleWarning{
		Path:    names,
		Rules:   rules,
		Message: fmt.Sprintf("%s (rules: %s)", msg, strings.Join(rules, ", ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks from the lowest op type in the SCC along
// edges that stay inside it until it returns to the start.
func reconstructCyclePath(scc []ir.OpType, graph retagGraph) ([]ir.OpType, []string) {
	inSCC := make(map[ir.OpType]bool, len(scc))
	for _, t := range scc {
		inSCC[t] = true
	}
	start := scc[0]
	current := start
	path := []ir.OpType{start}
	var rules []string
	visited := make(map[ir.OpType]bool)
	for {
		visited[current] = true
		var next *retagEdge
		for i := range graph[current] {
			e := &graph[current][i]
			if inSCC[e.to] && (!visited[e.to] || e.to == start) {
				next = e
				break
			}
		}
		if next == nil {
			break
		}
		path = append(path, next.to)
		rules = append(rules, next.rule)
		if next.to == start {
			break
		}
		current = next.to
	}
	return path, rules
}
