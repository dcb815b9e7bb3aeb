package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/store"
	"github.com/actinia-org/actinia-gdi/internal/templating"
)

// CycleError represents a chain of templates that reference each other.
//
// Unlike the runtime guard in the engine, this is found statically across
// the whole store, so a cyclic chain is reported before anyone tries to
// synthesize or fill it.
type CycleError struct {
	Path    []string `json:"path"`    // Cycle path: ["tpl-a", "tpl-b", "tpl-a"]
	Message string   `json:"message"` // Human-readable description
}

// Error implements the error interface.
func (e CycleError) Error() string {
	return e.Message
}

// AsValidationError reports the cycle the way ValidateTemplate reports
// per-template problems.
func (e CycleError) AsValidationError() ValidationError {
	return ValidationError{Field: "template.list", Message: e.Message, Code: ErrCyclicReference}
}

// TemplateGraph maps a template name to the stored templates its steps
// reference, in step order.
type TemplateGraph map[string][]string

// BuildTemplateGraph reads every stored template and records which steps
// reference other stored templates. Templates that fail to render are
// included as nodes without edges; ValidateTemplate reports them.
func BuildTemplateGraph(ctx context.Context, r store.Reader) (TemplateGraph, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	stored := make(map[string]bool, len(names))
	for _, n := range names {
		stored[n] = true
	}

	graph := make(TemplateGraph, len(names))
	for _, name := range names {
		graph[name] = []string{}

		rec, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		rendered, _, err := templating.DiscoverSource(rec.Source)
		if err != nil {
			continue
		}
		var tpl ir.Template
		if err := json.Unmarshal(rendered, &tpl); err != nil {
			continue
		}
		for _, step := range tpl.Template.List {
			if step.Module != "" && stored[step.Module] {
				graph[name] = append(graph[name], step.Module)
			}
		}
	}
	return graph, nil
}

// AnalyzeCycles performs static cycle analysis on a template graph.
//
// The algorithm:
//  1. Use Tarjan's algorithm to find strongly connected components
//  2. Report each SCC with size > 1 or self-loops as a cycle
//
// Nodes are visited in sorted order so the report is deterministic.
// A DAG (no cycles) returns an empty list.
func AnalyzeCycles(graph TemplateGraph) []CycleError {
	cycles := []CycleError{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Path[0] < cycles[j].Path[0]
	})
	return cycles
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph TemplateGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

func sortedNodes(graph TemplateGraph) []string {
	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of template names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph TemplateGraph) [][]string {
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

		// v is a root node: pop the stack and emit an SCC
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
			sccs = append(sccs, scc)
		}
	}

	for _, node := range sortedNodes(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToCycle converts an SCC to a CycleError whose path starts at the
// lexically smallest member.
func sccToCycle(scc []string, graph TemplateGraph) CycleError {
	sort.Strings(scc)
	if len(scc) == 1 {
		name := scc[0]
		return CycleError{
			Path:    []string{name, name},
			Message: fmt.Sprintf("template references itself: %s -> %s", name, name),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleError{
		Path:    path,
		Message: fmt.Sprintf("cyclic template chain: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph TemplateGraph) []string {
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
