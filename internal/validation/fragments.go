package validation

import (
	language "github.com/hanpama/querycheck/internal/language"
)

// fragmentGraph is the fragment-spread dependency graph of one document.
// It is built before the walk so every rule can rely on knowing which
// fragments are cyclic.
type fragmentGraph struct {
	defs  map[string]*language.FragmentDefinition
	order []string
	// edges lists the distinct fragments each fragment spreads, in source order.
	edges map[string][]string
	// roots lists the distinct fragments each operation spreads directly.
	roots  map[*language.OperationDefinition][]string
	cycles map[string][]string
}

func buildFragmentGraph(doc *language.QueryDocument) *fragmentGraph {
	g := &fragmentGraph{
		defs:   map[string]*language.FragmentDefinition{},
		edges:  map[string][]string{},
		roots:  map[*language.OperationDefinition][]string{},
		cycles: map[string][]string{},
	}
	if doc == nil {
		return g
	}
	for _, f := range doc.Fragments {
		if _, dup := g.defs[f.Name]; dup {
			continue
		}
		g.defs[f.Name] = f
		g.order = append(g.order, f.Name)
		g.edges[f.Name] = spreadNames(f.SelectionSet)
	}
	for _, op := range doc.Operations {
		g.roots[op] = spreadNames(op.SelectionSet)
	}
	g.findCycles()
	return g
}

// spreadNames collects the distinct fragment names spread anywhere in set,
// looking through inline fragments and fields.
func spreadNames(set language.SelectionSet) []string {
	var names []string
	seen := map[string]bool{}
	var visit func(language.SelectionSet)
	visit = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				visit(sel.SelectionSet)
			case *language.InlineFragment:
				visit(sel.SelectionSet)
			case *language.FragmentSpread:
				if !seen[sel.Name] {
					seen[sel.Name] = true
					names = append(names, sel.Name)
				}
			}
		}
	}
	visit(set)
	return names
}

// findCycles runs Tarjan's strongly connected components algorithm without
// recursion, so deep fragment chains cannot exhaust the stack. A fragment is
// cyclic when its component has more than one member or it spreads itself.
func (g *fragmentGraph) findCycles() {
	index := map[string]int{}
	low := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	next := 0

	type frame struct {
		name string
		edge int
	}

	for _, root := range g.order {
		if _, seen := index[root]; seen {
			continue
		}
		work := []frame{{name: root}}
		index[root], low[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(work) > 0 {
			top := &work[len(work)-1]
			edges := g.edges[top.name]
			if top.edge < len(edges) {
				to := edges[top.edge]
				top.edge++
				if _, defined := g.defs[to]; !defined {
					continue
				}
				if _, seen := index[to]; !seen {
					index[to], low[to] = next, next
					next++
					stack = append(stack, to)
					onStack[to] = true
					work = append(work, frame{name: to})
				} else if onStack[to] && index[to] < low[top.name] {
					low[top.name] = index[to]
				}
				continue
			}

			name := top.name
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].name
				if low[name] < low[parent] {
					low[parent] = low[name]
				}
			}
			if low[name] != index[name] {
				continue
			}
			var component []string
			for {
				n := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[n] = false
				component = append(component, n)
				if n == name {
					break
				}
			}
			if len(component) > 1 || g.spreads(name, name) {
				members := map[string]bool{}
				for _, n := range component {
					members[n] = true
				}
				for _, n := range component {
					g.cycles[n] = g.cyclePath(n, members)
				}
			}
		}
	}
}

func (g *fragmentGraph) spreads(from, to string) bool {
	for _, n := range g.edges[from] {
		if n == to {
			return true
		}
	}
	return false
}

// cyclePath finds the shortest spread path from start back to itself inside
// one strongly connected component, e.g. [A B A].
func (g *fragmentGraph) cyclePath(start string, members map[string]bool) []string {
	prev := map[string]string{}
	queue := []string{start}
	visited := map[string]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, to := range g.edges[n] {
			if !members[to] {
				continue
			}
			if to == start {
				path := []string{start}
				for at := n; at != start; at = prev[at] {
					path = append(path, at)
				}
				path = append(path, start)
				// Built backwards from the closing edge; flip the middle.
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if !visited[to] {
				visited[to] = true
				prev[to] = n
				queue = append(queue, to)
			}
		}
	}
	return []string{start, start}
}

// cyclic reports whether name takes part in a spread cycle. Expanding a
// cyclic fragment would never terminate.
func (g *fragmentGraph) cyclic(name string) bool {
	_, ok := g.cycles[name]
	return ok
}

// reachable lists every fragment an operation reaches through spreads,
// transitively, in discovery order.
func (g *fragmentGraph) reachable(op *language.OperationDefinition) []string {
	var out []string
	seen := map[string]bool{}
	queue := append([]string(nil), g.roots[op]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		if _, ok := g.defs[n]; !ok {
			continue
		}
		out = append(out, n)
		queue = append(queue, g.edges[n]...)
	}
	return out
}
