// Package reach implements worklist reachability over the flat C call
// graph.
//
// C whole-program sweeps reduce to a single name-keyed graph: every call
// and every address-taken reference inside a function definition is an
// edge from the enclosing function to the named target. Reachability is
// computed from the entry points with a standard worklist: each function
// marked reachable has its outgoing edges scanned, newly reached targets
// are queued, and the process runs to a fixed point. A cycle of dead
// functions calling each other is therefore still dead, which a plain
// per-function call count cannot see.
//
// Address-taken references at file scope (function pointer tables,
// initializers outside any function body) have no enclosing caller and
// are treated as roots: the sweep cannot see who walks the table, so the
// referenced functions must be assumed live.
package reach

// Graph is a name-keyed call graph under construction.
type Graph struct {
	// edges maps a caller to its distinct callees and referenced functions.
	edges map[string]map[string]struct{}

	// roots are the entry points for the worklist.
	roots map[string]struct{}
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{
		edges: make(map[string]map[string]struct{}),
		roots: make(map[string]struct{}),
	}
}

// AddRoot marks name as an entry point.
func (g *Graph) AddRoot(name string) {
	if name == "" {
		return
	}
	g.roots[name] = struct{}{}
}

// AddEdge records that caller calls or takes the address of callee.
// An empty caller means file scope; the callee becomes a root.
func (g *Graph) AddEdge(caller, callee string) {
	if callee == "" {
		return
	}
	if caller == "" {
		g.AddRoot(callee)
		return
	}
	out, ok := g.edges[caller]
	if !ok {
		out = make(map[string]struct{})
		g.edges[caller] = out
	}
	out[callee] = struct{}{}
}

// Reachable runs the worklist and returns every name reachable from the
// roots, the roots included. Names without definitions (libc, externals,
// undeclared targets) appear in the set too; callers filter on their own
// records.
func (g *Graph) Reachable() map[string]struct{} {
	reachable := make(map[string]struct{}, len(g.roots))
	worklist := make([]string, 0, len(g.roots))

	for root := range g.roots {
		reachable[root] = struct{}{}
		worklist = append(worklist, root)
	}

	for len(worklist) > 0 {
		name := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for callee := range g.edges[name] {
			if _, seen := reachable[callee]; seen {
				continue
			}
			reachable[callee] = struct{}{}
			worklist = append(worklist, callee)
		}
	}

	return reachable
}
