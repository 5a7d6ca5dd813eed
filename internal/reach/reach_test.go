package reach

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func reached(g *Graph) []string {
	set := g.Reachable()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

func TestGraph_LinearChain(t *testing.T) {
	g := NewGraph()
	g.AddRoot("main")
	g.AddEdge("main", "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	require.ElementsMatch(t, []string{"main", "a", "b", "c"}, reached(g))
}

func TestGraph_DeadCycleStaysDead(t *testing.T) {
	g := NewGraph()
	g.AddRoot("main")
	g.AddEdge("ping", "pong")
	g.AddEdge("pong", "ping")

	require.ElementsMatch(t, []string{"main"}, reached(g))
}

func TestGraph_LiveCycleTerminates(t *testing.T) {
	g := NewGraph()
	g.AddRoot("main")
	g.AddEdge("main", "ping")
	g.AddEdge("ping", "pong")
	g.AddEdge("pong", "ping")

	require.ElementsMatch(t, []string{"main", "ping", "pong"}, reached(g))
}

func TestGraph_FileScopeEdgeBecomesRoot(t *testing.T) {
	g := NewGraph()
	g.AddEdge("", "handler")
	g.AddEdge("handler", "helper")

	require.ElementsMatch(t, []string{"handler", "helper"}, reached(g))
}

func TestGraph_MultipleRoots(t *testing.T) {
	g := NewGraph()
	g.AddRoot("api_open")
	g.AddRoot("api_close")
	g.AddEdge("api_open", "helper")
	g.AddEdge("stale", "helper")

	set := g.Reachable()
	require.Contains(t, set, "helper")
	require.NotContains(t, set, "stale")
}

func TestGraph_EmptyNamesIgnored(t *testing.T) {
	g := NewGraph()
	g.AddRoot("")
	g.AddEdge("main", "")

	require.Empty(t, reached(g))
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()
	g.AddRoot("main")
	g.AddEdge("main", "a")
	g.AddEdge("main", "a")
	g.AddEdge("main", "a")

	require.ElementsMatch(t, []string{"main", "a"}, reached(g))
}
