package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// InheritanceCycles returns the strongly connected groups of types linked by
// inheritance or conformance edges. Such cycles are legal; they are reported
// for diagnostics only. Extensions are attributed to their subject.
func (g *SourceGraph) InheritanceCycles() [][]DeclID {
	dg := simple.NewDirectedGraph()
	w := NewInheritanceWalker(g)

	nodes := g.DeclarationsOfKinds(KindClass, KindStruct, KindEnum, KindProtocol)
	for _, id := range nodes {
		dg.AddNode(simple.Node(int64(id)))
	}

	addEdges := func(from DeclID, src *Declaration) {
		for _, rid := range src.Related() {
			r := g.refs[rid]
			to, ok := g.ResolveSymbol(r.SymbolID)
			// simple graphs do not support self-loops
			if !ok || to == from || dg.Node(int64(to)) == nil {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
		}
	}
	for _, id := range nodes {
		addEdges(id, g.decls[id])
		for _, ext := range w.Extensions(id) {
			addEdges(id, g.decls[ext])
		}
	}

	var cycles [][]DeclID
	for _, comp := range topo.TarjanSCC(dg) {
		if len(comp) < 2 {
			continue
		}
		ids := make([]DeclID, len(comp))
		for i, n := range comp {
			ids[i] = DeclID(n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
