package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// retainUnusedParameters keeps parameters that cannot be removed without
// breaking a signature shared with other declarations: protocol
// requirements, overrides and implementations linked by the reference
// builders, external overrides, and functions exported to the runtime.
func retainUnusedParameters(g *graph.SourceGraph, cfg *config.Config) error {
	groups := newFunctionGroups(g)

	for _, members := range groups.all() {
		inProtocol := false
		for _, fn := range members {
			if isInProtocol(g, fn) {
				inProtocol = true
				break
			}
		}

		for _, fn := range members {
			switch {
			case isInProtocol(g, fn) && g.Declaration(fn).FoldedFrom == "":
				// Requirements have no body to use a parameter in.
				retainParameters(g, fn)
			case inProtocol && cfg.Retain.UnusedProtocolFuncParams:
				retainParameters(g, fn)
			case len(members) > 1:
				retainSharedParameters(g, fn, members)
			}
		}
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.Kind.IsFunction() || len(d.UnusedParameters()) == 0 {
			continue
		}
		if hasExternalMemberEdge(g, id) || d.Attributes.HasAny("IBAction", "objc", "IBSegueAction") {
			retainParameters(g, id)
			continue
		}
		for _, p := range d.UnusedParameters() {
			if d.Directives.IgnoresParameter(g.Declaration(p).Name) {
				g.MarkRetained(p)
			}
		}
	}
	return nil
}

func retainParameters(g *graph.SourceGraph, fn graph.DeclID) {
	for _, p := range g.Declaration(fn).UnusedParameters() {
		g.MarkRetained(p)
	}
}

// retainSharedParameters keeps each unused parameter of fn that another
// bodied member of the group does use. The signature must keep it.
func retainSharedParameters(g *graph.SourceGraph, fn graph.DeclID, members []graph.DeclID) {
	for _, p := range g.Declaration(fn).UnusedParameters() {
		name := g.Declaration(p).Name
		for _, other := range members {
			if other == fn || (isInProtocol(g, other) && g.Declaration(other).FoldedFrom == "") {
				continue
			}
			if !hasUnusedParameter(g, other, name) {
				g.MarkRetained(p)
				break
			}
		}
	}
}

func hasUnusedParameter(g *graph.SourceGraph, fn graph.DeclID, name string) bool {
	for _, p := range g.Declaration(fn).UnusedParameters() {
		if g.Declaration(p).Name == name {
			return true
		}
	}
	return false
}

func hasExternalMemberEdge(g *graph.SourceGraph, id graph.DeclID) bool {
	for _, rid := range g.Declaration(id).Related() {
		r := g.Reference(rid)
		if !r.Kind.IsMember() {
			continue
		}
		if _, ok := g.ResolveSymbol(r.SymbolID); !ok {
			return true
		}
	}
	return false
}

// functionGroups partitions functions joined by synthesized references
// between same-named functions: requirement to implementation, base to
// override, requirement to default implementation.
type functionGroups struct {
	parent map[graph.DeclID]graph.DeclID
	order  []graph.DeclID
}

func newFunctionGroups(g *graph.SourceGraph) *functionGroups {
	fg := &functionGroups{parent: make(map[graph.DeclID]graph.DeclID)}
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.Kind.IsFunction() {
			continue
		}
		fg.add(id)
		for _, rid := range d.References() {
			r := g.Reference(rid)
			if !r.Synthesized || !r.Kind.IsFunction() || r.Name != d.Name {
				continue
			}
			if target, ok := g.ResolveSymbol(r.SymbolID); ok {
				fg.add(target)
				fg.union(id, target)
			}
		}
	}
	return fg
}

func (fg *functionGroups) add(id graph.DeclID) {
	if _, ok := fg.parent[id]; !ok {
		fg.parent[id] = id
		fg.order = append(fg.order, id)
	}
}

func (fg *functionGroups) find(id graph.DeclID) graph.DeclID {
	for fg.parent[id] != id {
		fg.parent[id] = fg.parent[fg.parent[id]]
		id = fg.parent[id]
	}
	return id
}

func (fg *functionGroups) union(a, b graph.DeclID) {
	ra, rb := fg.find(a), fg.find(b)
	if ra != rb {
		fg.parent[rb] = ra
	}
}

// all returns the groups in first-insertion order.
func (fg *functionGroups) all() [][]graph.DeclID {
	index := make(map[graph.DeclID]int)
	var out [][]graph.DeclID
	for _, id := range fg.order {
		root := fg.find(id)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], id)
	}
	return out
}
