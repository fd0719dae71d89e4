package mutator

import (
	"strings"

	"github.com/panbanda/unreach/pkg/graph"
)

// synthesize adds a pipeline-created reference from `from` to `to` at loc.
func synthesize(g *graph.SourceGraph, from, to graph.DeclID, loc graph.Location) graph.RefID {
	target := g.Declaration(to)
	if target == nil || len(target.SymbolIDs) == 0 {
		return graph.NoRef
	}
	return g.AddReference(graph.ReferenceFact{
		Kind:        target.Kind,
		SymbolID:    target.SymbolIDs[0],
		Name:        target.Name,
		Location:    loc,
		Role:        graph.RoleUnknown,
		Parent:      from,
		Synthesized: true,
	})
}

// retainTree retains id together with everything contained under it.
func retainTree(g *graph.SourceGraph, id graph.DeclID) {
	g.MarkRetained(id)
	for _, d := range g.Descendants(id) {
		g.MarkRetained(d)
	}
}

func parentKind(g *graph.SourceGraph, id graph.DeclID) graph.Kind {
	d := g.Declaration(id)
	if d == nil {
		return ""
	}
	if p := g.Declaration(d.Parent()); p != nil {
		return p.Kind
	}
	return ""
}

func isInProtocol(g *graph.SourceGraph, id graph.DeclID) bool {
	k := parentKind(g, id)
	return k == graph.KindProtocol || k == graph.KindExtensionProto
}

// implementsProtocolRequirement reports whether id is the target of a
// requirement-to-implementation reference, or still carries an unresolved or
// unfolded related edge to a protocol member.
func implementsProtocolRequirement(g *graph.SourceGraph, id graph.DeclID) bool {
	for _, rid := range g.ReferencesToDeclaration(id) {
		r := g.Reference(rid)
		if r.Synthesized && isInProtocol(g, r.Parent()) && g.Declaration(r.Parent()).Name == g.Declaration(id).Name {
			return true
		}
	}
	d := g.Declaration(id)
	for _, rid := range d.Related() {
		r := g.Reference(rid)
		if !r.Kind.IsMember() {
			continue
		}
		if t, ok := g.ResolveSymbol(r.SymbolID); ok && isInProtocol(g, t) {
			return true
		}
	}
	return false
}

// referencedFrom returns references to id and its descendants.
func referencedFrom(g *graph.SourceGraph, id graph.DeclID) []*graph.Reference {
	var out []*graph.Reference
	for _, d := range append([]graph.DeclID{id}, g.Descendants(id)...) {
		for _, rid := range g.ReferencesToDeclaration(d) {
			out = append(out, g.Reference(rid))
		}
	}
	return out
}

// conformersOf returns class, struct and enum declarations whose inherited
// closure contains one of names.
func conformersOf(g *graph.SourceGraph, w *graph.InheritanceWalker, names ...string) []graph.DeclID {
	var out []graph.DeclID
	for _, id := range g.DeclarationsOfKinds(graph.ConformableKinds...) {
		if w.ConformsTo(id, names...) {
			out = append(out, id)
		}
	}
	return out
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func declsInFile(g *graph.SourceGraph) map[string][]graph.DeclID {
	out := make(map[string][]graph.DeclID)
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		out[d.Location.Path] = append(out[d.Location.Path], id)
	}
	return out
}
