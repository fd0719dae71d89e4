package mutator

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// markUsedDeclarations is the terminal pass. It marks every declaration
// reachable from the roots through active references. Roots are retained
// and ignored declarations plus references no declaration owns. A second
// trace records what would be live without the ignore directives: it starts
// only from retained declarations outside any ignored subtree, so an ignored
// declaration counts as live there only when something else references it.
// The classifier uses this to flag superfluous ignores.
func markUsedDeclarations(g *graph.SourceGraph, _ *config.Config) error {
	g.ResetUsed()

	for _, id := range trace(g, append(g.Retained(), g.Ignored()...)) {
		g.MarkUsed(id)
	}
	for _, id := range trace(g, unignored(g, g.Retained())) {
		g.MarkLiveWithoutIgnores(id)
	}
	return nil
}

// trace returns every declaration reachable from roots and the root
// references.
func trace(g *graph.SourceGraph, roots []graph.DeclID) []graph.DeclID {
	seen := roaring.New()
	queue := make([]graph.DeclID, 0, len(roots)*2)

	visit := func(id graph.DeclID) {
		d := g.Declaration(id)
		if d == nil || seen.Contains(uint32(id)) {
			return
		}
		// Parameters are reported against their function and never imply it.
		if d.Kind == graph.KindParameterVar {
			return
		}
		seen.Add(uint32(id))
		queue = append(queue, id)
	}
	follow := func(rid graph.RefID) {
		if target, ok := g.Resolve(rid); ok {
			visit(target)
		}
	}

	for _, id := range roots {
		visit(id)
	}
	for _, rid := range g.RootReferences() {
		follow(rid)
	}

	// Index-based queue avoids reslicing.
	for head := 0; head < len(queue); head++ {
		d := g.Declaration(queue[head])
		for _, rid := range d.References() {
			follow(rid)
		}
		for _, rid := range d.Related() {
			follow(rid)
		}
		// A live member implies a live container.
		if d.Parent() != graph.NoDecl {
			visit(d.Parent())
		}
	}
	return toIDs(seen)
}

func unignored(g *graph.SourceGraph, ids []graph.DeclID) []graph.DeclID {
	out := make([]graph.DeclID, 0, len(ids))
	for _, id := range ids {
		if !g.IsIgnored(id) {
			out = append(out, id)
		}
	}
	return out
}

func toIDs(b *roaring.Bitmap) []graph.DeclID {
	out := make([]graph.DeclID, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, graph.DeclID(it.Next()))
	}
	return out
}
