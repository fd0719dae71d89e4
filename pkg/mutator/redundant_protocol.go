package mutator

import (
	"sort"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// markRedundantProtocols records protocols that are only ever named in
// conformance clauses. Nothing uses them as a type and none of their
// requirements is called through them, so the protocol and its
// conformances can go. Protocols refined by a protocol that is still needed
// stay.
func markRedundantProtocols(g *graph.SourceGraph, _ *config.Config) error {
	candidates := make(map[graph.DeclID]struct{})
	for _, id := range g.DeclarationsOfKind(graph.KindProtocol) {
		if g.IsRetained(id) || g.IsIgnored(id) {
			continue
		}
		if usedAsType(g, id) || requirementsUsed(g, id) {
			continue
		}
		candidates[id] = struct{}{}
	}

	// A candidate refined by a needed protocol is needed itself.
	for changed := true; changed; {
		changed = false
		for id := range candidates {
			for _, rid := range g.ReferencesToDeclaration(id) {
				r := g.Reference(rid)
				if !r.IsRelated {
					continue
				}
				owner := g.Declaration(r.Parent())
				if owner == nil || owner.Kind != graph.KindProtocol {
					continue
				}
				if _, ok := candidates[owner.ID]; !ok {
					delete(candidates, id)
					changed = true
					break
				}
			}
		}
	}

	for id := range candidates {
		rp := graph.RedundantProtocol{Replacements: refinedProtocols(g, id)}
		for _, rid := range g.ReferencesToDeclaration(id) {
			r := g.Reference(rid)
			owner := g.Declaration(r.Parent())
			if !r.IsRelated || owner == nil || owner.Kind == graph.KindProtocol {
				continue
			}
			rp.Conformances = append(rp.Conformances, rid)
		}
		sort.Slice(rp.Conformances, func(i, j int) bool {
			return g.Reference(rp.Conformances[i]).Location.Less(g.Reference(rp.Conformances[j]).Location)
		})
		g.MarkRedundantProtocol(id, rp)
	}
	return nil
}

func usedAsType(g *graph.SourceGraph, id graph.DeclID) bool {
	for _, rid := range g.ReferencesToDeclaration(id) {
		r := g.Reference(rid)
		if r.IsRelated {
			continue
		}
		// The protocol referencing itself from its own body is not a use.
		if r.Parent() == id || g.IsAncestor(id, r.Parent()) {
			continue
		}
		return true
	}
	return false
}

// requirementsUsed reports whether any member of the protocol is referenced
// by something other than the reference builders, which link requirements
// to implementations and never imply a call through the protocol.
func requirementsUsed(g *graph.SourceGraph, id graph.DeclID) bool {
	for _, c := range g.Descendants(id) {
		for _, rid := range g.ReferencesToDeclaration(c) {
			r := g.Reference(rid)
			if r.Synthesized || r.IsRelated {
				continue
			}
			return true
		}
	}
	return false
}

func refinedProtocols(g *graph.SourceGraph, id graph.DeclID) []string {
	seen := make(map[string]struct{})
	for _, rid := range g.Declaration(id).Related() {
		r := g.Reference(rid)
		if r.Kind != graph.KindProtocol {
			continue
		}
		seen[r.Name] = struct{}{}
	}
	return sortedKeys(seen)
}
