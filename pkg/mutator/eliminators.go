package mutator

import (
	"strings"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// eliminateAncestralReferences drops references from a declaration to one
// of its own containers. A type using itself inside its body does not make
// it used.
func eliminateAncestralReferences(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.AllDeclarations() {
		for _, rid := range g.Declaration(id).References() {
			target, ok := g.Resolve(rid)
			if !ok {
				continue
			}
			if g.IsAncestor(target, id) {
				g.RemoveReference(rid)
			}
		}
	}
	return nil
}

// eliminateAssignOnlyReferences finds stored properties that are written but
// never read, drops the references that would keep them alive and records
// them in the assign-only set.
func eliminateAssignOnlyReferences(g *graph.SourceGraph, cfg *config.Config) error {
	if cfg.Retain.AssignOnlyProperties {
		return nil
	}
	for _, id := range g.DeclarationsOfKinds(graph.PropertyKinds...) {
		if assignOnlyExempt(g, cfg, id) {
			continue
		}
		setter, ok := accessorOf(g, id, graph.KindAccessorSetter)
		if !ok {
			continue
		}
		if getter, ok := accessorOf(g, id, graph.KindAccessorGetter); ok && len(g.ReferencesToDeclaration(getter)) > 0 {
			continue
		}
		setterRefs := g.ReferencesToDeclaration(setter)
		if len(setterRefs) == 0 {
			continue
		}

		writes := make(map[graph.Location]struct{}, len(setterRefs))
		for _, rid := range setterRefs {
			writes[g.Reference(rid).Location] = struct{}{}
		}
		var propertyRefs []graph.RefID
		readElsewhere := false
		for _, rid := range g.ReferencesToDeclaration(id) {
			r := g.Reference(rid)
			if r.IsRelated {
				continue
			}
			if _, ok := writes[r.Location]; !ok {
				readElsewhere = true
				break
			}
			propertyRefs = append(propertyRefs, rid)
		}
		if readElsewhere {
			continue
		}

		for _, rid := range propertyRefs {
			g.RemoveReference(rid)
		}
		for _, rid := range setterRefs {
			g.RemoveReference(rid)
		}
		g.MarkAssignOnly(id)
	}
	return nil
}

func assignOnlyExempt(g *graph.SourceGraph, cfg *config.Config, id graph.DeclID) bool {
	d := g.Declaration(id)
	switch {
	case g.IsRetained(id), g.IsIgnored(id):
		return true
	case isInProtocol(g, id), implementsProtocolRequirement(g, id):
		return true
	case isComplexProperty(g, id):
		return true
	case d.Attributes.HasAny("IBOutlet", "IBInspectable", "NSManaged"):
		return true
	}
	return cfg.IsAssignOnlyExemptType(strings.TrimSpace(d.DeclaredType))
}
