package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

var (
	codableProtocols   = []string{"Codable", "Decodable"}
	encodableProtocols = []string{"Codable", "Encodable"}
)

func codableNames(cfg *config.Config) []string {
	names := append([]string{}, codableProtocols...)
	names = append(names, encodableProtocols...)
	names = append(names, cfg.Protocols.ExternalCodable...)
	return append(names, cfg.Protocols.ExternalEncodable...)
}

// referenceCodingKeys makes serializable types reference their coding key
// enums, and those enums reference every case. The synthesized coding
// implementation uses them by name.
func referenceCodingKeys(g *graph.SourceGraph, cfg *config.Config) error {
	w := graph.NewInheritanceWalker(g)
	names := codableNames(cfg)

	for _, id := range g.DeclarationsOfKind(graph.KindEnum) {
		e := g.Declaration(id)
		if e.Name != "CodingKeys" && !w.ConformsTo(id, "CodingKey") {
			continue
		}
		owner := e.Parent()
		if p := g.Declaration(owner); p != nil && p.Kind.IsExtension() {
			subject, ok, err := g.ExtendedDeclaration(owner)
			if err != nil || !ok {
				continue
			}
			owner = subject
		}
		if owner == graph.NoDecl || !w.ConformsTo(owner, names...) {
			continue
		}

		synthesize(g, owner, id, e.Location)
		for _, c := range e.Children() {
			if g.Declaration(c).Kind == graph.KindEnumElement {
				synthesize(g, id, c, e.Location)
			}
		}
	}
	return nil
}

// referenceProtocolExtensions links each requirement to the default
// implementation folded in from a protocol extension.
func referenceProtocolExtensions(g *graph.SourceGraph, _ *config.Config) error {
	for _, proto := range g.DeclarationsOfKind(graph.KindProtocol) {
		var requirements, defaults []graph.DeclID
		for _, c := range g.Declaration(proto).Children() {
			if g.Declaration(c).FoldedFrom == graph.KindExtensionProto {
				defaults = append(defaults, c)
			} else {
				requirements = append(requirements, c)
			}
		}
		for _, req := range requirements {
			r := g.Declaration(req)
			for _, def := range defaults {
				m := g.Declaration(def)
				if m.Name == r.Name && m.Kind == r.Kind {
					synthesize(g, req, def, m.Location)
				}
			}
		}
	}
	return nil
}

// referenceProtocolConformances inverts member-to-requirement edges so a
// requirement used through the protocol keeps every implementation alive,
// while using an implementation directly does not keep the requirement.
// Requirements satisfied by name, including through a superclass, are
// linked as well.
func referenceProtocolConformances(g *graph.SourceGraph, _ *config.Config) error {
	invertMemberEdges(g, func(target graph.DeclID) bool { return isInProtocol(g, target) })

	w := graph.NewInheritanceWalker(g)
	for _, conformer := range g.DeclarationsOfKinds(graph.ConformableKinds...) {
		for _, in := range w.InheritedTypes(conformer) {
			if in.Decl == graph.NoDecl || g.Declaration(in.Decl).Kind != graph.KindProtocol {
				continue
			}
			for _, req := range g.Declaration(in.Decl).Children() {
				if g.Declaration(req).FoldedFrom != "" {
					continue
				}
				linkRequirement(g, w, req, conformer)
			}
		}
	}
	return nil
}

func linkRequirement(g *graph.SourceGraph, w *graph.InheritanceWalker, req, conformer graph.DeclID) {
	r := g.Declaration(req)
	candidates := append([]graph.DeclID{conformer}, w.Superclasses(conformer)...)
	for _, owner := range candidates {
		for _, c := range g.Declaration(owner).Children() {
			m := g.Declaration(c)
			if m.Name != r.Name || !satisfies(r.Kind, m.Kind) {
				continue
			}
			if !requirementLinked(g, req, c) {
				synthesize(g, req, c, m.Location)
			}
			return
		}
	}
}

func requirementLinked(g *graph.SourceGraph, req, impl graph.DeclID) bool {
	for _, rid := range g.Declaration(req).References() {
		if t, ok := g.Resolve(rid); ok && t == impl {
			return true
		}
	}
	return false
}

// satisfies reports whether a member of kind impl can fulfil a requirement
// of kind req.
func satisfies(req, impl graph.Kind) bool {
	if req == impl {
		return true
	}
	switch req {
	case graph.KindAssociatedType:
		return impl == graph.KindTypealias || impl.IsConformable()
	case graph.KindStaticMethod:
		return impl == graph.KindClassMethod
	case graph.KindStaticVar:
		return impl == graph.KindClassVar
	}
	return false
}

// referenceOverrides inverts override-to-base edges so a call through the
// base keeps every override alive.
func referenceOverrides(g *graph.SourceGraph, _ *config.Config) error {
	invertMemberEdges(g, func(target graph.DeclID) bool { return !isInProtocol(g, target) })
	return nil
}

// invertMemberEdges replaces related references from a member to an
// indexed member accepted by match with a synthesized reference in the
// opposite direction. Unresolvable edges are left for the external
// override retainer.
func invertMemberEdges(g *graph.SourceGraph, match func(target graph.DeclID) bool) {
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.Kind.IsMember() {
			continue
		}
		for _, rid := range d.Related() {
			r := g.Reference(rid)
			if !r.Kind.IsMember() {
				continue
			}
			target, ok := g.ResolveSymbol(r.SymbolID)
			if !ok || target == id || !match(target) {
				continue
			}
			g.RemoveReference(rid)
			synthesize(g, target, id, d.Location)
		}
	}
}
