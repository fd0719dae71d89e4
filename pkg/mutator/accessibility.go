package mutator

import (
	"sort"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// cascadeAccessibility gives members of explicitly scoped extensions and of
// protocols their container's accessibility when they declare none.
func cascadeAccessibility(g *graph.SourceGraph, _ *config.Config) error {
	kinds := append([]graph.Kind{graph.KindProtocol}, graph.ExtensionKinds...)
	for _, id := range g.DeclarationsOfKinds(kinds...) {
		d := g.Declaration(id)
		if d.Kind.IsExtension() && !d.ExplicitAccessibility {
			continue
		}
		for _, c := range g.Descendants(id) {
			cd := g.Declaration(c)
			if !cd.ExplicitAccessibility {
				cd.Accessibility = d.Accessibility
			}
		}
	}
	return nil
}

// accessibilityCandidate filters declarations whose accessibility is
// dictated by something other than their own references.
func accessibilityCandidate(g *graph.SourceGraph, id graph.DeclID) bool {
	d := g.Declaration(id)
	switch {
	case d.IsImplicit, d.Kind.IsExtension(), d.Kind.IsAccessor(),
		d.Kind == graph.KindParameterVar, d.Kind == graph.KindLocalVar,
		d.Kind == graph.KindGenericTypeParam, d.Kind == graph.KindModule:
		return false
	case d.IsOverride(), isInProtocol(g, id), implementsProtocolRequirement(g, id):
		return false
	}
	return true
}

// markRedundantPublic flags public and open declarations that no other
// module references. Uses from files importing the module for testing do
// not count.
func markRedundantPublic(g *graph.SourceGraph, cfg *config.Config) error {
	if cfg.Analysis.DisableRedundantPublic || cfg.Retain.Public {
		return nil
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.ExplicitAccessibility || !d.Accessibility.IsPublic() || !accessibilityCandidate(g, id) {
			continue
		}
		own := g.ModulesOf(d.Location.Path)
		if len(own) == 0 {
			continue
		}

		external := false
		referencing := map[string]struct{}{}
		for _, r := range referencedFrom(g, id) {
			if importsTestably(g, r.Location.Path, own) {
				continue
			}
			for _, m := range g.ModulesOf(r.Location.Path) {
				referencing[m] = struct{}{}
				if !containsString(own, m) {
					external = true
				}
			}
		}
		if external {
			continue
		}
		g.MarkRedundantAccessibility(id, graph.RedundantAccessibility{
			Redundancy: graph.RedundantPublic,
			Modules:    sortedKeys(referencing),
		})
	}
	return nil
}

func importsTestably(g *graph.SourceGraph, path string, modules []string) bool {
	for _, imp := range g.Imports(path) {
		if imp.IsTestable && containsString(modules, imp.Module) {
			return true
		}
	}
	return false
}

// markRedundantInternal flags explicitly internal declarations referenced
// only from their own file.
func markRedundantInternal(g *graph.SourceGraph, cfg *config.Config) error {
	if !cfg.Analysis.RedundantInternal {
		return nil
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.ExplicitAccessibility || d.Accessibility != graph.AccessInternal || !accessibilityCandidate(g, id) {
			continue
		}
		refs := referencedFrom(g, id)
		if len(refs) == 0 {
			continue
		}
		sameFile := true
		for _, r := range refs {
			if r.Location.Path != d.Location.Path {
				sameFile = false
				break
			}
		}
		if sameFile {
			g.MarkRedundantAccessibility(id, graph.RedundantAccessibility{
				Redundancy: graph.RedundantInternal,
				Modules:    g.ModulesOf(d.Location.Path),
			})
		}
	}
	return nil
}

// markRedundantFilePrivate flags explicitly fileprivate members referenced
// only from within their own outermost type. Extensions of that type in the
// same file share its scope.
func markRedundantFilePrivate(g *graph.SourceGraph, cfg *config.Config) error {
	if !cfg.Analysis.RedundantFilePrivate {
		return nil
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.ExplicitAccessibility || d.Accessibility != graph.AccessFilePrivate || d.Parent() == graph.NoDecl {
			continue
		}
		if !accessibilityCandidate(g, id) {
			continue
		}
		scope := typeScope(g, id)
		refs := referencedFrom(g, id)
		if len(refs) == 0 {
			continue
		}

		private := true
		for _, r := range refs {
			if r.Parent() == graph.NoDecl || r.Location.Path != d.Location.Path || typeScope(g, r.Parent()) != scope {
				private = false
				break
			}
		}
		if private {
			g.MarkRedundantAccessibility(id, graph.RedundantAccessibility{
				Redundancy: graph.RedundantFilePrivate,
				Modules:    g.ModulesOf(d.Location.Path),
			})
		}
	}
	return nil
}

// typeScope returns the outermost declaration of id, seeing through an
// unfolded extension to its subject.
func typeScope(g *graph.SourceGraph, id graph.DeclID) graph.DeclID {
	top := g.Outermost(id)
	if g.Declaration(top).Kind.IsExtension() {
		if subject, ok, err := g.ExtendedDeclaration(top); err == nil && ok {
			return g.Outermost(subject)
		}
	}
	return top
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
