package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// markUnusedImports adds a placeholder module declaration for every import
// of an indexed module that nothing in the importing file resolves into.
// The placeholder is never referenced, so it is reported as unused.
func markUnusedImports(g *graph.SourceGraph, cfg *config.Config) error {
	if cfg.Analysis.DisableUnusedImports {
		return nil
	}

	referenced := referencedModulesByFile(g)

	for _, path := range g.SourceFiles() {
		own := g.ModulesOf(path)
		for _, imp := range g.Imports(path) {
			if !g.IsIndexedModule(imp.Module) || imp.IsExported || imp.Directives.Ignore {
				continue
			}
			if containsString(own, imp.Module) {
				continue
			}
			if importUsed(g, imp.Module, referenced[path]) {
				continue
			}
			g.AddDeclaration(graph.DeclarationFact{
				Kind:          graph.KindModule,
				Name:          imp.Module,
				Location:      imp.Location,
				Accessibility: graph.AccessInternal,
				Directives:    imp.Directives,
			})
		}
	}
	return nil
}

func importUsed(g *graph.SourceGraph, module string, referenced map[string]struct{}) bool {
	if _, ok := referenced[module]; ok {
		return true
	}
	for m := range referenced {
		if g.IsExportedBy(m, module) {
			return true
		}
	}
	return false
}

// referencedModulesByFile maps each file to the modules its references
// resolve into.
func referencedModulesByFile(g *graph.SourceGraph) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	add := func(rid graph.RefID) {
		r := g.Reference(rid)
		target, ok := g.ResolveSymbol(r.SymbolID)
		if !ok {
			return
		}
		set := out[r.Location.Path]
		if set == nil {
			set = make(map[string]struct{})
			out[r.Location.Path] = set
		}
		for _, m := range g.ModulesOf(g.Declaration(target).Location.Path) {
			set[m] = struct{}{}
		}
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		for _, rid := range d.References() {
			add(rid)
		}
		for _, rid := range d.Related() {
			add(rid)
		}
	}
	for _, rid := range g.RootReferences() {
		add(rid)
	}
	return out
}
