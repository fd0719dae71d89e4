package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// foldExtensions merges every extension whose subject is indexed into that
// subject: members are re-parented and references moved, then the extension
// is removed. Extensions of external types stay in place. Running the pass
// again finds nothing left to fold.
func foldExtensions(g *graph.SourceGraph, _ *config.Config) error {
	for _, ext := range g.DeclarationsOfKinds(graph.ExtensionKinds...) {
		subject, ok, err := g.ExtendedDeclaration(ext)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fold(g, ext, subject); err != nil {
			return err
		}
	}
	return nil
}

func fold(g *graph.SourceGraph, ext, subject graph.DeclID) error {
	e := g.Declaration(ext)

	for _, c := range e.Children() {
		if err := g.SetParent(c, subject); err != nil {
			return err
		}
		if cd := g.Declaration(c); cd.FoldedFrom == "" {
			cd.FoldedFrom = e.Kind
		}
	}
	for _, rid := range e.References() {
		g.Attach(rid, subject)
	}
	for _, rid := range e.Related() {
		if target, ok := g.Resolve(rid); ok && target == subject {
			continue
		}
		g.Attach(rid, subject)
	}

	if g.IsRetained(ext) {
		g.MarkRetained(subject)
	}
	g.RemoveDeclaration(ext)
	return nil
}
