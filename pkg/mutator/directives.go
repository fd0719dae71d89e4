package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// retainDirectives applies ignore comment commands. An ignored declaration
// and everything beneath it is excluded from findings and treated as a root.
func retainDirectives(g *graph.SourceGraph, _ *config.Config) error {
	byFile := declsInFile(g)

	ignoreAll := map[string]bool{}
	for path, ids := range byFile {
		for _, id := range ids {
			if g.Declaration(id).Directives.IgnoreAll {
				ignoreAll[path] = true
				break
			}
		}
	}

	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if d.Directives.Ignore || ignoreAll[d.Location.Path] {
			ignoreTree(g, id)
		}
	}
	return nil
}

func ignoreTree(g *graph.SourceGraph, id graph.DeclID) {
	for _, d := range append([]graph.DeclID{id}, g.Descendants(id)...) {
		g.MarkIgnored(d)
		for _, p := range g.Declaration(d).UnusedParameters() {
			g.MarkIgnored(p)
		}
	}
}
