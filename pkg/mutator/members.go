package mutator

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// rawValueTypes make every enum case constructible from a raw value.
var rawValueTypes = []string{
	"String", "Character", "Substring",
	"Int", "Int8", "Int16", "Int32", "Int64",
	"UInt", "UInt8", "UInt16", "UInt32", "UInt64",
	"Float", "Double", "RawRepresentable", "CaseIterable",
}

// referenceEnumCases keeps every case of raw-value and case-iterable enums.
func referenceEnumCases(g *graph.SourceGraph, _ *config.Config) error {
	w := graph.NewInheritanceWalker(g)
	for _, id := range g.DeclarationsOfKind(graph.KindEnum) {
		if !w.ConformsTo(id, rawValueTypes...) {
			continue
		}
		e := g.Declaration(id)
		for _, c := range e.Children() {
			if g.Declaration(c).Kind == graph.KindEnumElement {
				synthesize(g, id, c, e.Location)
			}
		}
	}
	return nil
}

// referenceDefaultConstructors makes types reference their implicit and
// argument-less constructors and their destructors, which run without an
// explicit reference.
func referenceDefaultConstructors(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKinds(graph.ConformableKinds...) {
		t := g.Declaration(id)
		for _, c := range t.Children() {
			cd := g.Declaration(c)
			switch {
			case cd.Kind == graph.KindConstructor && (cd.IsImplicit || cd.Name == "init()"):
				synthesize(g, id, c, t.Location)
			case cd.Kind == graph.KindDestructor:
				synthesize(g, id, c, t.Location)
			}
		}
	}
	return nil
}

// referenceImplicitInitializers makes a struct's implicit memberwise
// initializer assign the stored properties named by its argument labels.
// The references sit at the initializer so they read as assignments.
func referenceImplicitInitializers(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKind(graph.KindStruct) {
		for _, c := range g.Declaration(id).Children() {
			ctor := g.Declaration(c)
			if ctor.Kind != graph.KindConstructor || !ctor.IsImplicit {
				continue
			}
			for _, label := range ctor.ParameterLabels() {
				prop, ok := g.ChildNamed(id, label, graph.KindInstanceVar)
				if !ok {
					continue
				}
				synthesize(g, c, prop, ctor.Location)
				if setter, ok := accessorOf(g, prop, graph.KindAccessorSetter); ok {
					synthesize(g, c, setter, ctor.Location)
				}
			}
		}
	}
	return nil
}

// referenceComplexAccessors makes properties with explicit accessors or
// observers reference them, since they run whenever the property is used.
func referenceComplexAccessors(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKinds(graph.PropertyKinds...) {
		p := g.Declaration(id)
		for _, c := range p.Children() {
			a := g.Declaration(c)
			if a.Kind.IsAccessor() && !a.IsImplicit {
				synthesize(g, id, c, p.Location)
			}
		}
	}
	return nil
}

func accessorOf(g *graph.SourceGraph, prop graph.DeclID, kind graph.Kind) (graph.DeclID, bool) {
	for _, c := range g.Declaration(prop).Children() {
		if g.Declaration(c).Kind == kind {
			return c, true
		}
	}
	return graph.NoDecl, false
}

// isComplexProperty reports whether prop has explicit accessors or
// observers.
func isComplexProperty(g *graph.SourceGraph, prop graph.DeclID) bool {
	for _, c := range g.Declaration(prop).Children() {
		if a := g.Declaration(c); a.Kind.IsAccessor() && !a.IsImplicit {
			return true
		}
	}
	return false
}
