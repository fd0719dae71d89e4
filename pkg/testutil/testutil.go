// Package testutil builds declaration graphs for tests.
package testutil

import (
	"fmt"
	"strings"

	"github.com/panbanda/unreach/pkg/graph"
)

// Builder assembles a graph one declaration per source line.
type Builder struct {
	G *graph.SourceGraph

	file   string
	line   int
	symbol map[graph.DeclID]string
}

// NewBuilder returns a builder writing into Sources/App/main.swift of module App.
func NewBuilder() *Builder {
	b := &Builder{G: graph.New(), symbol: make(map[graph.DeclID]string)}
	b.File("Sources/App/main.swift", "App")
	return b
}

// File switches the file subsequent declarations and references are placed in.
func (b *Builder) File(path string, modules ...string) *Builder {
	b.file = path
	b.line = 0
	b.G.AddSourceFile(path, modules...)
	b.G.MarkIndexedModules(modules...)
	return b
}

// Next returns the next free location in the current file.
func (b *Builder) Next() graph.Location {
	b.line++
	return graph.Location{Path: b.file, Line: b.line, Column: 1}
}

// DeclOption customizes a declaration fact.
type DeclOption func(*graph.DeclarationFact)

// Access sets an explicit accessibility.
func Access(a graph.Accessibility) DeclOption {
	return func(f *graph.DeclarationFact) {
		f.Accessibility = a
		f.ExplicitAccessibility = true
	}
}

// ImplicitAccess sets an accessibility that was not written in source.
func ImplicitAccess(a graph.Accessibility) DeclOption {
	return func(f *graph.DeclarationFact) { f.Accessibility = a }
}

// Attrs adds attributes.
func Attrs(attrs ...string) DeclOption {
	return func(f *graph.DeclarationFact) { f.Attributes = append(f.Attributes, attrs...) }
}

// Mods adds modifiers.
func Mods(mods ...string) DeclOption {
	return func(f *graph.DeclarationFact) { f.Modifiers = append(f.Modifiers, mods...) }
}

// Implicit marks the declaration as compiler-synthesized.
func Implicit() DeclOption {
	return func(f *graph.DeclarationFact) { f.IsImplicit = true }
}

// ObjcAccessible marks the declaration as exposed to the runtime bridge.
func ObjcAccessible() DeclOption {
	return func(f *graph.DeclarationFact) { f.IsObjcAccessible = true }
}

// Type sets the declared type.
func Type(t string) DeclOption {
	return func(f *graph.DeclarationFact) { f.DeclaredType = t }
}

// Directive attaches comment directives.
func Directive(raw ...string) DeclOption {
	return func(f *graph.DeclarationFact) { f.Directives = graph.ParseDirectives(raw) }
}

// At places the declaration at loc.
func At(loc graph.Location) DeclOption {
	return func(f *graph.DeclarationFact) { f.Location = loc }
}

// Symbol overrides the generated symbol id.
func Symbol(id string) DeclOption {
	return func(f *graph.DeclarationFact) { f.SymbolIDs = []string{id} }
}

// Decl adds a declaration. Symbol ids are derived from the parent chain so
// members with the same name in different types stay distinct.
func (b *Builder) Decl(parent graph.DeclID, kind graph.Kind, name string, opts ...DeclOption) graph.DeclID {
	sym := "s:" + name
	if p, ok := b.symbol[parent]; ok {
		sym = p + "." + name
	}
	loc := b.Next()
	if kind.IsExtension() {
		sym = fmt.Sprintf("s:extension:%s:%s:%d", name, loc.Path, loc.Line)
	}
	f := graph.DeclarationFact{
		Kind:          kind,
		Name:          name,
		SymbolIDs:     []string{sym},
		Location:      loc,
		Parent:        parent,
		Accessibility: graph.AccessInternal,
	}
	for _, opt := range opts {
		opt(&f)
	}
	id := b.G.AddDeclaration(f)
	b.symbol[id] = f.SymbolIDs[0]
	return id
}

// Param adds an unused parameter to fn.
func (b *Builder) Param(fn graph.DeclID, name string) graph.DeclID {
	f := graph.DeclarationFact{
		Kind:      graph.KindParameterVar,
		Name:      name,
		SymbolIDs: []string{b.symbol[fn] + ".param." + name},
		Location:  b.Next(),
	}
	id := b.G.AddUnusedParameter(fn, f)
	b.symbol[id] = f.SymbolIDs[0]
	return id
}

// Import records an import of module in the current file.
func (b *Builder) Import(module string, opts ...func(*graph.ImportStatement)) graph.Location {
	imp := graph.ImportStatement{Module: module, Location: b.Next()}
	for _, opt := range opts {
		opt(&imp)
	}
	b.G.AddImportStatement(b.file, imp)
	return imp.Location
}

// RefOption customizes a reference fact.
type RefOption func(*graph.ReferenceFact)

// RefAt places the reference at loc.
func RefAt(loc graph.Location) RefOption {
	return func(f *graph.ReferenceFact) { f.Location = loc }
}

// RefRole sets the reference role.
func RefRole(r graph.Role) RefOption {
	return func(f *graph.ReferenceFact) { f.Role = r }
}

// SymbolOf returns the primary symbol id of id.
func (b *Builder) SymbolOf(id graph.DeclID) string {
	return b.symbol[id]
}

// Ref adds an ordinary reference from `from` (NoDecl for a root reference)
// to the declaration `to`.
func (b *Builder) Ref(from, to graph.DeclID, opts ...RefOption) graph.RefID {
	return b.ref(from, to, false, opts...)
}

// Related adds an inheritance or conformance reference.
func (b *Builder) Related(from, to graph.DeclID, opts ...RefOption) graph.RefID {
	return b.ref(from, to, true, opts...)
}

func (b *Builder) ref(from, to graph.DeclID, related bool, opts ...RefOption) graph.RefID {
	target := b.G.Declaration(to)
	f := graph.ReferenceFact{
		Kind:      target.Kind,
		SymbolID:  b.symbol[to],
		Name:      target.Name,
		IsRelated: related,
		Parent:    from,
	}
	if related {
		f.Role = graph.RoleInheritedType
		if from != graph.NoDecl {
			f.Location = b.G.Declaration(from).Location
		}
	}
	if f.Location.Path == "" {
		f.Location = b.Next()
	}
	for _, opt := range opts {
		opt(&f)
	}
	return b.G.AddReference(f)
}

// External adds a reference to a symbol outside the indexed modules.
func (b *Builder) External(from graph.DeclID, kind graph.Kind, name string, related bool, opts ...RefOption) graph.RefID {
	f := graph.ReferenceFact{
		Kind:      kind,
		SymbolID:  "s:ext:" + strings.ReplaceAll(name, " ", "_"),
		Name:      name,
		IsRelated: related,
		Parent:    from,
	}
	if related && from != graph.NoDecl {
		f.Role = graph.RoleInheritedType
		f.Location = b.G.Declaration(from).Location
	} else {
		f.Location = b.Next()
	}
	for _, opt := range opts {
		opt(&f)
	}
	return b.G.AddReference(f)
}
