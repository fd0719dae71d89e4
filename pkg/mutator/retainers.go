package mutator

import (
	"strings"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// retainObjcAccessible keeps declarations the runtime bridge can reach
// dynamically, when configured.
func retainObjcAccessible(g *graph.SourceGraph, cfg *config.Config) error {
	if !cfg.Retain.ObjcAccessible && !cfg.Retain.ObjcAnnotated {
		return nil
	}
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		switch {
		case cfg.Retain.ObjcAccessible && d.IsObjcAccessible:
			g.MarkRetained(id)
		case cfg.Retain.ObjcAnnotated && d.Attributes.HasAny("objc", "objcMembers"):
			g.MarkRetained(id)
			if d.Attributes.Has("objcMembers") {
				retainTree(g, id)
			}
		}
	}
	return nil
}

// retainPropertyWrappers keeps the members a property wrapper type must
// provide.
func retainPropertyWrappers(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKinds(graph.ConformableKinds...) {
		if !g.Declaration(id).Attributes.Has("propertyWrapper") {
			continue
		}
		for _, c := range g.Declaration(id).Children() {
			cd := g.Declaration(c)
			switch {
			case cd.Name == "wrappedValue", cd.Name == "projectedValue":
				g.MarkRetained(c)
			case cd.Kind == graph.KindConstructor && strings.HasPrefix(cd.Name, "init(wrappedValue:"):
				g.MarkRetained(c)
			}
		}
	}
	return nil
}

// retainResultBuilders keeps the static build methods the compiler calls
// when transforming builder closures.
func retainResultBuilders(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKinds(graph.ConformableKinds...) {
		if !g.Declaration(id).Attributes.Has("resultBuilder") {
			continue
		}
		for _, c := range g.Declaration(id).Children() {
			cd := g.Declaration(c)
			if cd.Kind == graph.KindStaticMethod && strings.HasPrefix(cd.Name, "build") {
				g.MarkRetained(c)
			}
		}
	}
	return nil
}

// retainDynamicMembers keeps dynamic member lookup subscripts.
func retainDynamicMembers(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.DeclarationsOfKinds(graph.KindClass, graph.KindStruct, graph.KindEnum, graph.KindProtocol) {
		if !g.Declaration(id).Attributes.Has("dynamicMemberLookup") {
			continue
		}
		for _, c := range g.Declaration(id).Children() {
			cd := g.Declaration(c)
			if cd.Kind == graph.KindSubscript && strings.HasPrefix(cd.Name, "subscript(dynamicMember:") {
				g.MarkRetained(c)
			}
		}
	}
	return nil
}

var interfaceBuilderAttributes = []string{"IBAction", "IBOutlet", "IBInspectable", "IBSegueAction"}

// retainAssetReferences keeps classes named by resource files. Interface
// builder resources also keep the members they connect to.
func retainAssetReferences(g *graph.SourceGraph, _ *config.Config) error {
	assets := g.AssetReferences()
	if len(assets) == 0 {
		return nil
	}

	byName := map[string][]graph.DeclID{}
	for _, id := range g.DeclarationsOfKind(graph.KindClass) {
		n := g.Declaration(id).Name
		byName[n] = append(byName[n], id)
	}

	for _, a := range assets {
		for _, id := range byName[a.Name] {
			g.MarkRetained(id)
			if a.Source != graph.AssetInterfaceBuilder {
				continue
			}
			for _, c := range g.Descendants(id) {
				if g.Declaration(c).Attributes.HasAny(interfaceBuilderAttributes...) {
					g.MarkRetained(c)
				}
			}
		}
	}
	return nil
}

var entryPointAttributes = []string{"main", "UIApplicationMain", "NSApplicationMain"}

// retainEntryPoints keeps types carrying an application entry attribute and
// their static main method.
func retainEntryPoints(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.Attributes.HasAny(entryPointAttributes...) {
			continue
		}
		g.MarkRetained(id)
		g.MarkMainAttributed(id)
		if m, ok := g.ChildNamed(id, "main()", graph.KindStaticMethod, graph.KindClassMethod); ok {
			g.MarkRetained(m)
		}
	}
	return nil
}

// retainPubliclyAccessible keeps everything visible outside its module, for
// library targets whose clients are not indexed.
func retainPubliclyAccessible(g *graph.SourceGraph, cfg *config.Config) error {
	if !cfg.Retain.Public {
		return nil
	}
	for _, id := range g.AllDeclarations() {
		if g.Declaration(id).Accessibility.IsPublic() {
			g.MarkRetained(id)
		}
	}
	return nil
}

// retainFiles keeps every declaration in files matching retain.files.
func retainFiles(g *graph.SourceGraph, cfg *config.Config) error {
	if len(cfg.Retain.Files) == 0 {
		return nil
	}
	for path, ids := range declsInFile(g) {
		if !cfg.IsRetainedFile(path) {
			continue
		}
		for _, id := range ids {
			g.MarkRetained(id)
		}
	}
	return nil
}

var testLifecycleMethods = []string{
	"setUp()", "tearDown()", "setUpWithError()", "tearDownWithError()",
}

// retainXCTests keeps test case subclasses and the methods the test runner
// discovers by name.
func retainXCTests(g *graph.SourceGraph, cfg *config.Config) error {
	bases := append([]string{"XCTestCase"}, cfg.Protocols.ExternalTestCaseClasses...)
	w := graph.NewInheritanceWalker(g)

	for _, id := range g.DeclarationsOfKind(graph.KindClass) {
		if !w.ConformsTo(id, bases...) {
			continue
		}
		g.MarkRetained(id)
		for _, c := range g.Declaration(id).Children() {
			cd := g.Declaration(c)
			switch cd.Kind {
			case graph.KindInstanceMethod:
				if (strings.HasPrefix(cd.Name, "test") && len(cd.ParameterLabels()) == 0) ||
					containsString(testLifecycleMethods, cd.Name) {
					g.MarkRetained(c)
				}
			case graph.KindClassMethod:
				if cd.Name == "setUp()" || cd.Name == "tearDown()" {
					g.MarkRetained(c)
				}
			}
		}
	}
	return nil
}

// retainSwiftTesting keeps declarations discovered by test attributes.
func retainSwiftTesting(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.AllDeclarations() {
		if g.Declaration(id).Attributes.HasAny("Test", "Suite") {
			g.MarkRetained(id)
		}
	}
	return nil
}

// retainSwiftUI keeps application and library content providers, and
// previews when configured.
func retainSwiftUI(g *graph.SourceGraph, cfg *config.Config) error {
	w := graph.NewInheritanceWalker(g)
	names := []string{"App", "LibraryContentProvider"}
	if cfg.Retain.SwiftUIPreviews {
		names = append(names, "PreviewProvider")
	}
	for _, id := range conformersOf(g, w, names...) {
		g.MarkRetained(id)
		if m, ok := g.ChildNamed(id, "previews", graph.KindStaticVar); ok {
			g.MarkRetained(m)
		}
	}
	if cfg.Retain.SwiftUIPreviews {
		for _, id := range g.AllDeclarations() {
			if g.Declaration(id).Attributes.Has("Preview") {
				g.MarkRetained(id)
			}
		}
	}
	return nil
}

// retainExternalOverrides keeps members that override or implement a
// member declared outside the indexed modules; the caller is out of view.
func retainExternalOverrides(g *graph.SourceGraph, _ *config.Config) error {
	for _, id := range g.AllDeclarations() {
		d := g.Declaration(id)
		if !d.Kind.IsMember() {
			continue
		}
		resolved, external := 0, 0
		for _, rid := range d.Related() {
			r := g.Reference(rid)
			if !r.Kind.IsMember() {
				continue
			}
			if _, ok := g.ResolveSymbol(r.SymbolID); ok {
				resolved++
			} else {
				external++
			}
		}
		if external > 0 || (d.IsOverride() && resolved == 0 && !overridesIndexedMember(g, id)) {
			g.MarkRetained(id)
		}
	}
	return nil
}

// overridesIndexedMember reports whether an inverted override edge points
// at id from an indexed base member.
func overridesIndexedMember(g *graph.SourceGraph, id graph.DeclID) bool {
	name := g.Declaration(id).Name
	for _, rid := range g.ReferencesToDeclaration(id) {
		r := g.Reference(rid)
		if !r.Synthesized {
			continue
		}
		if base := g.Declaration(r.Parent()); base != nil && base.Name == name && base.Kind.IsMember() {
			return true
		}
	}
	return false
}

// retainEncodableProperties keeps the properties of encodable types that
// rely on synthesized encoding.
func retainEncodableProperties(g *graph.SourceGraph, cfg *config.Config) error {
	names := append(append([]string{}, encodableProtocols...), cfg.Protocols.ExternalEncodable...)
	names = append(names, cfg.Protocols.ExternalCodable...)
	w := graph.NewInheritanceWalker(g)

	for _, id := range conformersOf(g, w, names...) {
		if _, custom := g.ChildNamed(id, "encode(to:)", graph.KindInstanceMethod); custom {
			continue
		}
		retainInstanceProperties(g, id)
	}
	return nil
}

// retainCodableProperties keeps the properties of decodable types, when
// configured.
func retainCodableProperties(g *graph.SourceGraph, cfg *config.Config) error {
	if !cfg.Retain.CodableProperties {
		return nil
	}
	names := append(append([]string{}, codableProtocols...), cfg.Protocols.ExternalCodable...)
	w := graph.NewInheritanceWalker(g)

	for _, id := range conformersOf(g, w, names...) {
		retainInstanceProperties(g, id)
	}
	return nil
}

func retainInstanceProperties(g *graph.SourceGraph, id graph.DeclID) {
	for _, c := range g.Declaration(id).Children() {
		if g.Declaration(c).Kind == graph.KindInstanceVar {
			g.MarkRetained(c)
		}
	}
}
