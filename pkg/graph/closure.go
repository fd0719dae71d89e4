package graph

import "fmt"

// Inherited is one entry of an inherited-type closure. Decl is NoDecl when
// the supertype lives outside the indexed modules.
type Inherited struct {
	Name string
	Decl DeclID
}

// ExtendedDeclaration resolves the subject of an extension from its related
// references. It returns false when the subject is external. The generic
// extension kind cannot be resolved and is an integrity error.
func (g *SourceGraph) ExtendedDeclaration(ext DeclID) (DeclID, bool, error) {
	d := g.Declaration(ext)
	if d == nil || !d.Kind.IsExtension() {
		return NoDecl, false, nil
	}
	kind, ok := d.Kind.ExtendedKind()
	if !ok {
		return NoDecl, false, &IntegrityError{
			Declaration: ext,
			Reason:      fmt.Sprintf("extension %q at %s has no resolvable extended kind", d.Name, d.Location),
		}
	}

	var fallback DeclID
	for _, rid := range d.Related() {
		r := g.refs[rid]
		if r.Kind != kind {
			continue
		}
		target, ok := g.ResolveSymbol(r.SymbolID)
		if !ok || target == ext || g.decls[target].Kind != kind {
			continue
		}
		if r.Name == d.Name {
			return target, true, nil
		}
		if fallback == NoDecl && r.Location == d.Location {
			fallback = target
		}
	}
	return fallback, fallback != NoDecl, nil
}

// InheritanceWalker computes inherited-type closures. It indexes extensions
// that have not been folded yet so their conformances are seen too. Build a
// new walker after mutating the graph.
type InheritanceWalker struct {
	g          *SourceGraph
	extensions map[DeclID][]DeclID
}

// NewInheritanceWalker indexes the graph's extensions.
func NewInheritanceWalker(g *SourceGraph) *InheritanceWalker {
	w := &InheritanceWalker{g: g, extensions: make(map[DeclID][]DeclID)}
	for _, ext := range g.DeclarationsOfKinds(ExtensionKinds...) {
		if subject, ok, err := g.ExtendedDeclaration(ext); err == nil && ok {
			w.extensions[subject] = append(w.extensions[subject], ext)
		}
	}
	return w
}

// Extensions returns the unfolded extensions of id.
func (w *InheritanceWalker) Extensions(id DeclID) []DeclID {
	return w.extensions[id]
}

// InheritedTypes walks class, struct and protocol related edges plus
// typealias references from id. Cycles are cut by a visited set.
func (w *InheritanceWalker) InheritedTypes(id DeclID) []Inherited {
	visited := map[DeclID]struct{}{id: {}}
	seen := map[Inherited]struct{}{}
	var out []Inherited
	w.walk(id, visited, seen, &out)

	filtered := out[:0]
	for _, in := range out {
		if in.Decl != id {
			filtered = append(filtered, in)
		}
	}
	return filtered
}

func (w *InheritanceWalker) walk(id DeclID, visited map[DeclID]struct{}, seen map[Inherited]struct{}, out *[]Inherited) {
	d := w.g.Declaration(id)
	if d == nil {
		return
	}

	refs := d.Related()
	if d.Kind == KindTypealias {
		refs = append(refs, d.References()...)
	}
	for _, ext := range w.extensions[id] {
		refs = append(refs, w.g.decls[ext].Related()...)
	}

	for _, rid := range refs {
		r := w.g.refs[rid]
		switch r.Kind {
		case KindClass, KindStruct, KindProtocol, KindTypealias:
		default:
			continue
		}
		target, ok := w.g.ResolveSymbol(r.SymbolID)
		if ok && target == id {
			continue
		}
		if r.Kind != KindTypealias {
			entry := Inherited{Name: r.Name, Decl: target}
			if _, dup := seen[entry]; !dup {
				seen[entry] = struct{}{}
				*out = append(*out, entry)
			}
		}
		if !ok {
			continue
		}
		if _, done := visited[target]; done {
			continue
		}
		visited[target] = struct{}{}
		w.walk(target, visited, seen, out)
	}
}

// ConformsTo reports whether any inherited type of id has one of names.
func (w *InheritanceWalker) ConformsTo(id DeclID, names ...string) bool {
	for _, in := range w.InheritedTypes(id) {
		for _, n := range names {
			if in.Name == n {
				return true
			}
		}
	}
	return false
}

// Superclasses returns the resolved class chain above id, nearest first.
func (w *InheritanceWalker) Superclasses(id DeclID) []DeclID {
	var out []DeclID
	visited := map[DeclID]struct{}{id: {}}
	cur := id
	for {
		next := NoDecl
		d := w.g.Declaration(cur)
		if d == nil {
			break
		}
		for _, rid := range d.Related() {
			r := w.g.refs[rid]
			if r.Kind != KindClass {
				continue
			}
			if t, ok := w.g.ResolveSymbol(r.SymbolID); ok && t != cur {
				next = t
				break
			}
		}
		if next == NoDecl {
			break
		}
		if _, done := visited[next]; done {
			break
		}
		visited[next] = struct{}{}
		out = append(out, next)
		cur = next
	}
	return out
}
