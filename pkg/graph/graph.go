// Package graph holds the declaration graph: an arena of declarations and
// references keyed by stable integer ids, the indices derived from them, and
// the mark sets the mutator pipeline writes.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// SourceGraph owns every declaration and reference of a scan.
//
// Mutating methods take the graph lock. Lookups do not; they must not run
// concurrently with insertion. Methods with an Unsafe suffix skip the lock and
// are for use inside WithLock.
type SourceGraph struct {
	mu sync.Mutex

	decls []*Declaration
	refs  []*Reference

	all              *roaring.Bitmap
	byKind           map[Kind]*roaring.Bitmap
	explicitBySymbol map[string]DeclID
	implicitBySymbol map[string]DeclID
	refsBySymbol     map[string]*roaring.Bitmap
	rootRefs         *roaring.Bitmap
	rootRefKeys      map[RefKey]RefID
	declRefKeys      map[DeclID]map[RefKey]RefID

	files           map[string]*SourceFile
	imports         map[string][]ImportStatement
	assets          []AssetReference
	indexedModules  map[string]struct{}
	exportedModules map[string]map[string]struct{}

	marks                  [markCount]*roaring.Bitmap
	redundantProtocols     map[DeclID]RedundantProtocol
	redundantAccessibility map[DeclID]RedundantAccessibility
}

// New returns an empty graph.
func New() *SourceGraph {
	g := &SourceGraph{
		decls:                  []*Declaration{nil},
		refs:                   []*Reference{nil},
		all:                    roaring.New(),
		byKind:                 make(map[Kind]*roaring.Bitmap),
		explicitBySymbol:       make(map[string]DeclID),
		implicitBySymbol:       make(map[string]DeclID),
		refsBySymbol:           make(map[string]*roaring.Bitmap),
		rootRefs:               roaring.New(),
		rootRefKeys:            make(map[RefKey]RefID),
		declRefKeys:            make(map[DeclID]map[RefKey]RefID),
		files:                  make(map[string]*SourceFile),
		imports:                make(map[string][]ImportStatement),
		indexedModules:         make(map[string]struct{}),
		exportedModules:        make(map[string]map[string]struct{}),
		redundantProtocols:     make(map[DeclID]RedundantProtocol),
		redundantAccessibility: make(map[DeclID]RedundantAccessibility),
	}
	for i := range g.marks {
		g.marks[i] = roaring.New()
	}
	return g
}

// WithLock runs fn while holding the graph lock. fn must only call Unsafe
// variants of the mutating methods.
func (g *SourceGraph) WithLock(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Declaration returns the declaration for id, or nil when it does not exist
// or was removed.
func (g *SourceGraph) Declaration(id DeclID) *Declaration {
	if int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id]
}

// Reference returns the reference for id, or nil.
func (g *SourceGraph) Reference(id RefID) *Reference {
	if int(id) >= len(g.refs) {
		return nil
	}
	return g.refs[id]
}

// Len returns the number of live declarations.
func (g *SourceGraph) Len() int {
	return int(g.all.GetCardinality())
}

// AllDeclarations returns every live declaration in key order.
func (g *SourceGraph) AllDeclarations() []DeclID {
	return toDeclIDs(g.all)
}

// DeclarationsOfKind returns the live declarations of kind k.
func (g *SourceGraph) DeclarationsOfKind(k Kind) []DeclID {
	return toDeclIDs(g.byKind[k])
}

// DeclarationsOfKinds returns the live declarations of any of kinds.
func (g *SourceGraph) DeclarationsOfKinds(kinds ...Kind) []DeclID {
	u := roaring.New()
	for _, k := range kinds {
		if b := g.byKind[k]; b != nil {
			u.Or(b)
		}
	}
	return toDeclIDs(u)
}

// ExplicitDeclaration returns the explicit declaration owning symbolID.
func (g *SourceGraph) ExplicitDeclaration(symbolID string) (DeclID, bool) {
	id, ok := g.explicitBySymbol[symbolID]
	return id, ok
}

// ResolveSymbol looks up symbolID in the explicit index and then among
// implicit declarations.
func (g *SourceGraph) ResolveSymbol(symbolID string) (DeclID, bool) {
	if id, ok := g.explicitBySymbol[symbolID]; ok {
		return id, true
	}
	id, ok := g.implicitBySymbol[symbolID]
	return id, ok
}

// Resolve returns the declaration a reference points at. Unresolvable
// references point outside the indexed modules.
func (g *SourceGraph) Resolve(ref RefID) (DeclID, bool) {
	r := g.Reference(ref)
	if r == nil {
		return NoDecl, false
	}
	return g.ResolveSymbol(r.SymbolID)
}

// ReferencesTo returns every live reference targeting symbolID.
func (g *SourceGraph) ReferencesTo(symbolID string) []RefID {
	return toRefIDs(g.refsBySymbol[symbolID])
}

// ReferencesToDeclaration returns every reference targeting any of the
// declaration's symbol ids.
func (g *SourceGraph) ReferencesToDeclaration(id DeclID) []RefID {
	d := g.Declaration(id)
	if d == nil {
		return nil
	}
	if len(d.SymbolIDs) == 1 {
		return g.ReferencesTo(d.SymbolIDs[0])
	}
	u := roaring.New()
	for _, s := range d.SymbolIDs {
		if b := g.refsBySymbol[s]; b != nil {
			u.Or(b)
		}
	}
	return toRefIDs(u)
}

// RootReferences returns references with no owning declaration.
func (g *SourceGraph) RootReferences() []RefID {
	return toRefIDs(g.rootRefs)
}

// Ancestors returns the containment chain of id, nearest first.
func (g *SourceGraph) Ancestors(id DeclID) []DeclID {
	var out []DeclID
	d := g.Declaration(id)
	for d != nil && d.parent != NoDecl {
		out = append(out, d.parent)
		d = g.Declaration(d.parent)
	}
	return out
}

// IsAncestor reports whether anc contains id, directly or transitively.
func (g *SourceGraph) IsAncestor(anc, id DeclID) bool {
	for _, a := range g.Ancestors(id) {
		if a == anc {
			return true
		}
	}
	return false
}

// Outermost returns the topmost ancestor of id, or id itself.
func (g *SourceGraph) Outermost(id DeclID) DeclID {
	anc := g.Ancestors(id)
	if len(anc) == 0 {
		return id
	}
	return anc[len(anc)-1]
}

// Descendants returns every declaration contained under id.
func (g *SourceGraph) Descendants(id DeclID) []DeclID {
	var out []DeclID
	stack := []DeclID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d := g.Declaration(cur)
		if d == nil {
			continue
		}
		for _, c := range d.Children() {
			out = append(out, c)
			stack = append(stack, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ChildNamed returns the first child of id with the given name and one of kinds.
// An empty kinds list matches any kind.
func (g *SourceGraph) ChildNamed(id DeclID, name string, kinds ...Kind) (DeclID, bool) {
	d := g.Declaration(id)
	if d == nil {
		return NoDecl, false
	}
	for _, c := range d.Children() {
		cd := g.decls[c]
		if cd.Name != name {
			continue
		}
		if len(kinds) == 0 {
			return c, true
		}
		for _, k := range kinds {
			if cd.Kind == k {
				return c, true
			}
		}
	}
	return NoDecl, false
}

// AddDeclarationUnsafe inserts a declaration without taking the lock.
func (g *SourceGraph) AddDeclarationUnsafe(f DeclarationFact) DeclID {
	id := DeclID(len(g.decls))
	d := newDeclaration(id)
	d.Kind = f.Kind
	d.Name = f.Name
	d.SymbolIDs = append([]string(nil), f.SymbolIDs...)
	sort.Strings(d.SymbolIDs)
	d.Location = f.Location
	d.Accessibility = f.Accessibility
	d.ExplicitAccessibility = f.ExplicitAccessibility
	d.Attributes = NewTags(f.Attributes...)
	d.Modifiers = NewTags(f.Modifiers...)
	d.DeclaredType = f.DeclaredType
	d.IsImplicit = f.IsImplicit
	d.IsObjcAccessible = f.IsObjcAccessible
	d.Directives = f.Directives
	d.FoldedFrom = f.FoldedFrom

	g.decls = append(g.decls, d)
	g.all.Add(uint32(id))
	g.kindIndex(d.Kind).Add(uint32(id))

	index := g.explicitBySymbol
	if d.IsImplicit {
		index = g.implicitBySymbol
	}
	for _, s := range d.SymbolIDs {
		if _, taken := index[s]; !taken {
			index[s] = id
		}
	}

	if f.Parent != NoDecl {
		if p := g.Declaration(f.Parent); p != nil {
			d.parent = f.Parent
			p.children.Add(uint32(id))
		}
	}
	return id
}

// SetParentUnsafe moves child under parent. Containment must stay acyclic.
func (g *SourceGraph) SetParentUnsafe(child, parent DeclID) error {
	c := g.Declaration(child)
	if c == nil {
		return &IntegrityError{Declaration: child, Reason: "set parent of missing declaration"}
	}
	if parent != NoDecl {
		if g.Declaration(parent) == nil {
			return &IntegrityError{Declaration: child, Reason: fmt.Sprintf("parent %d does not exist", parent)}
		}
		if parent == child || g.IsAncestor(child, parent) {
			return &IntegrityError{Declaration: child, Reason: "containment cycle"}
		}
	}
	if c.parent != NoDecl {
		if old := g.Declaration(c.parent); old != nil {
			old.children.Remove(uint32(child))
		}
	}
	c.parent = parent
	if parent != NoDecl {
		g.decls[parent].children.Add(uint32(child))
	}
	return nil
}

// AddUnusedParameterUnsafe records param as an unused parameter of fn.
func (g *SourceGraph) AddUnusedParameterUnsafe(fn DeclID, f DeclarationFact) DeclID {
	f.Parent = NoDecl
	if f.Kind == "" {
		f.Kind = KindParameterVar
	}
	id := g.AddDeclarationUnsafe(f)
	if owner := g.Declaration(fn); owner != nil {
		g.decls[id].parent = fn
		owner.unusedParameters.Add(uint32(id))
	}
	return id
}

// AddReferenceUnsafe inserts a reference. References with a parent are
// attached to it; duplicates of an existing key on the same owner return the
// existing reference.
func (g *SourceGraph) AddReferenceUnsafe(f ReferenceFact) RefID {
	r := &Reference{
		ID:          RefID(len(g.refs)),
		Kind:        f.Kind,
		SymbolID:    f.SymbolID,
		Name:        f.Name,
		Location:    f.Location,
		Role:        f.Role,
		IsRelated:   f.IsRelated,
		Synthesized: f.Synthesized,
		nested:      roaring.New(),
	}
	if r.Role == "" {
		r.Role = RoleUnknown
	}
	key := r.Key()

	switch {
	case f.ParentRef != NoRef:
		pr := g.Reference(f.ParentRef)
		if pr == nil {
			break
		}
		if existing, ok := g.ownerKeys(pr.parent)[key]; ok {
			return existing
		}
		g.insertRef(r)
		r.parentRef = f.ParentRef
		pr.nested.Add(uint32(r.ID))
		g.attachToOwner(r, pr.parent)
		return r.ID
	case f.Parent != NoDecl:
		if g.Declaration(f.Parent) == nil {
			break
		}
		if existing, ok := g.ownerKeys(f.Parent)[key]; ok {
			return existing
		}
		g.insertRef(r)
		g.attachToOwner(r, f.Parent)
		return r.ID
	}

	if existing, ok := g.rootRefKeys[key]; ok {
		return existing
	}
	g.insertRef(r)
	g.attachToOwner(r, NoDecl)
	return r.ID
}

// AttachUnsafe moves ref under decl. If decl already owns a reference with
// the same key, ref is removed and the existing reference returned.
func (g *SourceGraph) AttachUnsafe(ref RefID, decl DeclID) RefID {
	r := g.Reference(ref)
	if r == nil || g.Declaration(decl) == nil {
		return NoRef
	}
	if r.parent == decl {
		return ref
	}
	if existing, ok := g.ownerKeys(decl)[r.Key()]; ok && existing != ref {
		g.removeReference(ref)
		return existing
	}
	g.detachFromOwner(r)
	g.attachToOwner(r, decl)
	for _, n := range r.Nested() {
		nr := g.refs[n]
		g.detachFromOwner(nr)
		g.attachToOwner(nr, decl)
	}
	return ref
}

// RemoveDeclarationUnsafe removes id and everything contained under it.
func (g *SourceGraph) RemoveDeclarationUnsafe(id DeclID) {
	d := g.Declaration(id)
	if d == nil {
		return
	}
	for _, c := range d.Children() {
		g.RemoveDeclarationUnsafe(c)
	}
	for _, p := range d.UnusedParameters() {
		g.RemoveDeclarationUnsafe(p)
	}
	for _, r := range append(d.References(), d.Related()...) {
		g.removeReference(r)
	}

	if p := g.Declaration(d.parent); p != nil {
		p.children.Remove(uint32(id))
		p.unusedParameters.Remove(uint32(id))
	}
	g.all.Remove(uint32(id))
	if b := g.byKind[d.Kind]; b != nil {
		b.Remove(uint32(id))
	}
	for _, s := range d.SymbolIDs {
		if g.explicitBySymbol[s] == id {
			delete(g.explicitBySymbol, s)
		}
		if g.implicitBySymbol[s] == id {
			delete(g.implicitBySymbol, s)
		}
	}
	for _, m := range g.marks {
		m.Remove(uint32(id))
	}
	delete(g.redundantProtocols, id)
	delete(g.redundantAccessibility, id)
	delete(g.declRefKeys, id)
	g.decls[id] = nil
}

// RemoveReferenceUnsafe removes ref and every reference nested under it.
func (g *SourceGraph) RemoveReferenceUnsafe(ref RefID) {
	g.removeReference(ref)
}

func (g *SourceGraph) removeReference(ref RefID) {
	r := g.Reference(ref)
	if r == nil {
		return
	}
	for _, n := range r.Nested() {
		g.removeReference(n)
	}
	if pr := g.Reference(r.parentRef); pr != nil {
		pr.nested.Remove(uint32(ref))
	}
	g.detachFromOwner(r)
	if b := g.refsBySymbol[r.SymbolID]; b != nil {
		b.Remove(uint32(ref))
		if b.IsEmpty() {
			delete(g.refsBySymbol, r.SymbolID)
		}
	}
	g.refs[ref] = nil
}

func (g *SourceGraph) insertRef(r *Reference) {
	g.refs = append(g.refs, r)
	b := g.refsBySymbol[r.SymbolID]
	if b == nil {
		b = roaring.New()
		g.refsBySymbol[r.SymbolID] = b
	}
	b.Add(uint32(r.ID))
}

func (g *SourceGraph) ownerKeys(owner DeclID) map[RefKey]RefID {
	if owner == NoDecl {
		return g.rootRefKeys
	}
	return g.declRefKeys[owner]
}

func (g *SourceGraph) attachToOwner(r *Reference, owner DeclID) {
	r.parent = owner
	if owner == NoDecl {
		g.rootRefs.Add(uint32(r.ID))
		g.rootRefKeys[r.Key()] = r.ID
		return
	}
	d := g.decls[owner]
	if r.IsRelated {
		d.related.Add(uint32(r.ID))
	} else {
		d.references.Add(uint32(r.ID))
	}
	keys := g.declRefKeys[owner]
	if keys == nil {
		keys = make(map[RefKey]RefID)
		g.declRefKeys[owner] = keys
	}
	keys[r.Key()] = r.ID
}

func (g *SourceGraph) detachFromOwner(r *Reference) {
	key := r.Key()
	if r.parent == NoDecl {
		g.rootRefs.Remove(uint32(r.ID))
		if g.rootRefKeys[key] == r.ID {
			delete(g.rootRefKeys, key)
		}
		return
	}
	if d := g.Declaration(r.parent); d != nil {
		d.references.Remove(uint32(r.ID))
		d.related.Remove(uint32(r.ID))
	}
	if keys := g.declRefKeys[r.parent]; keys != nil && keys[key] == r.ID {
		delete(keys, key)
	}
}

func (g *SourceGraph) kindIndex(k Kind) *roaring.Bitmap {
	b := g.byKind[k]
	if b == nil {
		b = roaring.New()
		g.byKind[k] = b
	}
	return b
}

// SourceFile returns the file record for path.
func (g *SourceGraph) SourceFile(path string) (*SourceFile, bool) {
	f, ok := g.files[path]
	return f, ok
}

// SourceFiles returns every known file path, sorted.
func (g *SourceGraph) SourceFiles() []string {
	out := make([]string, 0, len(g.files))
	for p := range g.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ModulesOf returns the modules the file at path belongs to.
func (g *SourceGraph) ModulesOf(path string) []string {
	if f, ok := g.files[path]; ok {
		return f.Modules
	}
	return nil
}

// Imports returns the import statements of the file at path.
func (g *SourceGraph) Imports(path string) []ImportStatement {
	return g.imports[path]
}

// AssetReferences returns the recorded asset references.
func (g *SourceGraph) AssetReferences() []AssetReference {
	return g.assets
}

// IsIndexedModule reports whether module was part of the indexed build.
func (g *SourceGraph) IsIndexedModule(module string) bool {
	_, ok := g.indexedModules[module]
	return ok
}

// ExportingModules returns the modules that re-export module.
func (g *SourceGraph) ExportingModules(module string) []string {
	set := g.exportedModules[module]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// IsExportedBy reports whether exporter re-exports module, transitively.
func (g *SourceGraph) IsExportedBy(module, exporter string) bool {
	seen := map[string]struct{}{}
	stack := []string{module}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		for m := range g.exportedModules[cur] {
			if m == exporter {
				return true
			}
			stack = append(stack, m)
		}
	}
	return false
}
