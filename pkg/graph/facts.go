package graph

// DeclarationFact is what the indexer knows about a declaration.
type DeclarationFact struct {
	Kind                  Kind
	Name                  string
	SymbolIDs             []string
	Location              Location
	IsImplicit            bool
	Accessibility         Accessibility
	ExplicitAccessibility bool
	Attributes            []string
	Modifiers             []string
	DeclaredType          string
	IsObjcAccessible      bool
	Directives            Directives
	Parent                DeclID
	FoldedFrom            Kind
}

// ReferenceFact is what the indexer knows about a reference.
type ReferenceFact struct {
	Kind        Kind
	SymbolID    string
	Name        string
	Location    Location
	IsRelated   bool
	Role        Role
	Parent      DeclID
	ParentRef   RefID
	Synthesized bool
}

// ImportStatement is an import of a module into a file.
type ImportStatement struct {
	Module     string
	IsTestable bool
	IsExported bool
	Location   Location
	Directives Directives
}

// AssetSource identifies the kind of non-code resource referencing a symbol.
type AssetSource string

const (
	AssetInterfaceBuilder AssetSource = "interfaceBuilder"
	AssetDataModel        AssetSource = "dataModel"
	AssetMappingModel     AssetSource = "mappingModel"
	AssetPropertyList     AssetSource = "propertyList"
)

// AssetReference is a reference to a type by name from a non-code resource.
type AssetReference struct {
	Name   string
	Source AssetSource
}

// AddSourceFile registers path as part of modules. Repeated calls union
// the module sets.
func (g *SourceGraph) AddSourceFile(path string, modules ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AddSourceFileUnsafe(path, modules...)
}

// AddSourceFileUnsafe is AddSourceFile without the lock.
func (g *SourceGraph) AddSourceFileUnsafe(path string, modules ...string) {
	f, ok := g.files[path]
	if !ok {
		f = &SourceFile{Path: path}
		g.files[path] = f
	}
	for _, m := range modules {
		if !f.HasModule(m) {
			f.Modules = append(f.Modules, m)
		}
	}
}

// AddDeclaration inserts a declaration and returns its key.
func (g *SourceGraph) AddDeclaration(f DeclarationFact) DeclID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AddDeclarationUnsafe(f)
}

// SetParent moves child under parent.
func (g *SourceGraph) SetParent(child, parent DeclID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.SetParentUnsafe(child, parent)
}

// AddUnusedParameter records an unused parameter of fn.
func (g *SourceGraph) AddUnusedParameter(fn DeclID, f DeclarationFact) DeclID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AddUnusedParameterUnsafe(fn, f)
}

// AddReference inserts a reference and returns its key.
func (g *SourceGraph) AddReference(f ReferenceFact) RefID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AddReferenceUnsafe(f)
}

// Attach moves ref under decl and returns the reference now owned by decl.
func (g *SourceGraph) Attach(ref RefID, decl DeclID) RefID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AttachUnsafe(ref, decl)
}

// AttachNested nests child under parent. The child takes the parent's owner.
func (g *SourceGraph) AttachNested(child, parent RefID) RefID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AttachNestedUnsafe(child, parent)
}

// AttachNestedUnsafe is AttachNested without the lock.
func (g *SourceGraph) AttachNestedUnsafe(child, parent RefID) RefID {
	c, p := g.Reference(child), g.Reference(parent)
	if c == nil || p == nil || child == parent {
		return NoRef
	}
	if existing, ok := g.ownerKeys(p.parent)[c.Key()]; ok && existing != child {
		g.removeReference(child)
		return existing
	}
	if old := g.Reference(c.parentRef); old != nil {
		old.nested.Remove(uint32(child))
	}
	g.detachFromOwner(c)
	c.parentRef = parent
	p.nested.Add(uint32(child))
	g.attachToOwner(c, p.parent)
	return child
}

// RemoveDeclaration removes id and its contents.
func (g *SourceGraph) RemoveDeclaration(id DeclID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RemoveDeclarationUnsafe(id)
}

// RemoveReference removes ref and its nested references.
func (g *SourceGraph) RemoveReference(ref RefID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RemoveReferenceUnsafe(ref)
}

// AddAssetReference records a by-name reference from a resource file.
func (g *SourceGraph) AddAssetReference(a AssetReference) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AddAssetReferenceUnsafe(a)
}

// AddAssetReferenceUnsafe is AddAssetReference without the lock.
func (g *SourceGraph) AddAssetReferenceUnsafe(a AssetReference) {
	g.assets = append(g.assets, a)
}

// AddImportStatement records an import in the file at path.
func (g *SourceGraph) AddImportStatement(path string, imp ImportStatement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AddImportStatementUnsafe(path, imp)
}

// AddImportStatementUnsafe is AddImportStatement without the lock.
func (g *SourceGraph) AddImportStatementUnsafe(path string, imp ImportStatement) {
	if imp.Location.Path == "" {
		imp.Location.Path = path
	}
	g.imports[path] = append(g.imports[path], imp)
}

// MarkIndexedModules records modules as part of the indexed build.
func (g *SourceGraph) MarkIndexedModules(modules ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.MarkIndexedModulesUnsafe(modules...)
}

// MarkIndexedModulesUnsafe is MarkIndexedModules without the lock.
func (g *SourceGraph) MarkIndexedModulesUnsafe(modules ...string) {
	for _, m := range modules {
		g.indexedModules[m] = struct{}{}
	}
}

// MarkExportedModule records that exportedBy re-exports module.
func (g *SourceGraph) MarkExportedModule(module, exportedBy string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.MarkExportedModuleUnsafe(module, exportedBy)
}

// MarkExportedModuleUnsafe is MarkExportedModule without the lock.
func (g *SourceGraph) MarkExportedModuleUnsafe(module, exportedBy string) {
	set := g.exportedModules[module]
	if set == nil {
		set = make(map[string]struct{})
		g.exportedModules[module] = set
	}
	set[exportedBy] = struct{}{}
}
