package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/testutil"
)

func TestRedundantPublic(t *testing.T) {
	b := testutil.NewBuilder()
	b.File("Sources/Lib/Lib.swift", "Lib")
	local := b.Decl(graph.NoDecl, graph.KindFreeFunction, "helper()", testutil.Access(graph.AccessPublic))
	shared := b.Decl(graph.NoDecl, graph.KindFreeFunction, "api()", testutil.Access(graph.AccessPublic))
	caller := b.Decl(graph.NoDecl, graph.KindFreeFunction, "run()")
	b.Ref(caller, local)

	b.File("Sources/App/main.swift", "App")
	b.Import("Lib")
	b.Ref(graph.NoDecl, shared)
	b.Ref(graph.NoDecl, caller)

	b.File("Tests/LibTests/LibTests.swift", "LibTests")
	b.Import("Lib", func(i *graph.ImportStatement) { i.IsTestable = true })
	b.Ref(graph.NoDecl, local)

	run(t, b, nil)

	ra, ok := b.G.RedundantAccessibilityOf(local)
	require.True(t, ok)
	assert.Equal(t, graph.RedundantPublic, ra.Redundancy)
	assert.Equal(t, []string{"Lib"}, ra.Modules)

	_, ok = b.G.RedundantAccessibilityOf(shared)
	assert.False(t, ok)
}

func TestRedundantPublic_Disabled(t *testing.T) {
	b := testutil.NewBuilder()
	fn := b.Decl(graph.NoDecl, graph.KindFreeFunction, "helper()", testutil.Access(graph.AccessPublic))

	cfg := config.DefaultConfig()
	cfg.Analysis.DisableRedundantPublic = true
	run(t, b, cfg)

	_, ok := b.G.RedundantAccessibilityOf(fn)
	assert.False(t, ok)
}

func TestRedundantInternal(t *testing.T) {
	b := testutil.NewBuilder()
	local := b.Decl(graph.NoDecl, graph.KindClass, "Local", testutil.Access(graph.AccessInternal))
	shared := b.Decl(graph.NoDecl, graph.KindClass, "Shared", testutil.Access(graph.AccessInternal))
	implicit := b.Decl(graph.NoDecl, graph.KindClass, "Implicit")
	b.Ref(graph.NoDecl, local)
	b.Ref(graph.NoDecl, implicit)
	b.File("Sources/App/other.swift", "App")
	b.Ref(graph.NoDecl, shared)

	run(t, b, nil)

	ra, ok := b.G.RedundantAccessibilityOf(local)
	require.True(t, ok)
	assert.Equal(t, graph.RedundantInternal, ra.Redundancy)
	_, ok = b.G.RedundantAccessibilityOf(shared)
	assert.False(t, ok)
	_, ok = b.G.RedundantAccessibilityOf(implicit)
	assert.False(t, ok, "only written accessibility is redundant")
}

func TestRedundantFilePrivate(t *testing.T) {
	b := testutil.NewBuilder()
	a := b.Decl(graph.NoDecl, graph.KindClass, "A")
	inner := b.Decl(a, graph.KindInstanceMethod, "inner()", testutil.Access(graph.AccessFilePrivate))
	outer := b.Decl(a, graph.KindInstanceMethod, "outer()", testutil.Access(graph.AccessFilePrivate))
	user := b.Decl(a, graph.KindInstanceMethod, "use()")
	b.Ref(user, inner)

	ext := b.Decl(graph.NoDecl, graph.KindExtensionClass, "A")
	b.Related(ext, a)
	fromExt := b.Decl(ext, graph.KindInstanceMethod, "more()")
	b.Ref(fromExt, inner)

	other := b.Decl(graph.NoDecl, graph.KindClass, "B")
	bm := b.Decl(other, graph.KindInstanceMethod, "call()")
	b.Ref(bm, outer)

	run(t, b, nil)

	ra, ok := b.G.RedundantAccessibilityOf(inner)
	require.True(t, ok, "same-file extensions share the type scope")
	assert.Equal(t, graph.RedundantFilePrivate, ra.Redundancy)
	_, ok = b.G.RedundantAccessibilityOf(outer)
	assert.False(t, ok)
}

func TestCascadeAccessibility(t *testing.T) {
	b := testutil.NewBuilder()
	ext := b.Decl(graph.NoDecl, graph.KindExtensionStruct, "String", testutil.Access(graph.AccessPublic))
	b.External(ext, graph.KindStruct, "String", true)
	m := b.Decl(ext, graph.KindInstanceMethod, "trimmed()")
	own := b.Decl(ext, graph.KindInstanceMethod, "secret()", testutil.Access(graph.AccessPrivate))

	require.NoError(t, cascadeAccessibility(b.G, config.DefaultConfig()))

	assert.Equal(t, graph.AccessPublic, b.G.Declaration(m).Accessibility)
	assert.Equal(t, graph.AccessPrivate, b.G.Declaration(own).Accessibility)
}

func TestUnusedImports(t *testing.T) {
	b := testutil.NewBuilder()
	b.File("Sources/Lib/Lib.swift", "Lib")
	api := b.Decl(graph.NoDecl, graph.KindFreeFunction, "api()", testutil.Access(graph.AccessPublic))
	b.File("Sources/Core/Core.swift", "Core")
	core := b.Decl(graph.NoDecl, graph.KindStruct, "CoreType", testutil.Access(graph.AccessPublic))
	b.G.MarkExportedModule("Core", "Umbrella")
	b.G.MarkIndexedModules("Umbrella")

	b.File("Sources/App/unused.swift", "App")
	unusedAt := b.Import("Lib")
	b.Import("Foundation")

	b.File("Sources/App/used.swift", "App")
	b.Import("Lib")
	b.Ref(graph.NoDecl, api)

	b.File("Sources/App/umbrella.swift", "App")
	b.Import("Umbrella")
	b.Ref(graph.NoDecl, core)

	run(t, b, nil)

	modules := b.G.DeclarationsOfKind(graph.KindModule)
	require.Len(t, modules, 1)
	d := b.G.Declaration(modules[0])
	assert.Equal(t, "Lib", d.Name)
	assert.Equal(t, unusedAt, d.Location)
	assert.False(t, b.G.IsUsed(modules[0]))
}

func TestUnusedImports_Disabled(t *testing.T) {
	b := testutil.NewBuilder()
	b.File("Sources/Lib/Lib.swift", "Lib")
	b.File("Sources/App/main.swift", "App")
	b.Import("Lib")

	cfg := config.DefaultConfig()
	cfg.Analysis.DisableUnusedImports = true
	run(t, b, cfg)

	assert.Empty(t, b.G.DeclarationsOfKind(graph.KindModule))
}
