package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/testutil"
)

// storedProperty declares `var name` with implicit accessors under parent.
func storedProperty(b *testutil.Builder, parent graph.DeclID, name string, opts ...testutil.DeclOption) (prop, getter, setter graph.DeclID) {
	prop = b.Decl(parent, graph.KindInstanceVar, name, opts...)
	getter = b.Decl(prop, graph.KindAccessorGetter, "getter:"+name, testutil.Implicit())
	setter = b.Decl(prop, graph.KindAccessorSetter, "setter:"+name, testutil.Implicit())
	return prop, getter, setter
}

// write adds the reference pair an assignment produces.
func write(b *testutil.Builder, from, prop, setter graph.DeclID) graph.Location {
	at := b.Next()
	b.Ref(from, prop, testutil.RefAt(at))
	b.Ref(from, setter, testutil.RefAt(at))
	return at
}

func TestAssignOnly_AllSitesWriteOnly(t *testing.T) {
	b := testutil.NewBuilder()
	s := b.Decl(graph.NoDecl, graph.KindStruct, "S")
	prop, _, setter := storedProperty(b, s, "v", testutil.Type("Int"))
	b.Ref(graph.NoDecl, s)
	write(b, graph.NoDecl, prop, setter)
	write(b, graph.NoDecl, prop, setter)
	write(b, graph.NoDecl, prop, setter)

	run(t, b, nil)

	assert.True(t, b.G.IsAssignOnly(prop))
	assert.False(t, b.G.IsUsed(prop))
	assert.Empty(t, b.G.ReferencesToDeclaration(prop))
}

func TestAssignOnly_OneSiteReads(t *testing.T) {
	b := testutil.NewBuilder()
	s := b.Decl(graph.NoDecl, graph.KindStruct, "S")
	prop, getter, setter := storedProperty(b, s, "v")
	b.Ref(graph.NoDecl, s)
	write(b, graph.NoDecl, prop, setter)
	at := write(b, graph.NoDecl, prop, setter)
	b.Ref(graph.NoDecl, getter, testutil.RefAt(at))

	run(t, b, nil)

	assert.False(t, b.G.IsAssignOnly(prop), "a single read excludes the whole declaration")
	assert.True(t, b.G.IsUsed(prop))
}

func TestAssignOnly_Exemptions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *testutil.Builder, s graph.DeclID) graph.DeclID
		cfg   func(*config.Config)
	}{
		{
			name: "exempt declared type",
			setup: func(b *testutil.Builder, s graph.DeclID) graph.DeclID {
				prop, _, setter := storedProperty(b, s, "token", testutil.Type("Token?"))
				write(b, graph.NoDecl, prop, setter)
				return prop
			},
			cfg: func(c *config.Config) { c.Retain.AssignOnlyPropertyTypes = []string{"Token"} },
		},
		{
			name: "retain all assign-only properties",
			setup: func(b *testutil.Builder, s graph.DeclID) graph.DeclID {
				prop, _, setter := storedProperty(b, s, "v")
				write(b, graph.NoDecl, prop, setter)
				return prop
			},
			cfg: func(c *config.Config) { c.Retain.AssignOnlyProperties = true },
		},
		{
			name: "observed property",
			setup: func(b *testutil.Builder, s graph.DeclID) graph.DeclID {
				prop, _, setter := storedProperty(b, s, "v")
				b.Decl(prop, graph.KindAccessorDidSet, "didSet:v")
				write(b, graph.NoDecl, prop, setter)
				return prop
			},
		},
		{
			name: "protocol requirement implementation",
			setup: func(b *testutil.Builder, s graph.DeclID) graph.DeclID {
				p := b.Decl(graph.NoDecl, graph.KindProtocol, "HasValue")
				req := b.Decl(p, graph.KindInstanceVar, "v")
				b.Related(s, p)
				prop, _, setter := storedProperty(b, s, "v")
				b.Related(prop, req)
				write(b, graph.NoDecl, prop, setter)
				return prop
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBuilder()
			s := b.Decl(graph.NoDecl, graph.KindStruct, "S")
			b.Ref(graph.NoDecl, s)
			prop := tt.setup(b, s)

			cfg := config.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			run(t, b, cfg)

			assert.False(t, b.G.IsAssignOnly(prop))
			assert.True(t, b.G.IsUsed(prop))
		})
	}
}

func TestImplicitInitializer_AssignsProperties(t *testing.T) {
	b := testutil.NewBuilder()
	s := b.Decl(graph.NoDecl, graph.KindStruct, "Point")
	x, xGet, _ := storedProperty(b, s, "x")
	y, _, _ := storedProperty(b, s, "y")
	b.Decl(s, graph.KindConstructor, "init(x:y:)", testutil.Implicit())
	b.Ref(graph.NoDecl, s)
	b.Ref(graph.NoDecl, xGet)

	run(t, b, nil)

	assert.True(t, b.G.IsUsed(x))
	assert.False(t, b.G.IsUsed(y))
	assert.True(t, b.G.IsAssignOnly(y), "only written by the memberwise initializer")
}

func TestComplexAccessors_Referenced(t *testing.T) {
	b := testutil.NewBuilder()
	c := b.Decl(graph.NoDecl, graph.KindClass, "C")
	prop := b.Decl(c, graph.KindInstanceVar, "count")
	get := b.Decl(prop, graph.KindAccessorGetter, "getter:count")
	b.Ref(graph.NoDecl, prop)

	run(t, b, nil)

	assert.True(t, b.G.IsUsed(get))
}

func TestUnusedParameters(t *testing.T) {
	b := testutil.NewBuilder()
	p := b.Decl(graph.NoDecl, graph.KindProtocol, "P")
	pf := b.Decl(p, graph.KindInstanceMethod, "f(a:)")
	reqParam := b.Param(pf, "a")

	x := b.Decl(graph.NoDecl, graph.KindClass, "X")
	b.Related(x, p)
	xf := b.Decl(x, graph.KindInstanceMethod, "f(a:)")
	b.Related(xf, pf)

	y := b.Decl(graph.NoDecl, graph.KindClass, "Y")
	b.Related(y, p)
	yf := b.Decl(y, graph.KindInstanceMethod, "f(a:)")
	b.Related(yf, pf)
	shared := b.Param(yf, "a")

	free := b.Decl(graph.NoDecl, graph.KindFreeFunction, "g(b:c:)",
		testutil.Directive("// unreach:ignore:parameters c"))
	plain := b.Param(free, "b")
	ignored := b.Param(free, "c")
	b.Ref(graph.NoDecl, free)

	run(t, b, nil)

	assert.True(t, b.G.IsRetained(reqParam), "requirements have no body")
	assert.True(t, b.G.IsRetained(shared), "X uses the parameter so the signature keeps it")
	assert.False(t, b.G.IsRetained(plain))
	assert.True(t, b.G.IsRetained(ignored))
	assert.True(t, b.G.IsUsed(free))
	assert.False(t, b.G.IsUsed(plain), "parameters are not reachability targets")
}

func TestUnusedParameters_AllConformersUnused(t *testing.T) {
	b := testutil.NewBuilder()
	p := b.Decl(graph.NoDecl, graph.KindProtocol, "P")
	pf := b.Decl(p, graph.KindInstanceMethod, "f(a:)")
	b.Param(pf, "a")
	x := b.Decl(graph.NoDecl, graph.KindClass, "X")
	b.Related(x, p)
	xf := b.Decl(x, graph.KindInstanceMethod, "f(a:)")
	b.Related(xf, pf)
	xa := b.Param(xf, "a")

	run(t, b, nil)
	assert.False(t, b.G.IsRetained(xa))

	cfg := config.DefaultConfig()
	cfg.Retain.UnusedProtocolFuncParams = true
	require.NoError(t, retainUnusedParameters(b.G, cfg))
	assert.True(t, b.G.IsRetained(xa))
}

func TestExtensionFolding_Idempotent(t *testing.T) {
	b := testutil.NewBuilder()
	a := b.Decl(graph.NoDecl, graph.KindClass, "A")
	ext := b.Decl(graph.NoDecl, graph.KindExtensionClass, "A")
	b.Related(ext, a)
	p := b.Decl(graph.NoDecl, graph.KindProtocol, "P")
	b.Related(ext, p)
	m := b.Decl(ext, graph.KindInstanceMethod, "g()")
	target := b.Decl(graph.NoDecl, graph.KindClass, "T")
	b.Ref(ext, target)

	cfg := config.DefaultConfig()
	require.NoError(t, foldExtensions(b.G, cfg))

	assert.Nil(t, b.G.Declaration(ext))
	assert.Equal(t, a, b.G.Declaration(m).Parent())
	assert.Equal(t, graph.KindExtensionClass, b.G.Declaration(m).FoldedFrom)
	assert.Len(t, b.G.Declaration(a).Related(), 1, "conformance moves to the subject")
	assert.Len(t, b.G.Declaration(a).References(), 1)

	before := b.G.Len()
	require.NoError(t, foldExtensions(b.G, cfg))
	assert.Equal(t, before, b.G.Len())
	assert.Equal(t, a, b.G.Declaration(m).Parent())
}

func TestExtensionFolding_ExternalSubjectStays(t *testing.T) {
	b := testutil.NewBuilder()
	ext := b.Decl(graph.NoDecl, graph.KindExtensionStruct, "String")
	b.External(ext, graph.KindStruct, "String", true)
	m := b.Decl(ext, graph.KindInstanceMethod, "trimmed()")

	require.NoError(t, foldExtensions(b.G, config.DefaultConfig()))
	assert.NotNil(t, b.G.Declaration(ext))
	assert.Equal(t, ext, b.G.Declaration(m).Parent())
}

func TestExtensionFolding_CarriesRetention(t *testing.T) {
	b := testutil.NewBuilder()
	a := b.Decl(graph.NoDecl, graph.KindClass, "A")
	ext := b.Decl(graph.NoDecl, graph.KindExtensionClass, "A")
	b.Related(ext, a)
	b.G.MarkRetained(ext)

	require.NoError(t, foldExtensions(b.G, config.DefaultConfig()))
	assert.True(t, b.G.IsRetained(a))
}
