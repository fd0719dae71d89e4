package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/unreach/internal/cache"
	"github.com/panbanda/unreach/pkg/baseline"
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/mutator"
	"github.com/panbanda/unreach/pkg/result"
	"github.com/panbanda/unreach/pkg/testutil"
)

// scenario builds an unused public class and a protocol whose conformers
// are only used concretely.
func scenario() *testutil.Builder {
	b := testutil.NewBuilder()
	b.Decl(graph.NoDecl, graph.KindClass, "A", testutil.Access(graph.AccessPublic))

	p := b.Decl(graph.NoDecl, graph.KindProtocol, "P")
	pf := b.Decl(p, graph.KindInstanceMethod, "f()")
	for _, name := range []string{"X", "Y"} {
		c := b.Decl(graph.NoDecl, graph.KindClass, name)
		b.Related(c, p)
		m := b.Decl(c, graph.KindInstanceMethod, "f()")
		b.Related(m, pf)
		b.Ref(graph.NoDecl, c)
		b.Ref(graph.NoDecl, m)
	}
	return b
}

type fixedLines map[int]string

func (f fixedLines) Line(_ string, n int) (string, error) {
	if s, ok := f[n]; ok {
		return s, nil
	}
	return "", errors.New("no line")
}

func TestScan_Scenarios(t *testing.T) {
	res, err := New().Scan(context.Background(), scenario().G)
	require.NoError(t, err)

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "A", res.Findings[0].Name)
	assert.Equal(t, result.CategoryUnused, res.Findings[0].Category)
	assert.Equal(t, "P", res.Findings[1].Name)
	assert.Equal(t, result.CategoryRedundantProtocol, res.Findings[1].Category)

	assert.Equal(t, res.Findings, res.New)
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 0, res.Baselined)
	assert.False(t, res.Cached)
}

func TestScan_Baseline(t *testing.T) {
	lines := fixedLines{1: "public class A {}"}

	first, err := New().Scan(context.Background(), scenario().G)
	require.NoError(t, err)
	base := baseline.Build(first.Findings[:1], lines, "")

	res, err := New(WithBaseline(base), WithLineReader(lines)).Scan(context.Background(), scenario().G)
	require.NoError(t, err)

	require.Len(t, res.New, 1)
	assert.Equal(t, "P", res.New[0].Name)
	assert.Equal(t, 1, res.Baselined)
	assert.Len(t, res.Findings, 2)
	assert.Equal(t, 1, res.Summary.ByCategory[result.CategoryRedundantProtocol])
}

func TestScan_BaselineConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := New(WithBaselinePath(path)).Scan(context.Background(), scenario().G)

	var ce *baseline.ConfigError
	require.True(t, errors.As(err, &ce))
	var ie *graph.IntegrityError
	assert.False(t, errors.As(err, &ie))
}

func TestScan_IntegrityError(t *testing.T) {
	b := testutil.NewBuilder()
	a := b.Decl(graph.NoDecl, graph.KindClass, "A")
	ext := b.Decl(graph.NoDecl, graph.KindExtension, "A")
	b.Related(ext, a)

	_, err := New().Scan(context.Background(), b.G)

	var ie *graph.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "ExtensionReferenceBuilder", ie.Pass)
}

func TestScan_CancelledBeforePipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	_, err := New(WithPassHook(func(string, time.Duration) { ran = true })).Scan(ctx, scenario().G)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestScan_CustomPipeline(t *testing.T) {
	var names []string
	passes := []mutator.Pass{
		{Name: "Only", Run: func(*graph.SourceGraph, *config.Config) error { return nil }},
	}
	res, err := New(
		WithPipeline(passes),
		WithPassHook(func(name string, _ time.Duration) { names = append(names, name) }),
	).Scan(context.Background(), scenario().G)
	require.NoError(t, err)

	assert.Equal(t, []string{"Only"}, names)
	// Nothing was marked used: every top-level declaration is reported and
	// members stay hidden under their unused containers.
	var got []string
	for _, f := range res.Findings {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"A", "P", "X", "Y"}, got)
}

const unit = `{
  "file": "Sources/App/main.swift",
  "modules": ["App"],
  "indexed_modules": ["App"],
  "declarations": [
    {"kind": "class", "name": "Dead", "symbol_ids": ["s:Dead"], "line": 1, "column": 7},
    {"kind": "class", "name": "Live", "symbol_ids": ["s:Live"], "line": 3, "column": 7}
  ],
  "references": [
    {"kind": "class", "symbol_id": "s:Live", "name": "Live", "line": 5, "column": 1}
  ]
}`

func TestScanFiles_Cache(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(unitPath, []byte(unit), 0644))

	c, err := cache.New(filepath.Join(dir, "cache"), 24, true)
	require.NoError(t, err)

	var passes int
	s := New(WithCache(c), WithRoot(dir), WithPassHook(func(string, time.Duration) { passes++ }))

	first, err := s.ScanFiles(context.Background(), []string{unitPath})
	require.NoError(t, err)
	require.Len(t, first.Findings, 1)
	assert.Equal(t, "Dead", first.Findings[0].Name)
	assert.False(t, first.Cached)
	ran := passes

	second, err := s.ScanFiles(context.Background(), []string{unitPath})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, ran, passes, "a cache hit skips the pipeline")
	assert.Equal(t, first.Findings, second.Findings)

	cfg := config.DefaultConfig()
	cfg.Retain.Files = []string{"**/*.swift"}
	third, err := New(WithCache(c), WithRoot(dir), WithConfig(cfg)).ScanFiles(context.Background(), []string{unitPath})
	require.NoError(t, err)
	assert.False(t, third.Cached, "configuration is part of the cache key")
	assert.Empty(t, third.Findings)
}

func TestScanFiles_LoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"declarations": []}`), 0644))

	_, err := New().ScanFiles(context.Background(), []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading index")
}
