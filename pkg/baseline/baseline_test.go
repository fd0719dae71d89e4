package baseline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/result"
)

// fakeLines serves lines from in-memory file contents.
type fakeLines map[string][]string

func (f fakeLines) Line(path string, n int) (string, error) {
	lines, ok := f[path]
	if !ok || n < 1 || n > len(lines) {
		return "", fmt.Errorf("%s:%d: no such line", path, n)
	}
	return strings.TrimSpace(lines[n-1]), nil
}

func source(text string) []string { return strings.Split(text, "\n") }

const fileA = `import Foundation

public class A {
    func helper() {}
    var cache: Int = 0
}

protocol P {}
`

func finding(kind graph.Kind, name string, line int, cat result.Category, ids ...string) result.Finding {
	return result.Finding{
		Kind:      kind,
		Name:      name,
		SymbolIDs: ids,
		Location:  graph.Location{Path: "/repo/Sources/A.swift", Line: line, Column: 5},
		Category:  cat,
	}
}

func f1() []result.Finding {
	return []result.Finding{
		finding(graph.KindClass, "A", 3, result.CategoryUnused, "s:1A"),
		finding(graph.KindInstanceMethod, "helper()", 4, result.CategoryUnused, "s:1A6helper"),
		finding(graph.KindInstanceVar, "cache", 5, result.CategoryAssignOnlyProperty, "s:1A5cache"),
		finding(graph.KindProtocol, "P", 8, result.CategoryRedundantProtocol, "s:1P"),
	}
}

func shift(findings []result.Finding, by int) []result.Finding {
	out := make([]result.Finding, len(findings))
	for i, f := range findings {
		f.Location.Line += by
		out[i] = f
	}
	return out
}

func TestBuild(t *testing.T) {
	lines := fakeLines{"/repo/Sources/A.swift": source(fileA)}

	b := Build(f1(), lines, "/repo")

	assert.Equal(t, Version, b.Version)
	require.Contains(t, b.Files, "Sources/A.swift", "paths are relative to the root")
	entries := b.Files["Sources/A.swift"]
	require.Len(t, entries, 4)
	assert.Equal(t, Entry{Kind: graph.KindClass, Text: "public class A {", SymbolIDs: []string{"s:1A"}, Category: result.CategoryUnused}, entries[0])
	assert.Equal(t, "var cache: Int = 0", entries[2].Text)
	assert.Equal(t, 4, b.Len())
}

func TestFilter_LineShiftStability(t *testing.T) {
	before := fakeLines{"/repo/Sources/A.swift": source(fileA)}
	after := fakeLines{"/repo/Sources/A.swift": source("// header\n// added\n\n" + fileA)}

	base := Build(f1(), before, "/repo")
	remaining := Filter(base, shift(f1(), 3), after, "/repo")

	assert.Empty(t, remaining)
}

func TestFilter_SymbolIDChangeStillMatches(t *testing.T) {
	lines := fakeLines{"/repo/Sources/A.swift": source(fileA)}
	base := Build(f1(), lines, "/repo")

	renamed := f1()
	renamed[0].SymbolIDs = []string{"s:4Core1A"}

	assert.Empty(t, Filter(base, renamed, lines, "/repo"))
}

func TestFilter_ReportsNewFindings(t *testing.T) {
	lines := fakeLines{"/repo/Sources/A.swift": source(fileA)}
	base := Build(f1()[:2], lines, "/repo")

	remaining := Filter(base, f1(), lines, "/repo")

	require.Len(t, remaining, 2)
	assert.Equal(t, "cache", remaining[0].Name)
	assert.Equal(t, "P", remaining[1].Name)
}

func TestFilter_CategoryIsPartOfKey(t *testing.T) {
	lines := fakeLines{"/repo/Sources/A.swift": source(fileA)}
	base := Build(f1(), lines, "/repo")

	changed := f1()
	changed[2].Category = result.CategoryUnused

	remaining := Filter(base, changed, lines, "/repo")
	require.Len(t, remaining, 1)
	assert.Equal(t, "cache", remaining[0].Name)
}

func TestFilter_ExcessCountIsNew(t *testing.T) {
	const dup = "struct S {\n    let x = 1\n    let x = 1\n    let x = 1\n}\n"
	lines := fakeLines{"/repo/Sources/A.swift": source(dup)}

	prop := func(line int, id string) result.Finding {
		return finding(graph.KindInstanceVar, "x", line, result.CategoryUnused, id)
	}
	base := Build([]result.Finding{prop(2, "s:x2"), prop(3, "s:x3")}, lines, "/repo")

	// The entry whose symbol id matches exactly is consumed first, so the
	// reported excess is the finding with the unknown id.
	remaining := Filter(base, []result.Finding{prop(2, "s:new"), prop(3, "s:x2"), prop(4, "s:x3")}, lines, "/repo")

	require.Len(t, remaining, 1)
	assert.Equal(t, []string{"s:new"}, remaining[0].SymbolIDs)
}

func TestFilter_DifferentFileDoesNotMatch(t *testing.T) {
	lines := fakeLines{
		"/repo/Sources/A.swift": source(fileA),
		"/repo/Sources/B.swift": source(fileA),
	}
	base := Build(f1()[:1], lines, "/repo")

	moved := f1()[:1]
	moved[0].Location.Path = "/repo/Sources/B.swift"

	assert.Len(t, Filter(base, moved, lines, "/repo"), 1)
}

func TestFilter_NilBaseline(t *testing.T) {
	assert.Len(t, Filter(nil, f1(), nil, ""), 4)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	lines := fakeLines{"/repo/Sources/A.swift": source(fileA)}
	base := Build(f1(), lines, "/repo")

	for _, name := range []string{"baseline.json", "baseline.yml", "nested/baseline.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, base))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, base, loaded)
		})
	}
}

func TestSave_EmptyBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, Save(path, &Baseline{Version: Version}))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.json")},
		{"malformed json", write("bad.json", `{"version": 1, "files": `)},
		{"malformed yaml", write("bad.yml", "version: [1\n")},
		{"missing files", write("nofiles.json", `{"version": 1}`)},
		{"unknown category", write("cat.json", `{"version": 1, "files": {"A.swift": [{"kind": "class", "text": "", "symbol_ids": [], "category": "dead"}]}}`)},
		{"unknown field", write("field.json", `{"version": 1, "files": {}, "extra": true}`)},
		{"future version", write("v2.json", `{"version": 2, "files": {}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %T", err)
			assert.Equal(t, tt.path, ce.Path)
		})
	}
}

func TestLoadIfExists(t *testing.T) {
	_, err := LoadIfExists(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, ErrNoBaseline)
}

func TestUnreadableLinesMatchAsEmpty(t *testing.T) {
	base := Build(f1()[:1], fakeLines{}, "/repo")
	assert.Equal(t, "", base.Files["Sources/A.swift"][0].Text)
	assert.Empty(t, Filter(base, f1()[:1], fakeLines{}, "/repo"))
}
