// Package loader populates a declaration graph from per-unit index dumps.
// Units are read and decoded concurrently; each decoded unit is inserted in
// a single critical section on the graph.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/panbanda/unreach/internal/fileproc"
	"github.com/panbanda/unreach/internal/progress"
	"github.com/panbanda/unreach/pkg/graph"
)

// Loader reads index units into a graph.
type Loader struct {
	workers int
	logger  *slog.Logger
	tracker *progress.Tracker
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers bounds the decode pool. Zero selects 2x NumCPU.
func WithWorkers(n int) Option {
	return func(l *Loader) { l.workers = n }
}

// WithLogger sets the logger for per-unit debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProgress ticks tr once per unit.
func WithProgress(tr *progress.Tracker) Option {
	return func(l *Loader) { l.tracker = tr }
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats counts what a load inserted.
type Stats struct {
	Units        int `json:"units"`
	Declarations int `json:"declarations"`
	References   int `json:"references"`
}

// Load decodes every unit file and inserts it into g. Failed units are
// skipped and reported together as a *fileproc.ProcessingErrors; the graph
// then holds only the units that succeeded.
func (l *Loader) Load(ctx context.Context, g *graph.SourceGraph, files []string) (*Stats, error) {
	var decls, refs atomic.Int64

	units, errs := fileproc.ForEachFile(ctx, files, l.workers, func(ctx context.Context, path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		u, err := Decode(data)
		if err != nil {
			return "", err
		}
		d, r := Insert(g, u)
		decls.Add(int64(d))
		refs.Add(int64(r))
		l.logger.Debug("unit loaded", "path", path, "file", u.File, "declarations", d, "references", r)
		return u.File, nil
	}, l.tracker.Tick)

	stats := &Stats{Units: len(units), Declarations: int(decls.Load()), References: int(refs.Load())}
	if errs != nil {
		return stats, errs
	}
	return stats, nil
}

// Insert adds u to g under one lock and returns the number of declaration
// and reference facts it carried. Duplicate references merge in the graph
// but still count here.
func Insert(g *graph.SourceGraph, u *Unit) (decls, refs int) {
	g.WithLock(func() {
		ins := &inserter{g: g, file: u.File}

		g.AddSourceFileUnsafe(u.File, u.Modules...)
		g.MarkIndexedModulesUnsafe(u.IndexedModules...)
		for _, em := range u.ExportedModules {
			g.MarkExportedModuleUnsafe(em.Module, em.ExportedBy)
		}
		for _, imp := range u.Imports {
			g.AddImportStatementUnsafe(u.File, graph.ImportStatement{
				Module:     imp.Module,
				IsTestable: imp.Testable,
				IsExported: imp.Exported,
				Location:   ins.location(imp.Line, imp.Column),
				Directives: graph.ParseDirectives(imp.Directives),
			})
		}
		for _, a := range u.Assets {
			g.AddAssetReferenceUnsafe(graph.AssetReference{Name: a.Name, Source: graph.AssetSource(a.Source)})
		}

		for _, d := range u.Declarations {
			ins.declaration(graph.NoDecl, d)
		}
		for _, r := range u.References {
			ins.reference(graph.NoDecl, graph.NoRef, r)
		}
		decls, refs = ins.decls, ins.refs
	})
	return decls, refs
}

type inserter struct {
	g     *graph.SourceGraph
	file  string
	decls int
	refs  int
}

func (ins *inserter) location(line, column int) graph.Location {
	if column == 0 {
		column = 1
	}
	return graph.Location{Path: ins.file, Line: line, Column: column}
}

func (ins *inserter) fact(parent graph.DeclID, d Declaration) graph.DeclarationFact {
	kind, _ := graph.ParseKind(d.Kind)
	return graph.DeclarationFact{
		Kind:                  kind,
		Name:                  d.Name,
		SymbolIDs:             d.SymbolIDs,
		Location:              ins.location(d.Line, d.Column),
		IsImplicit:            d.Implicit,
		Accessibility:         graph.ParseAccessibility(d.Accessibility),
		ExplicitAccessibility: d.ExplicitAccessibility,
		Attributes:            d.Attributes,
		Modifiers:             d.Modifiers,
		DeclaredType:          d.DeclaredType,
		IsObjcAccessible:      d.ObjcAccessible,
		Directives:            graph.ParseDirectives(d.Directives),
		Parent:                parent,
	}
}

func (ins *inserter) declaration(parent graph.DeclID, d Declaration) {
	id := ins.g.AddDeclarationUnsafe(ins.fact(parent, d))
	ins.decls++

	for _, p := range d.UnusedParameters {
		ins.g.AddUnusedParameterUnsafe(id, ins.fact(graph.NoDecl, p))
		ins.decls++
	}
	for _, r := range d.References {
		ins.reference(id, graph.NoRef, r)
	}
	for _, c := range d.Declarations {
		ins.declaration(id, c)
	}
}

func (ins *inserter) reference(owner graph.DeclID, parentRef graph.RefID, r Reference) {
	id := ins.g.AddReferenceUnsafe(graph.ReferenceFact{
		Kind:      graph.Kind(r.Kind),
		SymbolID:  r.SymbolID,
		Name:      r.Name,
		Location:  ins.location(r.Line, r.Column),
		IsRelated: r.Related,
		Role:      graph.ParseRole(r.Role),
		Parent:    owner,
		ParentRef: parentRef,
	})
	ins.refs++
	for _, n := range r.References {
		ins.reference(owner, id, n)
	}
}

// Discover expands paths into unit files. Directories contribute every
// .json file beneath them, skipping hidden entries and anything at or under
// an exclude path; files are taken as given. The result is sorted and free
// of duplicates.
func Discover(paths []string, exclude ...string) ([]string, error) {
	skip := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e == "" {
			continue
		}
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, err
		}
		skip = append(skip, abs)
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("index path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(p), "**/*.json")
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		for _, m := range matches {
			if hidden(m) {
				continue
			}
			file := filepath.Join(p, filepath.FromSlash(m))
			if excluded(file, skip) {
				continue
			}
			add(file)
		}
	}

	sort.Strings(out)
	return out, nil
}

// hidden reports whether any segment of a slash-separated relative path
// starts with a dot.
func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func excluded(file string, skip []string) bool {
	if len(skip) == 0 {
		return false
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	for _, s := range skip {
		if abs == s || strings.HasPrefix(abs, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
