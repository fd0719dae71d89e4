// Package baseline records accepted findings and filters them out of later
// scans. Findings are matched by kind, source line text and category, so
// edits that only move a declaration up or down its file do not resurface it.
package baseline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/result"
)

// Version is the current baseline format version.
const Version = 1

// Entry is one accepted finding.
type Entry struct {
	Kind      graph.Kind      `json:"kind" yaml:"kind"`
	Text      string          `json:"text" yaml:"text"`
	SymbolIDs []string        `json:"symbol_ids" yaml:"symbol_ids"`
	Category  result.Category `json:"category" yaml:"category"`
}

// Baseline maps a file path, relative to the scan root, to its accepted
// findings in location order.
type Baseline struct {
	Version int                `json:"version" yaml:"version"`
	Files   map[string][]Entry `json:"files" yaml:"files"`
}

// Len returns the number of entries across all files.
func (b *Baseline) Len() int {
	n := 0
	for _, entries := range b.Files {
		n += len(entries)
	}
	return n
}

// LineReader returns the trimmed text of a source line.
type LineReader interface {
	Line(path string, line int) (string, error)
}

// ConfigError reports a baseline that cannot be read or decoded.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("baseline %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Build snapshots findings. Paths are stored relative to root when root is
// set.
func Build(findings []result.Finding, lines LineReader, root string) *Baseline {
	sorted := append([]result.Finding(nil), findings...)
	result.Sort(sorted)

	b := &Baseline{Version: Version, Files: make(map[string][]Entry)}
	for _, f := range sorted {
		path := relPath(root, f.Location.Path)
		b.Files[path] = append(b.Files[path], Entry{
			Kind:      f.Kind,
			Text:      lineText(lines, f.Location),
			SymbolIDs: sortedIDs(f.SymbolIDs),
			Category:  f.Category,
		})
	}
	return b
}

// Save writes b to path, as YAML when the extension is .yml or .yaml and
// as indented JSON otherwise.
func Save(path string, b *Baseline) error {
	var (
		data []byte
		err  error
	)
	if b.Files == nil {
		b = &Baseline{Version: b.Version, Files: map[string][]Entry{}}
	}
	if isYAML(path) {
		data, err = yaml.Marshal(b)
	} else {
		data, err = json.MarshalIndent(b, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding baseline: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads and validates the baseline at path. Any failure is a
// *ConfigError.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	doc := data
	if isYAML(path) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		if doc, err = json.Marshal(v); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	if err := validate(doc); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var b Baseline
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if b.Version != Version {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("unsupported version %d", b.Version)}
	}
	if b.Files == nil {
		b.Files = make(map[string][]Entry)
	}
	return &b, nil
}

// ErrNoBaseline is returned by LoadIfExists when path does not exist.
var ErrNoBaseline = errors.New("no baseline")

// LoadIfExists is Load, returning ErrNoBaseline instead of a *ConfigError
// when the file is absent.
func LoadIfExists(path string) (*Baseline, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoBaseline
	}
	return Load(path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

func relPath(root, path string) string {
	if root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// lineText reads the finding's source line. Unreadable lines match as
// empty text on both sides of a comparison.
func lineText(lines LineReader, loc graph.Location) string {
	if lines == nil {
		return ""
	}
	text, err := lines.Line(loc.Path, loc.Line)
	if err != nil {
		return ""
	}
	return text
}

func sortedIDs(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
