// Package source reads the source lines findings point at.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/unreach/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem. Relative paths
// are resolved against Root when it is set.
type FilesystemSource struct {
	Root string
}

// NewFilesystem creates a source that reads from the filesystem under root.
func NewFilesystem(root string) *FilesystemSource {
	return &FilesystemSource{Root: root}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	if f.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Absolute paths are made relative
// to the repository root first.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree *vcs.Tree
	root string
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree of the repository
// at root.
func NewTree(tree *vcs.Tree, root string) *TreeSource {
	return &TreeSource{tree: tree, root: root}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	if filepath.IsAbs(path) && t.root != "" {
		rel, err := filepath.Rel(t.root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%s is outside the repository", path)
		}
		path = rel
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(filepath.ToSlash(path))
}

// LineReader serves trimmed source lines, reading each file at most once.
// It is safe for concurrent use.
type LineReader struct {
	src ContentSource

	mu    sync.Mutex
	files map[string][]string
	errs  map[string]error
}

// NewLineReader returns a reader over src.
func NewLineReader(src ContentSource) *LineReader {
	return &LineReader{
		src:   src,
		files: make(map[string][]string),
		errs:  make(map[string]error),
	}
}

// Line returns line n (1-based) of path with surrounding whitespace removed.
func (r *LineReader) Line(path string, n int) (string, error) {
	lines, err := r.lines(path)
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(lines) {
		return "", fmt.Errorf("%s: line %d out of range (%d lines)", path, n, len(lines))
	}
	return strings.TrimSpace(lines[n-1]), nil
}

func (r *LineReader) lines(path string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines, ok := r.files[path]; ok {
		return lines, nil
	}
	if err, ok := r.errs[path]; ok {
		return nil, err
	}

	content, err := r.src.Read(path)
	if err != nil {
		r.errs[path] = err
		return nil, err
	}
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	lines := strings.Split(string(content), "\n")
	r.files[path] = lines
	return lines, nil
}
