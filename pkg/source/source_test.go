package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/unreach/internal/vcs"
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.swift"), []byte("class A {}\n"), 0644))

	src := NewFilesystem(dir)

	content, err := src.Read("A.swift")
	require.NoError(t, err)
	assert.Equal(t, "class A {}\n", string(content))

	content, err = src.Read(filepath.Join(dir, "A.swift"))
	require.NoError(t, err, "absolute paths bypass the root")
	assert.NotEmpty(t, content)

	_, err = src.Read("nonexistent.swift")
	assert.Error(t, err)
}

type countingSource struct {
	files map[string]string
	reads int
}

func (c *countingSource) Read(path string) ([]byte, error) {
	c.reads++
	content, ok := c.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(content), nil
}

func TestLineReader(t *testing.T) {
	src := &countingSource{files: map[string]string{
		"A.swift": "import Foundation\r\n\n    final class A {   \n}\n",
	}}
	r := NewLineReader(src)

	line, err := r.Line("A.swift", 3)
	require.NoError(t, err)
	assert.Equal(t, "final class A {", line)

	line, err = r.Line("A.swift", 1)
	require.NoError(t, err)
	assert.Equal(t, "import Foundation", line)

	assert.Equal(t, 1, src.reads, "files are read once")

	_, err = r.Line("A.swift", 0)
	assert.Error(t, err)
	_, err = r.Line("A.swift", 99)
	assert.Error(t, err)
}

func TestLineReader_MissingFile(t *testing.T) {
	src := &countingSource{files: map[string]string{}}
	r := NewLineReader(src)

	_, err := r.Line("Missing.swift", 1)
	assert.Error(t, err)
	_, err = r.Line("Missing.swift", 2)
	assert.Error(t, err)
	assert.Equal(t, 1, src.reads, "failures are remembered")
}

func TestTreeSource(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.swift"), []byte("class A {}\n"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("A.swift")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	// The working copy changes after the commit; the tree does not.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.swift"), []byte("struct A {}\n"), 0644))

	r, err := vcs.Open(dir)
	require.NoError(t, err)
	tree, err := r.Tree("HEAD")
	require.NoError(t, err)

	lines := NewLineReader(NewTree(tree, r.Root()))
	line, err := lines.Line("A.swift", 1)
	require.NoError(t, err)
	assert.Equal(t, "class A {}", line)

	line, err = lines.Line(filepath.Join(r.Root(), "A.swift"), 1)
	require.NoError(t, err)
	assert.Equal(t, "class A {}", line)

	_, err = lines.Line(filepath.Join(filepath.Dir(r.Root()), "elsewhere.swift"), 1)
	assert.Error(t, err)
}
