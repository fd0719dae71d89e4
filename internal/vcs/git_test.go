package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a repository with one commit containing Sources/A.swift.
func initTestRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "Sources", "A.swift")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("import Foundation\nclass A {}\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Sources/A.swift")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestOpen_DetectsParent(t *testing.T) {
	dir, _ := initTestRepo(t)
	sub := filepath.Join(dir, "Sources")

	repo, err := Open(sub)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(repo.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpen_NotRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestHead(t *testing.T) {
	dir, hash := initTestRepo(t)

	repo, err := Open(dir)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head)
}

func TestTreeFile(t *testing.T) {
	dir, _ := initTestRepo(t)

	repo, err := Open(dir)
	require.NoError(t, err)
	tree, err := repo.Tree("HEAD")
	require.NoError(t, err)

	content, err := tree.File("Sources/A.swift")
	require.NoError(t, err)
	assert.Equal(t, "import Foundation\nclass A {}\n", string(content))

	_, err = tree.File("Sources/Missing.swift")
	assert.Error(t, err)

	_, err = repo.Tree("no-such-branch")
	assert.Error(t, err)
}

func TestRepoRoot_Fallback(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, RepoRoot(dir))
}
