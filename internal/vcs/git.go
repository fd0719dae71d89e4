// Package vcs locates the repository a scan runs in and reads files from its
// history.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no repository encloses a path.
var ErrNotRepository = errors.New("not a git repository")

// Repo is an opened git working tree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, detecting .git in parent
// directories.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// Head returns the hash of the checked out commit.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// Tree returns the tree of the commit rev resolves to.
func (r *Repo) Tree(rev string) (*Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return &Tree{tree: tree}, nil
}

// Tree is a snapshot of the repository at one commit.
type Tree struct {
	tree *object.Tree
}

// File returns the content of path, relative to the repository root.
func (t *Tree) File(path string) ([]byte, error) {
	f, err := t.tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// RepoRoot returns the working tree root enclosing path. Outside a
// repository it returns path itself, made absolute.
func RepoRoot(path string) string {
	if repo, err := Open(path); err == nil {
		return repo.Root()
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
