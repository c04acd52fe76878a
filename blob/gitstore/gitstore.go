// Package gitstore implements blob.Store over a git-versioned directory.
//
// Reads behave like a plain filesystem store. Every mutation stages the
// touched file and commits, so the repository history is a full audit trail
// of table state. Commits are serialized with an internal lock; read
// operations are not.
package gitstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/shelfdb/shelf/blob"
)

// Store is a git-versioned blob.Store. It embeds the plain filesystem
// behavior and adds a commit after each mutation.
type Store struct {
	dir   string
	disk  *blob.DiskStore
	repo  *gogit.Repository
	name  string
	email string
	mu    sync.Mutex
}

// New opens (initializing if needed) a git repository at dir. Commits are
// authored as name <email>.
func New(dir, name, email string) (*Store, error) {
	disk, err := blob.NewDiskStore(dir)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		// Not a repo yet.
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
	}
	return &Store{dir: dir, disk: disk, repo: repo, name: name, email: email}, nil
}

// commit stages file and commits with msg. A clean worktree (content
// unchanged) is not an error and produces no commit.
func (s *Store) commit(file, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := w.Add(file); err != nil {
		return fmt.Errorf("failed to stage %s: %w", file, err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	sig := &object.Signature{Name: s.name, Email: s.email, When: time.Now()}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit %s: %w", file, err)
	}
	return nil
}

// Create implements blob.Store.
func (s *Store) Create(ctx context.Context, name string, content []byte) error {
	if err := s.disk.Create(ctx, name, content); err != nil {
		return err
	}
	return s.commit(name, "write "+name)
}

// Read implements blob.Store. A missing file yields empty content.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	return s.disk.Read(ctx, name)
}

// Update implements blob.Store. Same overwrite semantics as Create.
func (s *Store) Update(ctx context.Context, name string, content []byte) error {
	return s.Create(ctx, name, content)
}

// Delete implements blob.Store. Deleting a missing file is a no-op and
// produces no commit.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
		return nil
	}
	if err := s.disk.Delete(ctx, name); err != nil {
		return err
	}
	return s.commit(name, "delete "+name)
}

// Append implements blob.Store.
func (s *Store) Append(ctx context.Context, name string, content []byte) error {
	if err := s.disk.Append(ctx, name, content); err != nil {
		return err
	}
	return s.commit(name, "append "+name)
}

// CommitCount returns the number of commits on HEAD, zero for a fresh repo.
func (s *Store) CommitCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head, err := s.repo.Head()
	if err != nil {
		return 0, nil
	}
	iter, err := s.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()
	n := 0
	err = iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to iterate log: %w", err)
	}
	return n, nil
}

var _ blob.Store = (*Store)(nil)
