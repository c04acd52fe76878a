// Package afsstore implements blob.Store over the viant/afs abstract file
// storage service, so blobs can live behind any URL scheme afs supports
// (file://, mem://, s3://, gs://, ...).
package afsstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shelfdb/shelf/blob"
	"github.com/viant/afs"
)

// Store is an afs-backed blob.Store rooted at a base URL.
type Store struct {
	fs      afs.Service
	baseURL string
}

// New creates a store placing each blob directly under baseURL,
// e.g. "mem://localhost/shelf" or "file:///var/lib/shelf".
func New(baseURL string) *Store {
	return &Store{fs: afs.New(), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) url(name string) string {
	return s.baseURL + "/" + name
}

// Create implements blob.Store.
func (s *Store) Create(ctx context.Context, name string, content []byte) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, s.url(name), 0o644, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}
	return nil
}

// Read implements blob.Store. An absent URL yields empty content.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := blob.ValidateName(name); err != nil {
		return nil, err
	}
	ok, err := s.fs.Exists(ctx, s.url(name))
	if err != nil {
		return nil, fmt.Errorf("failed to check blob %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	content, err := s.fs.DownloadWithURL(ctx, s.url(name))
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	return content, nil
}

// Update implements blob.Store. Same overwrite semantics as Create.
func (s *Store) Update(ctx context.Context, name string, content []byte) error {
	return s.Create(ctx, name, content)
}

// Delete implements blob.Store. Deleting an absent URL is a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	ok, err := s.fs.Exists(ctx, s.url(name))
	if err != nil {
		return fmt.Errorf("failed to check blob %s: %w", name, err)
	}
	if !ok {
		return nil
	}
	if err := s.fs.Delete(ctx, s.url(name)); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

// Append implements blob.Store as read+concatenate+upload.
func (s *Store) Append(ctx context.Context, name string, content []byte) error {
	existing, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	return s.Create(ctx, name, append(existing, content...))
}

var _ blob.Store = (*Store)(nil)
