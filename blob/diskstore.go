// Implements the filesystem-backed Store, one file per blob.

package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore stores each blob as a file directly under a root directory.
//
// Blob names map one-to-one to file names, which is why ValidateName
// restricts the character set. No fan-out subdirectories are used: table
// namespaces stay small (one file per record plus one index file per table)
// and a flat directory keeps the layout greppable.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the root directory if needed and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Create implements Store.
func (s *DiskStore) Create(_ context.Context, name string, content []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// Read implements Store. A missing file yields empty content.
func (s *DiskStore) Read(_ context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return content, nil
}

// Update implements Store. Same overwrite semantics as Create.
func (s *DiskStore) Update(ctx context.Context, name string, content []byte) error {
	return s.Create(ctx, name, content)
}

// Delete implements Store. Deleting a missing file is a no-op.
func (s *DiskStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

// Append implements Store, using O_APPEND so the write is a single syscall.
func (s *DiskStore) Append(_ context.Context, name string, content []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open blob %s for append: %w", name, err)
	}
	_, werr := f.Write(content)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("failed to append to blob %s: %w", name, werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close blob %s: %w", name, cerr)
	}
	return nil
}

var _ Store = (*DiskStore)(nil)
