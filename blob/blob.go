// Package blob defines the named-blob storage capability that repositories
// persist through, plus in-memory and filesystem implementations.
//
// A Store holds opaque byte blobs under flat string names. All five
// operations are full-blob: there is no partial read or seek. Read returns
// empty content when the name is absent; absence is not an error. Create and
// Update are both full overwrites and are semantically identical; both exist
// so that callers can express intent. Delete is idempotent. Append is
// logically Read+Create.
//
// Implementations in subpackages cover SQLite (sqlitestore), viant/afs URLs
// (afsstore), git-versioned directories (gitstore), and decorators for
// Prometheus metrics (metricstore) and rate limiting (throttle).
package blob

import (
	"context"
	"errors"
	"fmt"
)

// Store is the capability contract for named-blob storage.
//
// Stores are safe for use by a single goroutine per name; they make no
// atomicity promises across operations. Callers needing read-modify-write
// consistency must serialize externally.
type Store interface {
	// Create writes content under name, overwriting any existing blob.
	Create(ctx context.Context, name string, content []byte) error
	// Read returns the blob's content, or empty content if name is absent.
	Read(ctx context.Context, name string) ([]byte, error)
	// Update writes content under name. Same overwrite semantics as Create.
	Update(ctx context.Context, name string, content []byte) error
	// Delete removes the blob. Deleting an absent name is not an error.
	Delete(ctx context.Context, name string) error
	// Append concatenates content onto the existing blob, creating it if absent.
	Append(ctx context.Context, name string, content []byte) error
}

// ErrInvalidName is returned when a blob name contains characters outside
// [A-Za-z0-9._-] or is empty.
var ErrInvalidName = errors.New("invalid blob name")

// ValidateName checks that name is non-empty and uses only characters safe
// for direct use as a file name: letters, digits, '.', '_' and '-'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '_' || c == '-' {
			continue
		}
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
