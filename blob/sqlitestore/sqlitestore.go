// Package sqlitestore implements blob.Store over a single SQLite table.
//
// The whole store is one table, blobs(name TEXT PRIMARY KEY, content BLOB),
// accessed through database/sql with the pure-Go modernc.org/sqlite driver.
// Useful when the data set should travel as a single file.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shelfdb/shelf/blob"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	name TEXT PRIMARY KEY,
	content BLOB NOT NULL
);
`

// Store is a SQLite-backed blob.Store.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create implements blob.Store via an upsert.
func (s *Store) Create(ctx context.Context, name string, content []byte) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	// A nil slice binds as SQL NULL, which the NOT NULL column rejects;
	// empty content must still be storable.
	if content == nil {
		content = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (name, content) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content`,
		name, content)
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// Read implements blob.Store. A missing row yields empty content.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := blob.ValidateName(name); err != nil {
		return nil, err
	}
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM blobs WHERE name = ?`, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return content, nil
}

// Update implements blob.Store. Same overwrite semantics as Create.
func (s *Store) Update(ctx context.Context, name string, content []byte) error {
	return s.Create(ctx, name, content)
}

// Delete implements blob.Store. Deleting a missing row is a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

// Append implements blob.Store as a read+write inside one transaction.
func (s *Store) Append(ctx context.Context, name string, content []byte) error {
	if err := blob.ValidateName(name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing []byte
	err = tx.QueryRowContext(ctx, `SELECT content FROM blobs WHERE name = ?`, name).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	combined := append(existing, content...)
	if combined == nil {
		// Appending nothing to an absent blob must still create an empty
		// row, and a nil slice would bind as SQL NULL.
		combined = []byte{}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO blobs (name, content) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content`,
		name, combined)
	if err != nil {
		return fmt.Errorf("failed to append to blob %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append to blob %s: %w", name, err)
	}
	return nil
}

var _ blob.Store = (*Store)(nil)
