package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shelfdb/shelf/blob"
	"github.com/shelfdb/shelf/internal/lineindex"
)

// ErrMissingKey is returned by Save, Update and Delete when the entity has
// no primary key. No blob operation is performed in that case and the input
// entity is returned unchanged; the repository never assigns keys (callers
// that want generated keys can use the keygen package before saving).
var ErrMissingKey = errors.New("entity has no primary key")

// Repository implements CRUD for one entity type over a [blob.Store].
//
// The store is injected and shared: the repository does not own its
// lifecycle, and several repositories can persist through the same store
// as long as their table names differ.
type Repository[E Entity[E, K], K ID] struct {
	store blob.Store
}

// New creates a repository persisting through store.
func New[E Entity[E, K], K ID](store blob.Store) *Repository[E, K] {
	return &Repository[E, K]{store: store}
}

// recordName derives the blob name for one record: <table>_<pkName>_<id>.
func (r *Repository[E, K]) recordName(id K) string {
	var zero E
	return zero.TableName() + "_" + zero.PrimaryKeyName() + "_" + formatID(id)
}

// indexName derives the blob name of the table's ID index: <table>_IDs.
func (r *Repository[E, K]) indexName() string {
	var zero E
	return zero.TableName() + "_IDs"
}

// Save writes the entity's record blob (overwriting any previous content)
// and adds its ID to the table index if not already present.
//
// At most one record write and one index append are performed. An entity
// without a primary key causes no I/O and returns [ErrMissingKey].
func (r *Repository[E, K]) Save(ctx context.Context, e E) (E, error) {
	id, ok := e.PrimaryKey()
	if !ok {
		return e, ErrMissingKey
	}
	if err := r.store.Create(ctx, r.recordName(id), []byte(e.Serialize())); err != nil {
		return e, fmt.Errorf("failed to write record: %w", err)
	}
	existing, err := r.store.Read(ctx, r.indexName())
	if err != nil {
		return e, fmt.Errorf("failed to read index: %w", err)
	}
	tok := formatID(id)
	if slices.Contains(lineindex.Parse(existing), tok) {
		return e, nil
	}
	if err := r.store.Append(ctx, r.indexName(), []byte(tok+"\n")); err != nil {
		return e, fmt.Errorf("failed to append to index: %w", err)
	}
	return e, nil
}

// Update rewrites the entity's record blob in place.
//
// If the ID is not yet indexed (e.g. the entity was written out-of-band),
// it is appended, inserting a line terminator first when the current index
// does not end in one so the previously last line is not corrupted.
func (r *Repository[E, K]) Update(ctx context.Context, e E) (E, error) {
	id, ok := e.PrimaryKey()
	if !ok {
		return e, ErrMissingKey
	}
	if err := r.store.Update(ctx, r.recordName(id), []byte(e.Serialize())); err != nil {
		return e, fmt.Errorf("failed to write record: %w", err)
	}
	existing, err := r.store.Read(ctx, r.indexName())
	if err != nil {
		return e, fmt.Errorf("failed to read index: %w", err)
	}
	tok := formatID(id)
	if slices.Contains(lineindex.Parse(existing), tok) {
		return e, nil
	}
	if err := r.store.Append(ctx, r.indexName(), lineindex.AppendRecord(existing, tok)); err != nil {
		return e, fmt.Errorf("failed to append to index: %w", err)
	}
	return e, nil
}

// FindByID returns the entity stored under id, or ok=false when the record
// blob is absent or empty.
func (r *Repository[E, K]) FindByID(ctx context.Context, id K) (E, bool, error) {
	var zero E
	content, err := r.store.Read(ctx, r.recordName(id))
	if err != nil {
		return zero, false, fmt.Errorf("failed to read record: %w", err)
	}
	if len(content) == 0 {
		return zero, false, nil
	}
	e, err := zero.Deserialize(string(content))
	if err != nil {
		return zero, false, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return e, true, nil
}

// FindAll returns every indexed entity, in index order.
//
// IDs whose record blob is empty or missing are skipped, as are index
// tokens that do not parse as a key (both logged at warn level). The result
// is fully materialized before returning.
func (r *Repository[E, K]) FindAll(ctx context.Context) ([]E, error) {
	existing, err := r.store.Read(ctx, r.indexName())
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	tokens := lineindex.Parse(existing)
	entities := make([]E, 0, len(tokens))
	var zero E
	for _, tok := range tokens {
		id, err := parseID[K](tok)
		if err != nil {
			slog.Warn("skipping malformed index token", "table", zero.TableName(), "token", tok)
			continue
		}
		content, err := r.store.Read(ctx, r.recordName(id))
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(content) == 0 {
			slog.Warn("skipping indexed ID with no record", "table", zero.TableName(), "id", tok)
			continue
		}
		e, err := zero.Deserialize(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize record %s: %w", tok, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// DeleteByID removes the record blob and rewrites the index in full without
// the ID, every line terminated including the last.
func (r *Repository[E, K]) DeleteByID(ctx context.Context, id K) error {
	if err := r.store.Delete(ctx, r.recordName(id)); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	existing, err := r.store.Read(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	tok := formatID(id)
	tokens := slices.DeleteFunc(lineindex.Parse(existing), func(t string) bool { return t == tok })
	if err := r.store.Update(ctx, r.indexName(), lineindex.Format(tokens)); err != nil {
		return fmt.Errorf("failed to rewrite index: %w", err)
	}
	return nil
}

// Delete resolves the entity's primary key and delegates to DeleteByID.
// An entity without a key causes no I/O and returns [ErrMissingKey].
func (r *Repository[E, K]) Delete(ctx context.Context, e E) error {
	id, ok := e.PrimaryKey()
	if !ok {
		return ErrMissingKey
	}
	return r.DeleteByID(ctx, id)
}

// ExistsByID reports whether the record blob under id has content.
//
// The index is deliberately not consulted: blob existence is the source of
// truth, and the two are expected but not guaranteed to agree.
func (r *Repository[E, K]) ExistsByID(ctx context.Context, id K) (bool, error) {
	content, err := r.store.Read(ctx, r.recordName(id))
	if err != nil {
		return false, fmt.Errorf("failed to read record: %w", err)
	}
	return len(content) > 0, nil
}
