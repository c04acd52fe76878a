// Defines the entity contract and the primary key codec.

package shelf

import (
	"fmt"
	"reflect"
	"strconv"
)

// ID constrains the primary key types a repository can index: any integer
// kind or string. Index lines are the decimal (or verbatim, for strings)
// rendering of the key.
type ID interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~string
}

// Entity is the contract a domain type satisfies to be stored in a
// [Repository].
//
// TableName and PrimaryKeyName are type-level constants: they must return
// the same value for every instance, including the zero value, because the
// repository calls them on a zero E to derive blob names. Entities are value
// types; Deserialize returns a new value rather than mutating its receiver.
type Entity[E any, K ID] interface {
	// TableName returns the stable table name, e.g. "User".
	TableName() string
	// PrimaryKeyName returns the stable primary key field name, e.g. "id".
	PrimaryKeyName() string
	// PrimaryKey returns the entity's key, or false if it has none yet.
	PrimaryKey() (K, bool)
	// Serialize renders the entity to its canonical text representation.
	Serialize() string
	// Deserialize parses a canonical text representation into a new entity.
	Deserialize(data string) (E, error)
}

// formatID renders a key as an index token.
func formatID[K ID](id K) string {
	v := reflect.ValueOf(id)
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return strconv.FormatUint(v.Uint(), 10)
	}
}

// parseID parses an index token back into a key.
func parseID[K ID](s string) (K, error) {
	var id K
	v := reflect.ValueOf(&id).Elem()
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return id, fmt.Errorf("invalid ID token %q: %w", s, err)
		}
		v.SetInt(n)
	default:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return id, fmt.Errorf("invalid ID token %q: %w", s, err)
		}
		v.SetUint(n)
	}
	return id, nil
}
