// Defines the free-form record entity the CLI stores.

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// recTable and recKeyName are set once from flags before any repository is
// built. The Entity contract wants type-level constants; for a generic
// inspection tool the "constant" is whatever table the invocation targets.
var (
	recTable   = "Record"
	recKeyName = "id"
)

// record is a text body keyed by a uint64 ID. Its canonical serialization is
// the decimal ID, a newline, then the body verbatim.
type record struct {
	id   uint64
	body string
}

// ID returns the record's key, zero when unassigned.
func (r record) ID() uint64 { return r.id }

// Body returns the record's text content.
func (r record) Body() string { return r.body }

// TableName implements shelf.Entity.
func (record) TableName() string { return recTable }

// PrimaryKeyName implements shelf.Entity.
func (record) PrimaryKeyName() string { return recKeyName }

// PrimaryKey implements shelf.Entity.
func (r record) PrimaryKey() (uint64, bool) {
	return r.id, r.id != 0
}

// Serialize implements shelf.Entity.
func (r record) Serialize() string {
	return strconv.FormatUint(r.id, 10) + "\n" + r.body
}

// Deserialize implements shelf.Entity.
func (record) Deserialize(data string) (record, error) {
	head, body, ok := strings.Cut(data, "\n")
	if !ok {
		return record{}, fmt.Errorf("malformed record: no header line")
	}
	id, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return record{}, fmt.Errorf("malformed record header %q: %w", head, err)
	}
	return record{id: id, body: body}, nil
}
