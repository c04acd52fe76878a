// Package keygen generates primary keys for entities about to be saved.
//
// Repositories never assign keys: Save on a keyless entity is refused with
// shelf.ErrMissingKey. Callers that want generated keys pick one of these
// helpers before saving.
package keygen

import (
	"github.com/google/uuid"
	"github.com/maruel/ksid"
)

// NextID returns a new time-sortable 64-bit key. Keys generated within one
// process are monotonically increasing, so index order matches creation
// order.
func NextID() ksid.ID {
	return ksid.NewID()
}

// NextString returns a new random string key (UUID v4). Use when keys must
// be unguessable rather than sortable.
func NextString() string {
	return uuid.NewString()
}
