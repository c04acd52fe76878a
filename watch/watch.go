// Package watch emits table-change events for directory-backed stores.
//
// It observes a blob.DiskStore (or gitstore) root directory with fsnotify
// and reports which table a changed blob belongs to. Notification is
// best-effort: events can be coalesced or dropped by the OS, and no
// ordering is guaranteed. Use it to invalidate caches or trigger reloads,
// not as a replication transport.
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/shelfdb/shelf/blob"
)

// Event describes a change to a blob in the watched directory.
type Event struct {
	// Table is the table namespace the blob belongs to, taken as the
	// segment of the name before the first underscore. A table whose own
	// name contains an underscore is attributed by its first segment only
	// ("My_Table_id_1" reports table "My").
	Table string
	// Name is the blob name that changed.
	Name string
	// Index is true when the table's ID index blob itself changed.
	Index bool
}

// Watcher converts filesystem notifications into table Events.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
}

// New starts watching the given store directory.
func New(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{fsw: fsw, events: make(chan Event, 16)}
	go w.run()
	return w, nil
}

// Events returns the event channel. It is closed when the watcher closes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops watching and closes the event channel.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) run() {
	defer close(w.events)
	for ev := range w.fsw.Events {
		if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
			continue
		}
		name := filepath.Base(ev.Name)
		if blob.ValidateName(name) != nil {
			// Not a blob (editor temp file, subdirectory, .git, ...).
			continue
		}
		table, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		select {
		case w.events <- Event{
			Table: table,
			Name:  name,
			Index: strings.HasSuffix(name, "_IDs"),
		}:
		default:
			// Receiver is lagging; notification is best-effort.
		}
	}
}
