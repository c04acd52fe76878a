package shelf

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/shelfdb/shelf/blob"
)

// user is the integer-keyed test entity. Canonical form: "<id>|<name>".
type user struct {
	ID   int64
	Name string
}

func (user) TableName() string      { return "User" }
func (user) PrimaryKeyName() string { return "id" }

func (u user) PrimaryKey() (int64, bool) {
	return u.ID, u.ID != 0
}

func (u user) Serialize() string {
	return fmt.Sprintf("%d|%s", u.ID, u.Name)
}

func (user) Deserialize(data string) (user, error) {
	head, name, ok := strings.Cut(data, "|")
	if !ok {
		return user{}, fmt.Errorf("malformed user %q", data)
	}
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return user{}, err
	}
	return user{ID: id, Name: name}, nil
}

// session is the string-keyed test entity. Canonical form: the token alone.
type session struct {
	Token string
}

func (session) TableName() string      { return "Session" }
func (session) PrimaryKeyName() string { return "token" }

func (s session) PrimaryKey() (string, bool) {
	return s.Token, s.Token != ""
}

func (s session) Serialize() string { return s.Token }

func (session) Deserialize(data string) (session, error) {
	return session{Token: data}, nil
}

// countingStore counts mutations so tests can assert zero-write behavior.
type countingStore struct {
	blob.Store
	writes int
}

func (s *countingStore) Create(ctx context.Context, name string, content []byte) error {
	s.writes++
	return s.Store.Create(ctx, name, content)
}

func (s *countingStore) Update(ctx context.Context, name string, content []byte) error {
	s.writes++
	return s.Store.Update(ctx, name, content)
}

func (s *countingStore) Delete(ctx context.Context, name string) error {
	s.writes++
	return s.Store.Delete(ctx, name)
}

func (s *countingStore) Append(ctx context.Context, name string, content []byte) error {
	s.writes++
	return s.Store.Append(ctx, name, content)
}

func TestRepositorySave(t *testing.T) {
	ctx := t.Context()

	t.Run("round trip", func(t *testing.T) {
		repo := New[user, int64](blob.NewMemStore())
		saved, err := repo.Save(ctx, user{ID: 1, Name: "Alice"})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if saved != (user{ID: 1, Name: "Alice"}) {
			t.Errorf("Save() returned %+v", saved)
		}
		got, ok, err := repo.FindByID(ctx, 1)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if !ok {
			t.Fatal("FindByID() ok = false, want true")
		}
		if got != saved {
			t.Errorf("FindByID() = %+v, want %+v", got, saved)
		}
	})

	t.Run("missing key is refused with no writes", func(t *testing.T) {
		store := &countingStore{Store: blob.NewMemStore()}
		repo := New[user, int64](store)
		got, err := repo.Save(ctx, user{Name: "nobody"})
		if err != ErrMissingKey {
			t.Errorf("Save() error = %v, want ErrMissingKey", err)
		}
		if got != (user{Name: "nobody"}) {
			t.Errorf("Save() returned %+v, want input unchanged", got)
		}
		if store.writes != 0 {
			t.Errorf("Save() performed %d writes, want 0", store.writes)
		}
	})

	t.Run("resaving does not duplicate index lines", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		for range 3 {
			if _, err := repo.Save(ctx, user{ID: 7, Name: "Grace"}); err != nil {
				t.Fatal(err)
			}
		}
		index, err := store.Read(ctx, "User_IDs")
		if err != nil {
			t.Fatal(err)
		}
		if string(index) != "7\n" {
			t.Errorf("index = %q, want %q", index, "7\n")
		}
	})

	t.Run("index grows one line per distinct ID", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		// Interleave Save and Update; line count must still equal the
		// number of distinct IDs.
		for i := int64(1); i <= 5; i++ {
			u := user{ID: i, Name: fmt.Sprintf("u%d", i)}
			var err error
			if i%2 == 0 {
				_, err = repo.Update(ctx, u)
			} else {
				_, err = repo.Save(ctx, u)
			}
			if err != nil {
				t.Fatal(err)
			}
			if _, err := repo.Update(ctx, u); err != nil {
				t.Fatal(err)
			}
		}
		index, err := store.Read(ctx, "User_IDs")
		if err != nil {
			t.Fatal(err)
		}
		want := "1\n2\n3\n4\n5\n"
		if string(index) != want {
			t.Errorf("index = %q, want %q", index, want)
		}
	})
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := t.Context()

	t.Run("idempotent", func(t *testing.T) {
		repo := New[user, int64](blob.NewMemStore())
		u := user{ID: 3, Name: "Carol"}
		if _, err := repo.Update(ctx, u); err != nil {
			t.Fatal(err)
		}
		first, ok, err := repo.FindByID(ctx, 3)
		if err != nil || !ok {
			t.Fatalf("FindByID() = %v, %v", ok, err)
		}
		if _, err := repo.Update(ctx, u); err != nil {
			t.Fatal(err)
		}
		second, ok, err := repo.FindByID(ctx, 3)
		if err != nil || !ok {
			t.Fatalf("FindByID() = %v, %v", ok, err)
		}
		if first != second {
			t.Errorf("Update() changed record: %+v vs %+v", first, second)
		}
	})

	t.Run("missing key is refused", func(t *testing.T) {
		store := &countingStore{Store: blob.NewMemStore()}
		repo := New[user, int64](store)
		if _, err := repo.Update(ctx, user{}); err != ErrMissingKey {
			t.Errorf("Update() error = %v, want ErrMissingKey", err)
		}
		if store.writes != 0 {
			t.Errorf("Update() performed %d writes, want 0", store.writes)
		}
	})

	t.Run("unterminated index is not corrupted", func(t *testing.T) {
		store := blob.NewMemStore()
		// Simulate a hand-edited index whose last line has no terminator.
		if err := store.Create(ctx, "User_IDs", []byte("7")); err != nil {
			t.Fatal(err)
		}
		if err := store.Create(ctx, "User_id_7", []byte("7|Grace")); err != nil {
			t.Fatal(err)
		}
		repo := New[user, int64](store)
		if _, err := repo.Update(ctx, user{ID: 8, Name: "Heidi"}); err != nil {
			t.Fatal(err)
		}
		index, err := store.Read(ctx, "User_IDs")
		if err != nil {
			t.Fatal(err)
		}
		if string(index) != "7\n8\n" {
			t.Errorf("index = %q, want %q", index, "7\n8\n")
		}
		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 || all[0].ID != 7 || all[1].ID != 8 {
			t.Errorf("FindAll() = %+v, want IDs [7 8]", all)
		}
	})
}

func TestRepositoryFindAll(t *testing.T) {
	ctx := t.Context()

	t.Run("returns entities in index order", func(t *testing.T) {
		repo := New[user, int64](blob.NewMemStore())
		if _, err := repo.Save(ctx, user{ID: 1, Name: "Alice"}); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Save(ctx, user{ID: 2, Name: "Bob"}); err != nil {
			t.Fatal(err)
		}
		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 || all[0].Name != "Alice" || all[1].Name != "Bob" {
			t.Errorf("FindAll() = %+v, want [Alice Bob]", all)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		repo := New[user, int64](blob.NewMemStore())
		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 0 {
			t.Errorf("FindAll() = %+v, want empty", all)
		}
	})

	t.Run("skips indexed IDs whose record is gone", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		if _, err := repo.Save(ctx, user{ID: 1, Name: "Alice"}); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Save(ctx, user{ID: 2, Name: "Bob"}); err != nil {
			t.Fatal(err)
		}
		// Remove Alice's record out-of-band; the index still lists ID 1.
		if err := store.Delete(ctx, "User_id_1"); err != nil {
			t.Fatal(err)
		}
		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 || all[0].Name != "Bob" {
			t.Errorf("FindAll() = %+v, want [Bob]", all)
		}
	})

	t.Run("skips malformed index tokens", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		if _, err := repo.Save(ctx, user{ID: 2, Name: "Bob"}); err != nil {
			t.Fatal(err)
		}
		if err := store.Append(ctx, "User_IDs", []byte("not-a-number\n")); err != nil {
			t.Fatal(err)
		}
		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 || all[0].Name != "Bob" {
			t.Errorf("FindAll() = %+v, want [Bob]", all)
		}
	})
}

func TestRepositoryDelete(t *testing.T) {
	ctx := t.Context()

	t.Run("removes record and index entry", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		if _, err := repo.Save(ctx, user{ID: 1, Name: "Alice"}); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Save(ctx, user{ID: 2, Name: "Bob"}); err != nil {
			t.Fatal(err)
		}
		if err := repo.DeleteByID(ctx, 1); err != nil {
			t.Fatalf("DeleteByID() error = %v", err)
		}

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 || all[0].Name != "Bob" {
			t.Errorf("FindAll() = %+v, want [Bob]", all)
		}
		index, err := store.Read(ctx, "User_IDs")
		if err != nil {
			t.Fatal(err)
		}
		if string(index) != "2\n" {
			t.Errorf("index = %q, want %q", index, "2\n")
		}
		if ok, err := repo.ExistsByID(ctx, 1); err != nil || ok {
			t.Errorf("ExistsByID(1) = %v, %v, want false, nil", ok, err)
		}
		if ok, err := repo.ExistsByID(ctx, 2); err != nil || !ok {
			t.Errorf("ExistsByID(2) = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("by entity", func(t *testing.T) {
		repo := New[user, int64](blob.NewMemStore())
		u := user{ID: 4, Name: "Dave"}
		if _, err := repo.Save(ctx, u); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(ctx, u); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if ok, _ := repo.ExistsByID(ctx, 4); ok {
			t.Error("ExistsByID() = true after Delete")
		}
	})

	t.Run("by entity without key is refused", func(t *testing.T) {
		store := &countingStore{Store: blob.NewMemStore()}
		repo := New[user, int64](store)
		if err := repo.Delete(ctx, user{}); err != ErrMissingKey {
			t.Errorf("Delete() error = %v, want ErrMissingKey", err)
		}
		if store.writes != 0 {
			t.Errorf("Delete() performed %d writes, want 0", store.writes)
		}
	})

	t.Run("unknown ID leaves index intact", func(t *testing.T) {
		store := blob.NewMemStore()
		repo := New[user, int64](store)
		if _, err := repo.Save(ctx, user{ID: 2, Name: "Bob"}); err != nil {
			t.Fatal(err)
		}
		if err := repo.DeleteByID(ctx, 99); err != nil {
			t.Fatal(err)
		}
		index, err := store.Read(ctx, "User_IDs")
		if err != nil {
			t.Fatal(err)
		}
		if string(index) != "2\n" {
			t.Errorf("index = %q, want %q", index, "2\n")
		}
	})
}

func TestRepositoryFindByID(t *testing.T) {
	ctx := t.Context()
	repo := New[user, int64](blob.NewMemStore())
	if _, ok, err := repo.FindByID(ctx, 42); err != nil || ok {
		t.Errorf("FindByID() = %v, %v, want false, nil", ok, err)
	}
}

func TestRepositoryStringKeys(t *testing.T) {
	ctx := t.Context()
	store := blob.NewMemStore()
	repo := New[session, string](store)

	if _, err := repo.Save(ctx, session{Token: "abc"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(ctx, session{Token: "def"}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := repo.FindByID(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("FindByID() = %v, %v", ok, err)
	}
	if got.Token != "abc" {
		t.Errorf("FindByID() = %+v", got)
	}
	index, err := store.Read(ctx, "Session_IDs")
	if err != nil {
		t.Fatal(err)
	}
	if string(index) != "abc\ndef\n" {
		t.Errorf("index = %q, want %q", index, "abc\ndef\n")
	}
	if err := repo.DeleteByID(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Token != "def" {
		t.Errorf("FindAll() = %+v, want [def]", all)
	}
	if _, err := repo.Save(ctx, session{}); err != ErrMissingKey {
		t.Errorf("Save() error = %v, want ErrMissingKey", err)
	}
}

func TestRecordBlobNames(t *testing.T) {
	ctx := t.Context()
	store := blob.NewMemStore()
	repo := New[user, int64](store)
	if _, err := repo.Save(ctx, user{ID: 12, Name: "Lee"}); err != nil {
		t.Fatal(err)
	}
	content, err := store.Read(ctx, "User_id_12")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "12|Lee" {
		t.Errorf("record blob = %q, want %q", content, "12|Lee")
	}
}
