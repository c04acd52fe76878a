// Package blobtest verifies that a Store implementation honors the contract
// every repository relies on. Backend packages call [TestStore] from their
// own tests with a freshly created empty store.
package blobtest

import (
	"errors"
	"testing"

	"github.com/shelfdb/shelf/blob"
)

// TestStore runs the Store contract suite against an empty store.
func TestStore(t *testing.T, s blob.Store) {
	t.Helper()
	ctx := t.Context()

	t.Run("absent read yields empty content", func(t *testing.T) {
		content, err := s.Read(ctx, "absent")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if len(content) != 0 {
			t.Errorf("Read() = %q, want empty", content)
		}
	})

	t.Run("create then read", func(t *testing.T) {
		if err := s.Create(ctx, "a", []byte("hello")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		content, err := s.Read(ctx, "a")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if string(content) != "hello" {
			t.Errorf("Read() = %q, want %q", content, "hello")
		}
	})

	t.Run("create overwrites", func(t *testing.T) {
		if err := s.Create(ctx, "b", []byte("one")); err != nil {
			t.Fatal(err)
		}
		if err := s.Create(ctx, "b", []byte("two")); err != nil {
			t.Fatal(err)
		}
		content, err := s.Read(ctx, "b")
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "two" {
			t.Errorf("Read() = %q, want %q", content, "two")
		}
	})

	t.Run("update overwrites like create", func(t *testing.T) {
		if err := s.Update(ctx, "c", []byte("fresh")); err != nil {
			t.Fatalf("Update() on absent name error = %v", err)
		}
		if err := s.Update(ctx, "c", []byte("newer")); err != nil {
			t.Fatal(err)
		}
		content, err := s.Read(ctx, "c")
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "newer" {
			t.Errorf("Read() = %q, want %q", content, "newer")
		}
	})

	t.Run("append concatenates and creates", func(t *testing.T) {
		if err := s.Append(ctx, "d", []byte("first")); err != nil {
			t.Fatalf("Append() on absent name error = %v", err)
		}
		if err := s.Append(ctx, "d", []byte("+second")); err != nil {
			t.Fatal(err)
		}
		content, err := s.Read(ctx, "d")
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "first+second" {
			t.Errorf("Read() = %q, want %q", content, "first+second")
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := s.Create(ctx, "e", []byte("bye")); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "e"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		content, err := s.Read(ctx, "e")
		if err != nil {
			t.Fatal(err)
		}
		if len(content) != 0 {
			t.Errorf("Read() after Delete = %q, want empty", content)
		}
		if err := s.Delete(ctx, "e"); err != nil {
			t.Errorf("Delete() of absent name error = %v, want nil", err)
		}
	})

	t.Run("empty content round trips", func(t *testing.T) {
		if err := s.Create(ctx, "f", nil); err != nil {
			t.Fatal(err)
		}
		content, err := s.Read(ctx, "f")
		if err != nil {
			t.Fatal(err)
		}
		if len(content) != 0 {
			t.Errorf("Read() = %q, want empty", content)
		}
	})

	t.Run("invalid names rejected", func(t *testing.T) {
		for _, name := range []string{"", "a/b", "a b", "../x"} {
			if err := s.Create(ctx, name, []byte("x")); !errors.Is(err, blob.ErrInvalidName) {
				t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
			}
		}
	})
}
