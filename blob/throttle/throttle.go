// Package throttle wraps a blob.Store behind a token bucket rate limiter.
//
// Each operation waits for a token before delegating, so a repository
// sharing a store with latency-sensitive work (or a metered remote backend)
// cannot exceed the configured operation rate. Waiting honors context
// cancellation.
package throttle

import (
	"context"
	"fmt"

	"github.com/shelfdb/shelf/blob"
	"golang.org/x/time/rate"
)

// Store decorates another blob.Store with rate limiting.
type Store struct {
	next    blob.Store
	limiter *rate.Limiter
}

// New wraps next, allowing opsPerSecond sustained operations with the given
// burst capacity.
func New(next blob.Store, opsPerSecond float64, burst int) *Store {
	return &Store{next: next, limiter: rate.NewLimiter(rate.Limit(opsPerSecond), burst)}
}

func (s *Store) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Create implements blob.Store.
func (s *Store) Create(ctx context.Context, name string, content []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.next.Create(ctx, name, content)
}

// Read implements blob.Store.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Read(ctx, name)
}

// Update implements blob.Store.
func (s *Store) Update(ctx context.Context, name string, content []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.next.Update(ctx, name, content)
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.next.Delete(ctx, name)
}

// Append implements blob.Store.
func (s *Store) Append(ctx context.Context, name string, content []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.next.Append(ctx, name, content)
}

var _ blob.Store = (*Store)(nil)
