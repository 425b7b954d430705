// Package optimistic mirrors a server-held set locally and applies changes
// before the server confirms them, reverting on failure.
package optimistic

import (
	"context"
	"sync"
)

// Set is an ordered set of values keyed by a key function.
type Set[T any] struct {
	key      func(T) string
	onChange func()

	mu    sync.Mutex
	items []T
}

// New creates an empty set.
func New[T any](key func(T) string) *Set[T] {
	return &Set[T]{key: key}
}

// OnChange registers a callback run after every local change.
func (s *Set[T]) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Set[T]) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Items returns a copy of the values in insertion order.
func (s *Set[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// Len returns the number of values.
func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Contains reports whether a value with key k is present.
func (s *Set[T]) Contains(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(k) >= 0
}

func (s *Set[T]) indexLocked(k string) int {
	for i, v := range s.items {
		if s.key(v) == k {
			return i
		}
	}
	return -1
}

// Replace swaps the whole content, as after a reload from the server.
func (s *Set[T]) Replace(items []T) {
	s.mu.Lock()
	s.items = dedupe(items, s.key)
	s.mu.Unlock()
	s.changed()
}

// Forget removes k locally without any server call.
func (s *Set[T]) Forget(k string) bool {
	s.mu.Lock()
	i := s.indexLocked(k)
	if i >= 0 {
		s.items = append(append([]T(nil), s.items[:i]...), s.items[i+1:]...)
	}
	s.mu.Unlock()
	if i >= 0 {
		s.changed()
	}
	return i >= 0
}

// Add inserts v, then runs commit. If commit fails, v is removed again,
// but only when this call was the one that added it.
func (s *Set[T]) Add(ctx context.Context, v T, commit func(ctx context.Context) error) error {
	k := s.key(v)
	s.mu.Lock()
	added := s.indexLocked(k) < 0
	if added {
		s.items = append(append([]T(nil), s.items...), v)
	}
	s.mu.Unlock()
	if added {
		s.changed()
	}

	if err := commit(ctx); err != nil {
		if added {
			s.Forget(k)
		}
		return err
	}
	return nil
}

// Remove deletes k, then runs commit. If commit fails, the set is restored
// to its content from before the call.
func (s *Set[T]) Remove(ctx context.Context, k string, commit func(ctx context.Context) error) error {
	s.mu.Lock()
	previous := s.items
	i := s.indexLocked(k)
	if i >= 0 {
		s.items = append(append([]T(nil), s.items[:i]...), s.items[i+1:]...)
	}
	s.mu.Unlock()
	if i >= 0 {
		s.changed()
	}

	if err := commit(ctx); err != nil {
		if i >= 0 {
			s.mu.Lock()
			s.items = previous
			s.mu.Unlock()
			s.changed()
		}
		return err
	}
	return nil
}

func dedupe[T any](items []T, key func(T) string) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, v := range items {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
