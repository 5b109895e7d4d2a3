// Package store caches backend entities in memory, keyed by their id.
package store

import (
	"sort"
	"sync"

	"github.com/mtlprog/wealth/internal/domain"
)

// Store is a concurrency-safe cache of entities keyed by id.
type Store[T any] struct {
	mu       sync.RWMutex
	entries  map[string]T
	id       func(T) string
	balances func(*T) *[]domain.BalancePoint
}

// New creates a store. balances exposes the entity's balance slice so that
// an upsert without balances keeps the cached ones.
func New[T any](id func(T) string, balances func(*T) *[]domain.BalancePoint) *Store[T] {
	return &Store[T]{
		entries:  make(map[string]T),
		id:       id,
		balances: balances,
	}
}

// Upsert inserts item or merges it into the cached entity with the same id.
func (s *Store[T]) Upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(item)
}

// UpsertMany upserts every item.
func (s *Store[T]) UpsertMany(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.upsert(item)
	}
}

func (s *Store[T]) upsert(item T) {
	key := s.id(item)
	if existing, ok := s.entries[key]; ok && s.balances != nil {
		if incoming := s.balances(&item); *incoming == nil {
			*incoming = *s.balances(&existing)
		}
	}
	s.entries[key] = item
}

// SetBalances replaces the balances of the cached entity. It reports false
// when no entity with id is cached.
func (s *Store[T]) SetBalances(id string, points []domain.BalancePoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[id]
	if !ok || s.balances == nil {
		return false
	}
	if points == nil {
		points = []domain.BalancePoint{}
	}
	*s.balances(&item) = points
	s.entries[id] = item
	return true
}

// Remove drops the entity with id.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Clear drops every entity.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]T)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.entries[id]
	return item, ok
}

// All returns the cached entities ordered by id.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = s.entries[k]
	}
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
