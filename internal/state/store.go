// Package state keeps in-memory per-user conversation state.
//
// Each flow (questionnaire, broadcast wizard, calendar selection) owns its
// own Store with its own value type; stores are independent and safe for
// concurrent access from the bot's handler goroutines.
package state

import "sync"

// Store is a mutex-guarded map of per-user values of type T.
// The zero value is not usable; construct with New.
type Store[T any] struct {
	mu     sync.RWMutex
	values map[int64]*T
}

// New constructs an empty Store.
func New[T any]() *Store[T] {
	return &Store[T]{values: make(map[int64]*T)}
}

// Get returns the value for a user, or nil when the user has no entry.
func (s *Store[T]) Get(userID int64) *T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[userID]
}

// Set stores the value for a user, replacing any previous entry.
func (s *Store[T]) Set(userID int64, value *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[userID] = value
}

// Update applies fn to the user's current entry under the write lock.
// When the user has no entry, fn receives nil; a non-nil return value is
// stored back, a nil return value removes the entry.
func (s *Store[T]) Update(userID int64, fn func(current *T) *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.values[userID])
	if next == nil {
		delete(s.values, userID)
		return
	}
	s.values[userID] = next
}

// Delete removes the user's entry if present.
func (s *Store[T]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, userID)
}

// Has reports whether the user has an active entry.
func (s *Store[T]) Has(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[userID]
	return ok
}

// Len returns the number of active entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
