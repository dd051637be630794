// Package primitives provides foundational data structures for the statechart engine.
// Store holds a machine's typed context value behind an RWMutex and versions
// every replacement that actually changes it.
package primitives

import (
	"reflect"
	"sync"
)

// Store is a thread-safe holder for one context value of type C.
// The value is replaced wholesale, never mutated in place, so values handed
// out by Get stay valid after later updates as long as callers treat them as
// read-only.
type Store[C any] struct {
	mu      sync.RWMutex
	value   C
	version uint64
}

// NewStore creates a Store holding initial.
func NewStore[C any](initial C) *Store[C] {
	return &Store[C]{value: initial}
}

// Get returns the current value.
func (s *Store[C]) Get() C {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version increments on every effective change. Equal versions mean equal values.
func (s *Store[C]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps in next and reports whether the value changed.
func (s *Store[C]) Replace(next C) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reflect.DeepEqual(s.value, next) {
		return false
	}
	s.value = next
	s.version++
	return true
}

// Update applies fn to the current value and stores the result.
// If fn returns an error the store is left untouched.
func (s *Store[C]) Update(fn func(C) (C, error)) (bool, error) {
	next, err := fn(s.Get())
	if err != nil {
		return false, err
	}
	return s.Replace(next), nil
}
