// Package kstate holds the mutable per-node state that survives across ticks.
//
// A State is created from a declared set of fields and handed by reference to
// the node's function on every tick. Reads and writes of names that were not
// declared fail, so typos surface as errors instead of silently creating new
// keys.
package kstate

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	ErrUndeclaredField = errors.New("kstate: undeclared field")
	ErrFieldType       = errors.New("kstate: field type mismatch")
)

// Fields declares state fields and their initial values.
type Fields map[string]any

// State is a set of named values. It is safe for concurrent use.
type State struct {
	mu     sync.Mutex
	fields map[string]any
}

// New creates a State holding a copy of fields.
func New(fields Fields) *State {
	return &State{fields: maps.Clone(map[string]any(fields))}
}

// Get returns the current value of name.
func (s *State) Get(name string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndeclaredField, name)
	}
	return v, nil
}

// Set replaces the value of name.
func (s *State) Set(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fields[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUndeclaredField, name)
	}
	s.fields[name] = v
	return nil
}

// Update replaces the value of name with fn applied to the current value. The
// read and the write happen atomically.
func (s *State) Update(name string, fn func(v any) any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUndeclaredField, name)
	}
	s.fields[name] = fn(v)
	return nil
}

// Has reports whether name was declared.
func (s *State) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fields[name]
	return ok
}

// Names returns the declared field names, sorted.
func (s *State) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.fields))
}

// Snapshot returns a copy of all fields.
func (s *State) Snapshot() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.fields)
}

// Value returns name typed as T.
func Value[T any](s *State, name string) (T, error) {
	v, err := s.Get(name)
	if err != nil {
		return *new(T), err
	}
	t, ok := v.(T)
	if !ok {
		return *new(T), fmt.Errorf("%w: %q holds %T, want %T", ErrFieldType, name, v, *new(T))
	}
	return t, nil
}

// Add increments a numeric int field by delta and returns the new value.
func Add(s *State, name string, delta int) (int, error) {
	var (
		out    int
		badTyp error
	)
	err := s.Update(name, func(v any) any {
		n, ok := v.(int)
		if !ok {
			badTyp = fmt.Errorf("%w: %q holds %T, want int", ErrFieldType, name, v)
			return v
		}
		out = n + delta
		return out
	})
	if err != nil {
		return 0, err
	}
	return out, badTyp
}
