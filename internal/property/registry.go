// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package property exposes record fields as named, prefix-addressable
// accessors so editing surfaces can resolve "desc" to the description field
// without hardcoding field names.
package property

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lorekeep/lorekeep/internal/world"
)

// ErrInvalidFieldName indicates the field name is empty or invalid.
var ErrInvalidFieldName = errors.New("field name cannot be empty")

// ErrDuplicateField indicates a field with the same name already exists.
var ErrDuplicateField = errors.New("field already registered")

// ErrFieldNotFound indicates no field matched a prefix.
var ErrFieldNotFound = errors.New("field not found")

// AmbiguousFieldError indicates multiple fields match a prefix.
type AmbiguousFieldError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousFieldError) Error() string {
	sorted := make([]string, len(e.Matches))
	copy(sorted, e.Matches)
	sort.Strings(sorted)
	return fmt.Sprintf("ambiguous field '%s' - matches: %s", e.Prefix, strings.Join(sorted, ", "))
}

// Field defines get/set behavior for one editable record field. Value
// validation stays with the entity; fields are plain accessors.
type Field interface {
	Get(e *world.Entity) string
	Set(e *world.Entity, value string)
}

// Entry ties a field name to its accessor.
type Entry struct {
	Name  string
	Field Field
}

// Registry manages field accessors.
// It is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]Field
}

var sharedRegistryOnce sync.Once
var sharedRegistry *Registry

// NewRegistry creates an empty field registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]Field)}
}

// Register adds a field accessor to the registry.
// Returns ErrInvalidFieldName for empty names and ErrDuplicateField on duplicates.
func (r *Registry) Register(name string, field Field) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidFieldName
	}
	if field == nil {
		return errors.New("field accessor cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[name]; exists {
		return ErrDuplicateField
	}
	if r.fields == nil {
		r.fields = make(map[string]Field)
	}
	r.fields[name] = field
	return nil
}

// MustRegister adds a field accessor to the registry, panicking on error.
// This is intended for package initialization only.
func (r *Registry) MustRegister(name string, field Field) {
	if err := r.Register(name, field); err != nil {
		panic(err)
	}
}

// Lookup returns the field accessor for the given name.
func (r *Registry) Lookup(name string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	field, ok := r.fields[name]
	return field, ok
}

// Resolve finds a field by exact name or unique prefix.
// Returns AmbiguousFieldError if multiple fields match.
// Returns ErrFieldNotFound if no fields match.
func (r *Registry) Resolve(nameOrPrefix string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if field, ok := r.fields[nameOrPrefix]; ok {
		return Entry{Name: nameOrPrefix, Field: field}, nil
	}

	var matches []string
	for name := range r.fields {
		if strings.HasPrefix(name, nameOrPrefix) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return Entry{}, ErrFieldNotFound
	case 1:
		return Entry{Name: matches[0], Field: r.fields[matches[0]]}, nil
	default:
		return Entry{}, &AmbiguousFieldError{Prefix: nameOrPrefix, Matches: matches}
	}
}

// RegisteredNames returns the sorted list of registered field names.
func (r *Registry) RegisteredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with the standard fields registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("description", descriptionField{})
	r.MustRegister("name", nameField{})
	return r
}

// SharedRegistry returns a shared default registry instance.
// This is safe for concurrent access and avoids duplicate registrations.
func SharedRegistry() *Registry {
	sharedRegistryOnce.Do(func() {
		sharedRegistry = DefaultRegistry()
	})
	return sharedRegistry
}
