// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package world

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// Validation limits for entities.
const (
	MaxEntityNameLength        = 100
	MaxEntityDescriptionLength = 4000
)

// EntityKind distinguishes the record families that share access fields.
type EntityKind string

// Valid entity kinds.
const (
	KindEntity   EntityKind = "entity"
	KindLocation EntityKind = "location"
)

// IsValid returns true for a known kind.
func (k EntityKind) IsValid() bool {
	return k == KindEntity || k == KindLocation
}

// Entity is a shared world record guarded by the access engine. Both plain
// entities and locations use this shape; Kind tells them apart.
type Entity struct {
	ID          ulid.ULID
	WorldID     ulid.ULID
	Kind        EntityKind
	Name        string
	Description string
	CreatedBy   ulid.ULID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	access.Fields
}

// NewEntity creates a validated entity with a generated id and normalized
// access fields. New records default to selective read and owner-only write
// until the creator opens them up.
func NewEntity(worldID, createdBy ulid.ULID, kind EntityKind, name string) (*Entity, error) {
	e := &Entity{
		ID:        ulid.Make(),
		WorldID:   worldID,
		Kind:      kind,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	e.ReadMode = access.ReadSelective
	e.WriteMode = access.WriteOwnerOnly
	e.Normalize()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks required fields and limits.
func (e *Entity) Validate() error {
	if e.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if e.WorldID.IsZero() {
		return &ValidationError{Field: "world_id", Message: "cannot be zero"}
	}
	if !e.Kind.IsValid() {
		return &ValidationError{Field: "kind", Message: "must be 'entity' or 'location'"}
	}
	if e.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if !utf8.ValidString(e.Name) {
		return &ValidationError{Field: "name", Message: "must be valid UTF-8"}
	}
	if len(e.Name) > MaxEntityNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxEntityNameLength)}
	}
	if len(e.Description) > MaxEntityDescriptionLength {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds maximum length of %d", MaxEntityDescriptionLength)}
	}
	if !e.ReadMode.IsValid() {
		return &ValidationError{Field: "read_mode", Message: "unknown read mode"}
	}
	if !e.WriteMode.IsValid() {
		return &ValidationError{Field: "write_mode", Message: "unknown write mode"}
	}
	return nil
}

// AccessRecord returns the access-control view of the entity, the value the
// decision engine evaluates.
func (e *Entity) AccessRecord() access.Record {
	return access.Record{
		ID:        e.ID,
		WorldID:   e.WorldID,
		CreatedBy: e.CreatedBy,
		Fields:    e.Fields,
	}
}
