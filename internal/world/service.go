// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
)

// Service provides access-checked entity operations. Single-record reads
// and writes consult the decision engine directly; list queries compile the
// same context into a storage filter so ineligible rows are never fetched.
type Service struct {
	entities EntityRepository
}

// NewService creates a Service over the given repository.
func NewService(entities EntityRepository) *Service {
	return &Service{entities: entities}
}

// GetEntity retrieves an entity the context may read.
func (s *Service) GetEntity(ctx context.Context, c access.Context, id ulid.ULID) (*Entity, error) {
	e, err := s.entities.Get(ctx, id)
	if err != nil {
		return nil, oops.Wrapf(err, "get entity %s", id)
	}
	allowed := access.CanRead(e.AccessRecord(), c)
	access.RecordDecision("read", allowed)
	if !allowed {
		// Denied reads surface as not-found so hidden records stay
		// unobservable.
		return nil, oops.Code("ENTITY_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	return e, nil
}

// ListEntities returns the world's entities readable by the context.
func (s *Service) ListEntities(ctx context.Context, c access.Context, worldID ulid.ULID) ([]*Entity, error) {
	filter := access.Compile(c)
	entities, err := s.entities.ListReadable(ctx, worldID, filter)
	if err != nil {
		return nil, oops.Wrapf(err, "list entities for world %s", worldID)
	}
	return entities, nil
}

// UpdateEntity modifies an entity the context may write.
func (s *Service) UpdateEntity(ctx context.Context, c access.Context, e *Entity) error {
	current, err := s.entities.Get(ctx, e.ID)
	if err != nil {
		return oops.Wrapf(err, "get entity %s", e.ID)
	}
	allowed := access.CanWrite(current.AccessRecord(), c)
	access.RecordDecision("write", allowed)
	if !allowed {
		return oops.Code("ENTITY_WRITE_DENIED").With("id", e.ID.String()).Wrap(ErrPermissionDenied)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.Normalize()
	if err := s.entities.Update(ctx, e); err != nil {
		return oops.Wrapf(err, "update entity %s", e.ID)
	}
	return nil
}
