// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package property

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
)

// Editor reads and writes record fields through the access-checked world
// service: a get requires read access, a set requires write access, both
// judged against the caller's context.
type Editor struct {
	svc      *world.Service
	registry *Registry
}

// NewEditor creates an Editor over the given service and registry.
func NewEditor(svc *world.Service, registry *Registry) *Editor {
	return &Editor{svc: svc, registry: registry}
}

// Get resolves the field by name or prefix and returns its value on the
// entity, if the context may read it.
func (ed *Editor) Get(ctx context.Context, c access.Context, entityID ulid.ULID, nameOrPrefix string) (string, error) {
	entry, err := ed.registry.Resolve(nameOrPrefix)
	if err != nil {
		return "", oops.Code("FIELD_UNRESOLVED").With("field", nameOrPrefix).Wrap(err)
	}
	e, err := ed.svc.GetEntity(ctx, c, entityID)
	if err != nil {
		return "", err
	}
	return entry.Field.Get(e), nil
}

// Set resolves the field, assigns the value, and persists through the
// service so write access and entity validation both apply.
func (ed *Editor) Set(ctx context.Context, c access.Context, entityID ulid.ULID, nameOrPrefix, value string) error {
	entry, err := ed.registry.Resolve(nameOrPrefix)
	if err != nil {
		return oops.Code("FIELD_UNRESOLVED").With("field", nameOrPrefix).Wrap(err)
	}
	e, err := ed.svc.GetEntity(ctx, c, entityID)
	if err != nil {
		return err
	}
	entry.Field.Set(e, value)
	return ed.svc.UpdateEntity(ctx, c, e)
}
