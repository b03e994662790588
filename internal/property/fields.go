// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package property

import "github.com/lorekeep/lorekeep/internal/world"

type nameField struct{}

func (nameField) Get(e *world.Entity) string {
	return e.Name
}

func (nameField) Set(e *world.Entity, value string) {
	e.Name = value
}

type descriptionField struct{}

func (descriptionField) Get(e *world.Entity) string {
	return e.Description
}

func (descriptionField) Set(e *world.Entity, value string) {
	e.Description = value
}
