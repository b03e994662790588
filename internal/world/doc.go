// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package world holds the domain types the access engine guards: worlds,
// campaigns, campaign memberships, characters, and the shared records
// (entities and locations) that carry access-control fields. The CRUD
// surface over these types lives in the surrounding application layer; this
// package only defines the model and the repository contracts the access
// and revision engines consume.
package world
