// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package revision implements bulk access revisions: a privileged actor
// changes the access fields of many records in one transaction, and every
// revision is recorded as a Run with per-record before-snapshots so it can
// be reverted exactly once.
//
// A Run moves through created → active → reverted and never back. Apply
// validates the payload, authorizes the actor (world owner, or a campaign
// actor constrained by the scope guard), snapshots every target record, and
// commits the mutation atomically. Revert restores the snapshots under row
// locks, all-or-nothing.
package revision
