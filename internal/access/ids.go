// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import "github.com/oklog/ulid/v2"

// containsID reports whether ids contains id.
func containsID(ids []ulid.ULID, id ulid.ULID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// intersectsIDs reports whether a and b share at least one id.
func intersectsIDs(a, b []ulid.ULID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[ulid.ULID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

// DedupeIDs returns ids with duplicates removed, preserving first-seen
// order. A nil slice normalizes to an empty slice.
func DedupeIDs(ids []ulid.ULID) []ulid.ULID {
	result := make([]ulid.ULID, 0, len(ids))
	seen := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// UnionIDs returns the union of base and extra, preserving base order first.
func UnionIDs(base, extra []ulid.ULID) []ulid.ULID {
	return DedupeIDs(append(append(make([]ulid.ULID, 0, len(base)+len(extra)), base...), extra...))
}

// idStrings converts a ULID slice to its string form for SQL array binding.
func idStrings(ids []ulid.ULID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
