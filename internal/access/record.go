// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import "github.com/oklog/ulid/v2"

// Fields holds the access-control columns shared by every guarded record.
// It is embedded in domain records and snapshotted verbatim by the bulk
// revision engine.
type Fields struct {
	ReadMode         ReadMode
	WriteMode        WriteMode
	ReadCampaignIDs  []ulid.ULID
	ReadUserIDs      []ulid.ULID
	ReadCharacterIDs []ulid.ULID
	WriteCampaignIDs []ulid.ULID
	WriteUserIDs     []ulid.ULID
}

// Normalize enforces the audience invariant: when a mode is not selective
// its audience lists are empty. Lists are deduplicated and nil slices become
// empty slices. Normalization happens once, at record construction or write
// time, never defensively at read sites.
func (f *Fields) Normalize() {
	if f.ReadMode == ReadSelective {
		f.ReadCampaignIDs = DedupeIDs(f.ReadCampaignIDs)
		f.ReadUserIDs = DedupeIDs(f.ReadUserIDs)
		f.ReadCharacterIDs = DedupeIDs(f.ReadCharacterIDs)
	} else {
		f.ReadCampaignIDs = []ulid.ULID{}
		f.ReadUserIDs = []ulid.ULID{}
		f.ReadCharacterIDs = []ulid.ULID{}
	}
	if f.WriteMode == WriteSelective {
		f.WriteCampaignIDs = DedupeIDs(f.WriteCampaignIDs)
		f.WriteUserIDs = DedupeIDs(f.WriteUserIDs)
	} else {
		f.WriteCampaignIDs = []ulid.ULID{}
		f.WriteUserIDs = []ulid.ULID{}
	}
}

// Clone returns a deep copy of the fields. Used for before-snapshots so a
// later in-place mutation cannot alias the audit trail.
func (f Fields) Clone() Fields {
	clone := f
	clone.ReadCampaignIDs = append([]ulid.ULID(nil), f.ReadCampaignIDs...)
	clone.ReadUserIDs = append([]ulid.ULID(nil), f.ReadUserIDs...)
	clone.ReadCharacterIDs = append([]ulid.ULID(nil), f.ReadCharacterIDs...)
	clone.WriteCampaignIDs = append([]ulid.ULID(nil), f.WriteCampaignIDs...)
	clone.WriteUserIDs = append([]ulid.ULID(nil), f.WriteUserIDs...)
	return clone
}

// Record is the access-control view of a guarded world record (an entity or
// a location). The decision engine takes this struct by value; it never
// inspects rows generically.
type Record struct {
	ID        ulid.ULID
	WorldID   ulid.ULID
	CreatedBy ulid.ULID
	Fields
}
