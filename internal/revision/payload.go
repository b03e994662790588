// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// Payload limits.
const (
	// MaxBulkEntities caps how many records a single run may target.
	MaxBulkEntities = 1000
	// MaxDescriptionLength caps the free-text run description.
	MaxDescriptionLength = 500
)

// ModeSelection is a requested value for one access axis. Besides the
// concrete modes it admits "unchanged", which leaves the axis as it is on
// each target record.
type ModeSelection string

// SelectUnchanged leaves an axis untouched.
const SelectUnchanged ModeSelection = "unchanged"

func (s ModeSelection) unchanged() bool {
	return s == SelectUnchanged
}

func (s ModeSelection) validRead() bool {
	return s.unchanged() || access.ReadMode(s).IsValid()
}

func (s ModeSelection) validWrite() bool {
	return s.unchanged() || access.WriteMode(s).IsValid()
}

// Payload is a bulk access revision as submitted by a client: the target
// records, the requested mode per axis, and the audiences to grant. Audience
// lists accompany only a selective selection; an unchanged axis must carry
// no ids at all.
type Payload struct {
	EntityIDs []ulid.ULID `json:"entity_ids" jsonschema:"minItems=1,maxItems=1000"`

	ReadMode  ModeSelection `json:"read_mode"`
	WriteMode ModeSelection `json:"write_mode"`

	ReadCampaignIDs  []ulid.ULID `json:"read_campaign_ids,omitempty"`
	ReadUserIDs      []ulid.ULID `json:"read_user_ids,omitempty"`
	ReadCharacterIDs []ulid.ULID `json:"read_character_ids,omitempty"`
	WriteCampaignIDs []ulid.ULID `json:"write_campaign_ids,omitempty"`
	WriteUserIDs     []ulid.ULID `json:"write_user_ids,omitempty"`

	Description string `json:"description,omitempty" jsonschema:"maxLength=500"`
}

// NormalizedPayload is a validated payload with deduplicated ids and the
// write-implies-read merge applied: users and campaigns granted write access
// also appear in the read audiences, so a revision can never produce a
// record someone may edit but not see. The original write lists are kept
// as submitted.
type NormalizedPayload struct {
	EntityIDs []ulid.ULID

	ReadMode  ModeSelection
	WriteMode ModeSelection

	ReadCampaignIDs  []ulid.ULID
	ReadUserIDs      []ulid.ULID
	ReadCharacterIDs []ulid.ULID
	WriteCampaignIDs []ulid.ULID
	WriteUserIDs     []ulid.ULID

	Description string
}

func (p Payload) readAudienceCount() int {
	return len(p.ReadCampaignIDs) + len(p.ReadUserIDs) + len(p.ReadCharacterIDs)
}

func (p Payload) writeAudienceCount() int {
	return len(p.WriteCampaignIDs) + len(p.WriteUserIDs)
}

// Validate checks the payload and returns its normalized form. The checks
// run in a fixed order so clients get the same error for the same payload;
// the first failure wins.
func (p Payload) Validate() (NormalizedPayload, error) {
	if len(p.EntityIDs) == 0 {
		return NormalizedPayload{}, &ValidationError{
			Field:   "entity_ids",
			Message: "at least one entity is required",
		}
	}
	// The cap applies to the raw list, before deduplication, so an
	// oversized request is rejected even when its ids collapse.
	if len(p.EntityIDs) > MaxBulkEntities {
		return NormalizedPayload{}, &ValidationError{
			Field:   "entity_ids",
			Message: "too many entities in one run",
		}
	}
	if !p.ReadMode.validRead() {
		return NormalizedPayload{}, &ValidationError{
			Field:   "read_mode",
			Message: "unknown read mode",
		}
	}
	if !p.WriteMode.validWrite() {
		return NormalizedPayload{}, &ValidationError{
			Field:   "write_mode",
			Message: "unknown write mode",
		}
	}
	if p.ReadMode.unchanged() && p.WriteMode.unchanged() {
		return NormalizedPayload{}, &ValidationError{
			Field:   "read_mode",
			Message: "revision changes nothing",
		}
	}
	if p.ReadMode.unchanged() && p.readAudienceCount() > 0 {
		return NormalizedPayload{}, &ValidationError{
			Field:   "read_mode",
			Message: "read audiences require a read mode change",
		}
	}
	if p.WriteMode.unchanged() && p.writeAudienceCount() > 0 {
		return NormalizedPayload{}, &ValidationError{
			Field:   "write_mode",
			Message: "write audiences require a write mode change",
		}
	}
	if p.ReadMode != SelectUnchanged && access.ReadMode(p.ReadMode) == access.ReadSelective && p.readAudienceCount() == 0 {
		return NormalizedPayload{}, &ValidationError{
			Field:   "read_mode",
			Message: "selective read requires at least one audience",
		}
	}
	if p.WriteMode != SelectUnchanged && access.WriteMode(p.WriteMode) == access.WriteSelective && p.writeAudienceCount() == 0 {
		return NormalizedPayload{}, &ValidationError{
			Field:   "write_mode",
			Message: "selective write requires at least one audience",
		}
	}
	if access.ReadMode(p.ReadMode) == access.ReadHidden && access.WriteMode(p.WriteMode) == access.WriteSelective {
		// A record invisible for reading cannot sensibly expose selective
		// write targets.
		return NormalizedPayload{}, &ValidationError{
			Field:   "write_mode",
			Message: "hidden read cannot be combined with selective write",
		}
	}
	description := strings.TrimSpace(p.Description)
	// The cap counts characters, not bytes; multibyte text gets the full 500.
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return NormalizedPayload{}, &ValidationError{
			Field:   "description",
			Message: "description too long",
		}
	}

	return NormalizedPayload{
		EntityIDs:        access.DedupeIDs(p.EntityIDs),
		ReadMode:         p.ReadMode,
		WriteMode:        p.WriteMode,
		ReadCampaignIDs:  access.UnionIDs(p.ReadCampaignIDs, p.WriteCampaignIDs),
		ReadUserIDs:      access.UnionIDs(p.ReadUserIDs, p.WriteUserIDs),
		ReadCharacterIDs: access.DedupeIDs(p.ReadCharacterIDs),
		WriteCampaignIDs: access.DedupeIDs(p.WriteCampaignIDs),
		WriteUserIDs:     access.DedupeIDs(p.WriteUserIDs),
		Description:      description,
	}, nil
}
