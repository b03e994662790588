// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

// CanWrite reports whether the context's principal may modify the record.
//
// Evaluation order: privileged shortcuts (admin, world owner, creator),
// then explicit user grants, then campaign grants through the active
// campaign, then the global write mode. Selective, hidden, and owner-only
// modes grant nothing beyond the shortcuts and explicit audiences.
func CanWrite(rec Record, c Context) bool {
	if c.SystemAdmin || c.WorldOwner {
		return true
	}
	if !c.IsImpersonated() && c.HasPrincipal() && c.PrincipalID == rec.CreatedBy {
		return true
	}
	if c.HasPrincipal() && containsID(rec.WriteUserIDs, c.PrincipalID) {
		return true
	}
	if campaignID, ok := c.ActiveCampaign(); ok && containsID(rec.WriteCampaignIDs, campaignID) {
		return true
	}
	if rec.WriteMode == WriteGlobal {
		return c.WorldAccess || c.HasWorldCharacter
	}
	return false
}

// CanRead reports whether the context's principal may see the record.
//
// Write access always implies read access: a principal who can edit a
// record can read back its own edits, even when the read mode is hidden.
// Campaign-scoped read grants require the active campaign to be one of the
// principal's own memberships, so a caller cannot claim visibility through
// a campaign id it does not belong to.
func CanRead(rec Record, c Context) bool {
	if c.SystemAdmin || c.WorldOwner {
		return true
	}
	if !c.IsImpersonated() && c.HasPrincipal() && c.PrincipalID == rec.CreatedBy {
		return true
	}
	if CanWrite(rec, c) {
		return true
	}

	switch rec.ReadMode {
	case ReadHidden:
		return false
	case ReadGlobal:
		return c.WorldAccess || c.HasWorldCharacter
	case ReadSelective:
		if c.HasPrincipal() && containsID(rec.ReadUserIDs, c.PrincipalID) {
			return true
		}
		if intersectsIDs(c.CharacterIDs, rec.ReadCharacterIDs) {
			return true
		}
		if campaignID, ok := c.ActiveCampaign(); ok && containsID(rec.ReadCampaignIDs, campaignID) {
			return true
		}
	}
	return false
}
