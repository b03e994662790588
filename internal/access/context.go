// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import "github.com/oklog/ulid/v2"

// Context is the per-request fact set the decision engine evaluates records
// against. It is built fresh for every request by Resolver and never
// persisted or cached across requests.
type Context struct {
	// PrincipalID identifies the requesting user. Zero for anonymous
	// callers.
	PrincipalID ulid.ULID

	// SystemAdmin and WorldOwner short-circuit every decision.
	SystemAdmin bool
	WorldOwner  bool

	// WorldAccess is the caller-supplied has-any-access flag for the world.
	WorldAccess bool

	// CampaignIDs are the campaigns the principal belongs to in this world,
	// reached through campaign roles or owned characters.
	CampaignIDs []ulid.ULID

	// CharacterIDs are the characters the principal owns in this world.
	CharacterIDs []ulid.ULID

	// HasWorldCharacter is true when the principal owns at least one
	// character in the world.
	HasWorldCharacter bool

	// ActiveCampaignID is the campaign currently in focus for the request.
	// It only grants campaign-scoped access when it is also a member of
	// CampaignIDs; see ActiveCampaign.
	ActiveCampaignID *ulid.ULID

	// impersonated suppresses the personal shortcuts (creator match) so a
	// caller can evaluate access as if viewing through another identity.
	// Set only via Impersonated, never directly, so call sites cannot
	// forget it.
	impersonated bool
}

// Impersonated returns a copy of the context with personal access
// suppressed: the record-creator shortcut no longer applies. Audience
// grants (user lists, campaigns, characters) still do.
func (c Context) Impersonated() Context {
	c.impersonated = true
	return c
}

// IsImpersonated reports whether personal access is suppressed.
func (c Context) IsImpersonated() bool {
	return c.impersonated
}

// HasPrincipal reports whether the context carries an authenticated
// principal id.
func (c Context) HasPrincipal() bool {
	return c.PrincipalID != (ulid.ULID{})
}

// ActiveCampaign returns the active campaign id if one is set and the
// principal is actually a member of it. An out-of-scope or spoofed campaign
// id yields no active campaign rather than an error.
func (c Context) ActiveCampaign() (ulid.ULID, bool) {
	if c.ActiveCampaignID == nil {
		return ulid.ULID{}, false
	}
	if !containsID(c.CampaignIDs, *c.ActiveCampaignID) {
		return ulid.ULID{}, false
	}
	return *c.ActiveCampaignID, true
}

// MemberOf reports whether the principal belongs to the given campaign.
func (c Context) MemberOf(campaignID ulid.ULID) bool {
	return containsID(c.CampaignIDs, campaignID)
}

// Normalize deduplicates membership lists, converts nil slices to empty
// ones, and drops an active campaign id the principal is not a member of.
func (c *Context) Normalize() {
	c.CampaignIDs = DedupeIDs(c.CampaignIDs)
	c.CharacterIDs = DedupeIDs(c.CharacterIDs)
	if c.ActiveCampaignID != nil && !containsID(c.CampaignIDs, *c.ActiveCampaignID) {
		c.ActiveCampaignID = nil
	}
}
