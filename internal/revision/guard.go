// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
)

// GuardCampaignScope checks a normalized payload against the acting
// campaign's membership. Campaign actors may only grant access within their
// own campaign: every referenced campaign id must be the actor's campaign,
// and every user or character id must belong to it. Each check raises a
// distinct denial so the caller can report exactly what leaked out of
// scope.
func GuardCampaignScope(p NormalizedPayload, scope world.CampaignScope) error {
	for _, id := range access.UnionIDs(p.ReadCampaignIDs, p.WriteCampaignIDs) {
		if id != scope.CampaignID {
			return oops.
				Code("REVISION_CROSS_CAMPAIGN_GRANT").
				With("campaign_id", id.String()).
				With("actor_campaign_id", scope.CampaignID.String()).
				Wrap(world.ErrPermissionDenied)
		}
	}
	for _, id := range p.WriteUserIDs {
		if !scope.ContainsUser(id) {
			return oops.
				Code("REVISION_WRITE_USER_OUT_OF_SCOPE").
				With("user_id", id.String()).
				With("campaign_id", scope.CampaignID.String()).
				Wrap(world.ErrPermissionDenied)
		}
	}
	for _, id := range p.ReadUserIDs {
		if !scope.ContainsUser(id) {
			return oops.
				Code("REVISION_READ_USER_OUT_OF_SCOPE").
				With("user_id", id.String()).
				With("campaign_id", scope.CampaignID.String()).
				Wrap(world.ErrPermissionDenied)
		}
	}
	for _, id := range p.ReadCharacterIDs {
		if !scope.ContainsCharacter(id) {
			return oops.
				Code("REVISION_CHARACTER_OUT_OF_SCOPE").
				With("character_id", id.String()).
				With("campaign_id", scope.CampaignID.String()).
				Wrap(world.ErrPermissionDenied)
		}
	}
	return nil
}

// EnsureRecordsVisibleToCampaign rejects a bulk run whose targets include a
// record the acting campaign cannot already see. A campaign actor must not
// be able to use a bulk operation to discover or touch records outside the
// campaign's current view.
func EnsureRecordsVisibleToCampaign(records []access.Record, scope world.CampaignScope) error {
	for _, rec := range records {
		if campaignCanSee(rec, scope) {
			continue
		}
		return oops.
			Code("REVISION_RECORD_NOT_VISIBLE").
			With("entity_id", rec.ID.String()).
			With("campaign_id", scope.CampaignID.String()).
			Wrap(world.ErrPermissionDenied)
	}
	return nil
}

func campaignCanSee(rec access.Record, scope world.CampaignScope) bool {
	if rec.ReadMode == access.ReadGlobal {
		return true
	}
	for _, id := range rec.ReadCampaignIDs {
		if id == scope.CampaignID {
			return true
		}
	}
	for _, id := range rec.ReadCharacterIDs {
		if scope.ContainsCharacter(id) {
			return true
		}
	}
	return false
}
