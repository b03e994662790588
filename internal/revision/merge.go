// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import "github.com/lorekeep/lorekeep/internal/access"

// ApplyToFields applies a normalized payload to one record's access fields
// and returns the updated, normalized copy. Selective audiences are unioned
// into the existing lists, never replaced wholesale; switching an axis to a
// non-selective mode clears its lists via normalization.
func ApplyToFields(f access.Fields, p NormalizedPayload) access.Fields {
	updated := f.Clone()

	if !p.ReadMode.unchanged() {
		updated.ReadMode = access.ReadMode(p.ReadMode)
		if updated.ReadMode == access.ReadSelective {
			updated.ReadCampaignIDs = access.UnionIDs(updated.ReadCampaignIDs, p.ReadCampaignIDs)
			updated.ReadUserIDs = access.UnionIDs(updated.ReadUserIDs, p.ReadUserIDs)
			updated.ReadCharacterIDs = access.UnionIDs(updated.ReadCharacterIDs, p.ReadCharacterIDs)
		}
	} else if updated.ReadMode == access.ReadSelective {
		// The read axis is untouched but write grantees were merged into
		// the read audiences; a record already in selective read absorbs
		// them so write access keeps implying read access.
		updated.ReadCampaignIDs = access.UnionIDs(updated.ReadCampaignIDs, p.WriteCampaignIDs)
		updated.ReadUserIDs = access.UnionIDs(updated.ReadUserIDs, p.WriteUserIDs)
	}

	if !p.WriteMode.unchanged() {
		updated.WriteMode = access.WriteMode(p.WriteMode)
		if updated.WriteMode == access.WriteSelective {
			updated.WriteCampaignIDs = access.UnionIDs(updated.WriteCampaignIDs, p.WriteCampaignIDs)
			updated.WriteUserIDs = access.UnionIDs(updated.WriteUserIDs, p.WriteUserIDs)
		}
	}

	updated.Normalize()
	return updated
}
