// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/revision"
)

// idStrings converts ULIDs to strings for text[] binding.
func idStrings(ids []ulid.ULID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// parseIDs converts a scanned text[] column back to ULIDs.
func parseIDs(raw []string, column string) ([]ulid.ULID, error) {
	ids := make([]ulid.ULID, 0, len(raw))
	for _, s := range raw {
		id, err := ulid.Parse(s)
		if err != nil {
			return nil, oops.With("operation", "parse id list").With("column", column).With("id", s).Wrap(err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func scanRun(row pgx.Row) (*revision.Run, error) {
	var run revision.Run
	var idStr, worldIDStr, actorIDStr string
	var campaignIDStr *string
	if err := row.Scan(&idStr, &worldIDStr, &actorIDStr, &campaignIDStr,
		&run.Description, &run.EntityCount, &run.Reverted, &run.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if run.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse run id").With("id", idStr).Wrap(err)
	}
	if run.WorldID, err = ulid.Parse(worldIDStr); err != nil {
		return nil, oops.With("operation", "parse run world id").With("id", worldIDStr).Wrap(err)
	}
	if run.ActorID, err = ulid.Parse(actorIDStr); err != nil {
		return nil, oops.With("operation", "parse run actor id").With("id", actorIDStr).Wrap(err)
	}
	if campaignIDStr != nil {
		campaignID, err := ulid.Parse(*campaignIDStr)
		if err != nil {
			return nil, oops.With("operation", "parse run campaign id").With("id", *campaignIDStr).Wrap(err)
		}
		run.CampaignID = &campaignID
	}
	return &run, nil
}

func scanChange(row pgx.Row) (*revision.Change, error) {
	var c revision.Change
	var idStr, runIDStr, entityIDStr, readMode, writeMode string
	var readCamps, readUsers, readChars, writeCamps, writeUsers []string
	if err := row.Scan(&idStr, &runIDStr, &entityIDStr, &readMode, &writeMode,
		&readCamps, &readUsers, &readChars, &writeCamps, &writeUsers); err != nil {
		return nil, err
	}

	var err error
	if c.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse change id").With("id", idStr).Wrap(err)
	}
	if c.RunID, err = ulid.Parse(runIDStr); err != nil {
		return nil, oops.With("operation", "parse change run id").With("id", runIDStr).Wrap(err)
	}
	if c.EntityID, err = ulid.Parse(entityIDStr); err != nil {
		return nil, oops.With("operation", "parse change entity id").With("id", entityIDStr).Wrap(err)
	}
	c.Before.ReadMode = access.ReadMode(readMode)
	c.Before.WriteMode = access.WriteMode(writeMode)
	if c.Before.ReadCampaignIDs, err = parseIDs(readCamps, "read_campaign_ids"); err != nil {
		return nil, err
	}
	if c.Before.ReadUserIDs, err = parseIDs(readUsers, "read_user_ids"); err != nil {
		return nil, err
	}
	if c.Before.ReadCharacterIDs, err = parseIDs(readChars, "read_character_ids"); err != nil {
		return nil, err
	}
	if c.Before.WriteCampaignIDs, err = parseIDs(writeCamps, "write_campaign_ids"); err != nil {
		return nil, err
	}
	if c.Before.WriteUserIDs, err = parseIDs(writeUsers, "write_user_ids"); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChanges(rows pgx.Rows) ([]*revision.Change, error) {
	changes := make([]*revision.Change, 0)
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, oops.With("operation", "scan change").Wrap(err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate changes").Wrap(err)
	}
	return changes, nil
}
