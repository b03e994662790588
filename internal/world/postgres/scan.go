// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
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

// entityScanFields holds intermediate scan values for entity parsing.
type entityScanFields struct {
	idStr        string
	worldIDStr   string
	createdByStr string
	readMode     string
	writeMode    string
	readCamps    []string
	readUsers    []string
	readChars    []string
	writeCamps   []string
	writeUsers   []string
}

func (f *entityScanFields) dests(e *world.Entity) []any {
	return []any{
		&f.idStr, &f.worldIDStr, &e.Kind, &e.Name, &e.Description,
		&f.createdByStr, &e.CreatedAt, &e.UpdatedAt,
		&f.readMode, &f.writeMode,
		&f.readCamps, &f.readUsers, &f.readChars, &f.writeCamps, &f.writeUsers,
	}
}

// apply converts scan fields into entity fields.
func (f *entityScanFields) apply(e *world.Entity) error {
	var err error
	if e.ID, err = ulid.Parse(f.idStr); err != nil {
		return oops.With("operation", "parse entity id").With("id", f.idStr).Wrap(err)
	}
	if e.WorldID, err = ulid.Parse(f.worldIDStr); err != nil {
		return oops.With("operation", "parse entity world id").With("id", f.worldIDStr).Wrap(err)
	}
	if e.CreatedBy, err = ulid.Parse(f.createdByStr); err != nil {
		return oops.With("operation", "parse entity creator id").With("id", f.createdByStr).Wrap(err)
	}
	e.ReadMode = access.ReadMode(f.readMode)
	e.WriteMode = access.WriteMode(f.writeMode)
	if e.ReadCampaignIDs, err = parseIDs(f.readCamps, "read_campaign_ids"); err != nil {
		return err
	}
	if e.ReadUserIDs, err = parseIDs(f.readUsers, "read_user_ids"); err != nil {
		return err
	}
	if e.ReadCharacterIDs, err = parseIDs(f.readChars, "read_character_ids"); err != nil {
		return err
	}
	if e.WriteCampaignIDs, err = parseIDs(f.writeCamps, "write_campaign_ids"); err != nil {
		return err
	}
	if e.WriteUserIDs, err = parseIDs(f.writeUsers, "write_user_ids"); err != nil {
		return err
	}
	return nil
}

// scanEntityRow scans a single entity from a row.
func scanEntityRow(row pgx.Row) (*world.Entity, error) {
	var e world.Entity
	var f entityScanFields
	if err := row.Scan(f.dests(&e)...); err != nil {
		return nil, err
	}
	if err := f.apply(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntities(rows pgx.Rows) ([]*world.Entity, error) {
	entities := make([]*world.Entity, 0)
	for rows.Next() {
		var e world.Entity
		var f entityScanFields
		if err := rows.Scan(f.dests(&e)...); err != nil {
			return nil, oops.With("operation", "scan entity").Wrap(err)
		}
		if err := f.apply(&e); err != nil {
			return nil, err
		}
		entities = append(entities, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate entities").Wrap(err)
	}
	return entities, nil
}
