// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// clause is one disjunct of a compiled read filter. Each clause knows how to
// evaluate itself against an in-memory record and how to render itself as a
// SQL condition. The two evaluations must agree; TestFilterMatchesCanRead
// pins the in-memory side to CanRead and the postgres repositories reuse
// the SQL side.
type clause interface {
	matches(rec Record) bool
	render(b *sqlBuilder)
}

// Filter is a declarative disjunction of clauses equivalent, for listing
// purposes, to evaluating CanRead per row. An unrestricted filter matches
// everything; a filter with no clauses matches nothing (never everything).
type Filter struct {
	unrestricted bool
	clauses      []clause
}

// Compile translates a context into a Filter the storage layer can apply.
func Compile(c Context) Filter {
	if c.SystemAdmin || c.WorldOwner {
		return Filter{unrestricted: true}
	}

	var clauses []clause
	if c.HasPrincipal() && !c.IsImpersonated() {
		clauses = append(clauses, createdByClause{principalID: c.PrincipalID})
	}
	if c.WorldAccess || c.HasWorldCharacter {
		clauses = append(clauses, globalModeClause{})
	}
	if campaignID, ok := c.ActiveCampaign(); ok {
		clauses = append(clauses,
			readCampaignClause{campaignID: campaignID},
			writeCampaignClause{campaignID: campaignID},
		)
	}
	if len(c.CharacterIDs) > 0 {
		clauses = append(clauses, readCharacterClause{characterIDs: DedupeIDs(c.CharacterIDs)})
	}
	if c.HasPrincipal() {
		clauses = append(clauses,
			readUserClause{principalID: c.PrincipalID},
			writeUserClause{principalID: c.PrincipalID},
		)
	}
	return Filter{clauses: clauses}
}

// Unrestricted reports whether the filter matches every record.
func (f Filter) Unrestricted() bool {
	return f.unrestricted
}

// Matches evaluates the filter against a record in memory.
func (f Filter) Matches(rec Record) bool {
	if f.unrestricted {
		return true
	}
	for _, cl := range f.clauses {
		if cl.matches(rec) {
			return true
		}
	}
	return false
}

// SQL renders the filter as a WHERE condition with positional placeholders
// starting at startArg. Audience columns are text[] and ids bind as string
// slices. An unrestricted filter renders TRUE; an empty disjunction renders
// FALSE so a context with neither identity nor world access selects zero
// rows.
func (f Filter) SQL(startArg int) (string, []any) {
	if f.unrestricted {
		return "TRUE", nil
	}
	if len(f.clauses) == 0 {
		return "FALSE", nil
	}

	b := &sqlBuilder{nextArg: startArg}
	for _, cl := range f.clauses {
		cl.render(b)
	}
	return "(" + strings.Join(b.conditions, " OR ") + ")", b.args
}

// sqlBuilder accumulates rendered clause conditions and their arguments.
type sqlBuilder struct {
	conditions []string
	args       []any
	nextArg    int
}

func (b *sqlBuilder) add(format string, args ...any) {
	placeholders := make([]any, len(args))
	for i, arg := range args {
		placeholders[i] = fmt.Sprintf("$%d", b.nextArg)
		b.nextArg++
		b.args = append(b.args, arg)
	}
	b.conditions = append(b.conditions, fmt.Sprintf(format, placeholders...))
}

// createdByClause matches records created by the principal.
type createdByClause struct {
	principalID ulid.ULID
}

func (c createdByClause) matches(rec Record) bool {
	return rec.CreatedBy == c.principalID
}

func (c createdByClause) render(b *sqlBuilder) {
	b.add("created_by = %s", c.principalID.String())
}

// globalModeClause matches records readable or writable by anyone with
// world access.
type globalModeClause struct{}

func (globalModeClause) matches(rec Record) bool {
	return rec.ReadMode == ReadGlobal || rec.WriteMode == WriteGlobal
}

func (globalModeClause) render(b *sqlBuilder) {
	b.conditions = append(b.conditions,
		fmt.Sprintf("(read_mode = '%s' OR write_mode = '%s')", ReadGlobal, WriteGlobal))
}

// readCampaignClause matches selective records whose read audience includes
// the active campaign.
type readCampaignClause struct {
	campaignID ulid.ULID
}

func (c readCampaignClause) matches(rec Record) bool {
	return rec.ReadMode == ReadSelective && containsID(rec.ReadCampaignIDs, c.campaignID)
}

func (c readCampaignClause) render(b *sqlBuilder) {
	b.add(fmt.Sprintf("(read_mode = '%s' AND %%s = ANY(read_campaign_ids))", ReadSelective), c.campaignID.String())
}

// writeCampaignClause matches records whose write audience includes the
// active campaign. Not gated on write mode: normalized records only carry
// write audiences in selective mode, and write access implies read access.
type writeCampaignClause struct {
	campaignID ulid.ULID
}

func (c writeCampaignClause) matches(rec Record) bool {
	return containsID(rec.WriteCampaignIDs, c.campaignID)
}

func (c writeCampaignClause) render(b *sqlBuilder) {
	b.add("%s = ANY(write_campaign_ids)", c.campaignID.String())
}

// readCharacterClause matches selective records whose character audience
// overlaps the principal's owned characters.
type readCharacterClause struct {
	characterIDs []ulid.ULID
}

func (c readCharacterClause) matches(rec Record) bool {
	return rec.ReadMode == ReadSelective && intersectsIDs(rec.ReadCharacterIDs, c.characterIDs)
}

func (c readCharacterClause) render(b *sqlBuilder) {
	b.add(fmt.Sprintf("(read_mode = '%s' AND read_character_ids && %%s)", ReadSelective), idStrings(c.characterIDs))
}

// readUserClause matches selective records whose user audience includes the
// principal.
type readUserClause struct {
	principalID ulid.ULID
}

func (c readUserClause) matches(rec Record) bool {
	return rec.ReadMode == ReadSelective && containsID(rec.ReadUserIDs, c.principalID)
}

func (c readUserClause) render(b *sqlBuilder) {
	b.add(fmt.Sprintf("(read_mode = '%s' AND %%s = ANY(read_user_ids))", ReadSelective), c.principalID.String())
}

// writeUserClause matches records whose write audience includes the
// principal, regardless of write mode (write implies read).
type writeUserClause struct {
	principalID ulid.ULID
}

func (c writeUserClause) matches(rec Record) bool {
	return containsID(rec.WriteUserIDs, c.principalID)
}

func (c writeUserClause) render(b *sqlBuilder) {
	b.add("%s = ANY(write_user_ids)", c.principalID.String())
}
