// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
)

// Service applies and reverts bulk access revisions. All validation and
// authorization happens before the storage transaction opens; nothing
// partially validated ever reaches the store.
type Service struct {
	entities world.EntityRepository
	refs     world.ReferenceRepository
	store    Store
	logger   *slog.Logger
}

// NewService creates a Service over the given collaborators.
func NewService(entities world.EntityRepository, refs world.ReferenceRepository, store Store, logger *slog.Logger) *Service {
	return &Service{
		entities: entities,
		refs:     refs,
		store:    store,
		logger:   logger,
	}
}

// Apply validates, authorizes, and atomically applies a bulk revision,
// returning the recorded run. On any failure no target record is modified.
func (s *Service) Apply(ctx context.Context, payload Payload, actor Actor) (*Run, error) {
	start := time.Now()
	run, err := s.apply(ctx, payload, actor)
	recordRun("apply", err)
	if err != nil {
		return nil, err
	}
	applyDuration.Observe(time.Since(start).Seconds())
	entitiesUpdated.Add(float64(run.EntityCount))
	s.logger.InfoContext(ctx, "bulk revision applied",
		slog.String("run_id", run.ID.String()),
		slog.String("world_id", run.WorldID.String()),
		slog.String("actor_id", run.ActorID.String()),
		slog.Int("entity_count", run.EntityCount))
	return run, nil
}

func (s *Service) apply(ctx context.Context, payload Payload, actor Actor) (*Run, error) {
	normalized, err := payload.Validate()
	if err != nil {
		return nil, err
	}

	targets, err := s.loadTargets(ctx, normalized.EntityIDs)
	if err != nil {
		return nil, err
	}
	worldID, err := singleWorld(targets)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeApply(ctx, normalized, actor, worldID, targets); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, normalized, worldID); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          ulid.Make(),
		WorldID:     worldID,
		ActorID:     actor.UserID,
		Description: normalized.Description,
		EntityCount: len(targets),
		CreatedAt:   time.Now(),
	}
	if !actor.WorldOwner {
		run.CampaignID = actor.CampaignID
	}

	changes := make([]*Change, 0, len(targets))
	updates := make([]EntityUpdate, 0, len(targets))
	for _, e := range targets {
		changes = append(changes, &Change{
			ID:       ulid.Make(),
			RunID:    run.ID,
			EntityID: e.ID,
			Before:   e.Fields.Clone(),
		})
		updates = append(updates, EntityUpdate{
			EntityID: e.ID,
			Fields:   ApplyToFields(e.Fields, normalized),
		})
	}

	if err := s.store.ApplyRun(ctx, run, changes, updates); err != nil {
		return nil, oops.Wrapf(err, "apply run %s", run.ID)
	}
	return run, nil
}

// loadTargets resolves the payload's entity ids, preserving payload order.
// Any missing id fails the whole run.
func (s *Service) loadTargets(ctx context.Context, ids []ulid.ULID) ([]*world.Entity, error) {
	entities, err := s.entities.GetMany(ctx, ids)
	if err != nil {
		return nil, oops.Wrapf(err, "load target entities")
	}
	byID := make(map[ulid.ULID]*world.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	targets := make([]*world.Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, oops.
				Code("REVISION_ENTITY_NOT_FOUND").
				With("entity_id", id.String()).
				Wrap(world.ErrNotFound)
		}
		targets = append(targets, e)
	}
	return targets, nil
}

func singleWorld(targets []*world.Entity) (ulid.ULID, error) {
	worldID := targets[0].WorldID
	for _, e := range targets[1:] {
		if e.WorldID != worldID {
			return ulid.ULID{}, &ValidationError{
				Field:       "entity_ids",
				Message:     "entities span multiple worlds",
				OffendingID: &e.ID,
			}
		}
	}
	return worldID, nil
}

// authorizeApply admits the world owner unconditionally. A campaign actor
// must be a member of their campaign, the campaign must belong to the target
// world, the payload must stay inside the campaign's scope, and every target
// record must already be visible to the campaign.
func (s *Service) authorizeApply(ctx context.Context, p NormalizedPayload, actor Actor, worldID ulid.ULID, targets []*world.Entity) error {
	if actor.WorldOwner {
		return nil
	}
	if actor.CampaignID == nil {
		return oops.
			Code("REVISION_APPLY_DENIED").
			With("actor_id", actor.UserID.String()).
			Wrap(world.ErrPermissionDenied)
	}

	missing, err := s.refs.MissingCampaigns(ctx, worldID, []ulid.ULID{*actor.CampaignID})
	if err != nil {
		return oops.Wrapf(err, "check actor campaign")
	}
	if len(missing) > 0 {
		return oops.
			Code("REVISION_CAMPAIGN_WORLD_MISMATCH").
			With("campaign_id", actor.CampaignID.String()).
			With("world_id", worldID.String()).
			Wrap(world.ErrPermissionDenied)
	}

	scope, err := s.refs.Scope(ctx, *actor.CampaignID)
	if err != nil {
		return oops.Wrapf(err, "load campaign scope %s", actor.CampaignID)
	}
	if !scope.ContainsUser(actor.UserID) {
		return oops.
			Code("REVISION_ACTOR_NOT_IN_CAMPAIGN").
			With("actor_id", actor.UserID.String()).
			With("campaign_id", scope.CampaignID.String()).
			Wrap(world.ErrPermissionDenied)
	}
	if err := GuardCampaignScope(p, scope); err != nil {
		return err
	}

	records := make([]access.Record, 0, len(targets))
	for _, e := range targets {
		records = append(records, e.AccessRecord())
	}
	return EnsureRecordsVisibleToCampaign(records, scope)
}

// checkReferences verifies every id the payload grants access to actually
// exists; campaigns must additionally belong to the target world.
func (s *Service) checkReferences(ctx context.Context, p NormalizedPayload, worldID ulid.ULID) error {
	campaignIDs := access.UnionIDs(p.ReadCampaignIDs, p.WriteCampaignIDs)
	if len(campaignIDs) > 0 {
		missing, err := s.refs.MissingCampaigns(ctx, worldID, campaignIDs)
		if err != nil {
			return oops.Wrapf(err, "check campaign references")
		}
		if len(missing) > 0 {
			return &ValidationError{
				Field:       "read_campaign_ids",
				Message:     "campaign does not exist in this world",
				OffendingID: &missing[0],
			}
		}
	}

	userIDs := access.UnionIDs(p.ReadUserIDs, p.WriteUserIDs)
	if len(userIDs) > 0 {
		missing, err := s.refs.MissingUsers(ctx, userIDs)
		if err != nil {
			return oops.Wrapf(err, "check user references")
		}
		if len(missing) > 0 {
			return &ValidationError{
				Field:       "read_user_ids",
				Message:     "user does not exist",
				OffendingID: &missing[0],
			}
		}
	}

	if len(p.ReadCharacterIDs) > 0 {
		missing, err := s.refs.MissingCharacters(ctx, worldID, p.ReadCharacterIDs)
		if err != nil {
			return oops.Wrapf(err, "check character references")
		}
		if len(missing) > 0 {
			return &ValidationError{
				Field:       "read_character_ids",
				Message:     "character does not exist in this world",
				OffendingID: &missing[0],
			}
		}
	}
	return nil
}

// Revert restores every record touched by the run to its before-snapshot
// and marks the run reverted. Only the world owner may revert, and only
// once; a second attempt is a conflict.
func (s *Service) Revert(ctx context.Context, runID ulid.ULID, actor Actor) (*Run, error) {
	run, err := s.revert(ctx, runID, actor)
	recordRun("revert", err)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bulk revision reverted",
		slog.String("run_id", run.ID.String()),
		slog.String("world_id", run.WorldID.String()),
		slog.String("actor_id", actor.UserID.String()),
		slog.Int("entity_count", run.EntityCount))
	return run, nil
}

func (s *Service) revert(ctx context.Context, runID ulid.ULID, actor Actor) (*Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, oops.Wrapf(err, "get run %s", runID)
	}
	if run.Reverted {
		return nil, oops.
			Code("RUN_ALREADY_REVERTED").
			With("run_id", runID.String()).
			Wrap(ErrConflict)
	}
	if !actor.WorldOwner {
		return nil, oops.
			Code("RUN_REVERT_DENIED").
			With("run_id", runID.String()).
			With("actor_id", actor.UserID.String()).
			Wrap(world.ErrPermissionDenied)
	}

	// The store rechecks the reverted flag under a row lock; this early
	// check only gives a friendlier error outside a race.
	if err := s.store.RevertRun(ctx, runID); err != nil {
		return nil, oops.Wrapf(err, "revert run %s", runID)
	}
	run.Reverted = true
	return run, nil
}

// GetRun returns one run for auditing. Visible to the world owner, the
// actor who applied it, and members of the campaign it was applied under.
func (s *Service) GetRun(ctx context.Context, runID ulid.ULID, actor Actor) (*Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, oops.Wrapf(err, "get run %s", runID)
	}
	if !s.canViewRun(run, actor) {
		return nil, oops.
			Code("RUN_NOT_FOUND").
			With("run_id", runID.String()).
			Wrap(world.ErrNotFound)
	}
	return run, nil
}

// GetRunChanges returns the run's change log in creation order, under the
// same visibility rule as GetRun.
func (s *Service) GetRunChanges(ctx context.Context, runID ulid.ULID, actor Actor) ([]*Change, error) {
	if _, err := s.GetRun(ctx, runID, actor); err != nil {
		return nil, err
	}
	changes, err := s.store.ListChanges(ctx, runID)
	if err != nil {
		return nil, oops.Wrapf(err, "list changes for run %s", runID)
	}
	return changes, nil
}

// ListRuns returns the world's runs, newest first. World owner only.
func (s *Service) ListRuns(ctx context.Context, worldID ulid.ULID, actor Actor) ([]*Run, error) {
	if !actor.WorldOwner {
		return nil, oops.
			Code("RUN_LIST_DENIED").
			With("world_id", worldID.String()).
			With("actor_id", actor.UserID.String()).
			Wrap(world.ErrPermissionDenied)
	}
	runs, err := s.store.ListRuns(ctx, worldID)
	if err != nil {
		return nil, oops.Wrapf(err, "list runs for world %s", worldID)
	}
	return runs, nil
}

func (s *Service) canViewRun(run *Run, actor Actor) bool {
	if actor.WorldOwner || actor.UserID == run.ActorID {
		return true
	}
	return run.CampaignID != nil && actor.CampaignID != nil && *run.CampaignID == *actor.CampaignID
}
