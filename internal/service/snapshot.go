package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// MaxSnapshotPage bounds the number of snapshots returned by one List call.
const MaxSnapshotPage = 100

// SnapshotStore is the typed append-only history of one entity kind.
type SnapshotStore[T any] struct {
	repo       repository.SnapshotRepository
	targetType model.EntityType
	clock      Clock
}

// NewSnapshotStore creates a store for snapshots of targetType. A nil clock uses time.Now.
func NewSnapshotStore[T any](repo repository.SnapshotRepository, targetType model.EntityType, clock Clock) *SnapshotStore[T] {
	return &SnapshotStore[T]{repo: repo, targetType: targetType, clock: clock}
}

// Record appends a snapshot of targetID holding state. The snapshot time is
// never earlier than the latest snapshot already stored for the target.
func (s *SnapshotStore[T]) Record(ctx context.Context, typ model.SnapshotType, targetID string, state model.EntityState[T], actor model.Actor) (*model.Snapshot[T], error) {
	if !typ.Valid() {
		return nil, badRequest("unknown snapshot type %q", typ)
	}
	if state == nil {
		return nil, fmt.Errorf("record %s snapshot of %s: state not loaded", typ, targetID)
	}

	now := s.clock.now()
	latest, err := s.repo.Latest(ctx, s.targetType, targetID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, storageErr("load latest snapshot", err)
	case latest.Time.After(now):
		now = latest.Time
	}

	rec := &model.SnapshotRecord{
		ID:          uuid.New().String(),
		TargetType:  s.targetType,
		TargetID:    targetID,
		CommitterID: actor.UserID,
		Time:        now,
		Type:        typ,
		Reason:      actor.Reason,
	}
	if v, ok := model.StateValue[T](state); ok {
		rec.Value, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot value: %w", err)
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, storageErr("append snapshot", err)
	}
	return s.decode(rec)
}

// Get returns the snapshot with the given id if it belongs to entityID.
func (s *SnapshotStore[T]) Get(ctx context.Context, snapshotID, entityID string) (*model.Snapshot[T], error) {
	rec, err := s.repo.FindByID(ctx, s.targetType, entityID, snapshotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("snapshot", entityID, snapshotID)
	}
	if err != nil {
		return nil, storageErr("get snapshot", err)
	}
	return s.decode(rec)
}

// List returns a page of the entity's snapshots. An empty page is not an error.
func (s *SnapshotStore[T]) List(ctx context.Context, entityID string, start, count int, chronological bool) ([]model.Snapshot[T], error) {
	if start < 0 {
		return nil, badRequest("start must not be negative")
	}
	if count < 1 || count > MaxSnapshotPage {
		return nil, badRequest("count must be between 1 and %d", MaxSnapshotPage)
	}

	recs, err := s.repo.List(ctx, s.targetType, entityID, repository.PageQuery{Limit: count, Offset: start}, chronological)
	if err != nil {
		return nil, storageErr("list snapshots", err)
	}

	out := make([]model.Snapshot[T], 0, len(recs))
	for i := range recs {
		snap, err := s.decode(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (s *SnapshotStore[T]) decode(rec *model.SnapshotRecord) (*model.Snapshot[T], error) {
	snap := &model.Snapshot[T]{
		ID:          rec.ID,
		TargetType:  rec.TargetType,
		TargetID:    rec.TargetID,
		CommitterID: rec.CommitterID,
		Time:        rec.Time,
		Type:        rec.Type,
		Reason:      rec.Reason,
		State:       model.Absent[T]{},
	}
	if rec.Value != nil {
		var v T
		if err := json.Unmarshal(rec.Value, &v); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", rec.ID, err)
		}
		snap.State = model.Present[T]{Value: v}
	}
	return snap, nil
}
