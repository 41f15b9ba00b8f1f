package repository

import (
	"context"

	"bookapi/internal/model"
)

// SnapshotRepository is the append-only snapshot log. Records are never
// updated once created.
type SnapshotRepository interface {
	// Create appends a snapshot record.
	Create(ctx context.Context, rec *model.SnapshotRecord) error

	// FindByID returns the snapshot with the given id belonging to the target, or ErrNotFound.
	FindByID(ctx context.Context, targetType model.EntityType, targetID, id string) (*model.SnapshotRecord, error)

	// List returns a page of snapshots of the target ordered by time,
	// oldest first when chronological is set, newest first otherwise.
	List(ctx context.Context, targetType model.EntityType, targetID string, pq PageQuery, chronological bool) ([]model.SnapshotRecord, error)

	// Latest returns the most recent snapshot of the target, or ErrNotFound.
	Latest(ctx context.Context, targetType model.EntityType, targetID string) (*model.SnapshotRecord, error)
}
