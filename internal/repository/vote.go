package repository

import (
	"context"

	"bookapi/internal/model"
)

// VoteRepository stores at most one vote per (user, entity type, entity id).
type VoteRepository interface {
	// Find returns the user's vote on the entity, or ErrNotFound.
	Find(ctx context.Context, userID string, entityType model.EntityType, entityID string) (*model.Vote, error)

	// Save inserts or replaces the vote keyed by (user, entity type, entity id).
	Save(ctx context.Context, vote *model.Vote) error

	// Delete removes a single vote. It returns nil if the vote did not exist.
	Delete(ctx context.Context, vote *model.Vote) error

	// DeleteByEntity removes every vote on the entity and returns how many were removed.
	DeleteByEntity(ctx context.Context, entityType model.EntityType, entityID string) (int64, error)
}
