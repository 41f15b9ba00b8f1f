package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// VotePostgres is a PostgreSQL implementation of repository.VoteRepository.
type VotePostgres struct {
	db *sql.DB
}

// NewVotePostgres creates a new VotePostgres repository.
func NewVotePostgres(db *sql.DB) *VotePostgres {
	return &VotePostgres{db: db}
}

var _ repository.VoteRepository = (*VotePostgres)(nil)

// Find fetches the vote of a user on an entity.
func (r *VotePostgres) Find(ctx context.Context, userID string, entityType model.EntityType, entityID string) (*model.Vote, error) {
	const q = `
		SELECT user_id, entity_type, entity_id, type, weight, time
		FROM votes
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
	`
	var (
		v          model.Vote
		entityKind string
		voteType   string
	)
	err := r.db.QueryRowContext(ctx, q, userID, string(entityType), entityID).Scan(
		&v.UserID,
		&entityKind,
		&v.EntityID,
		&voteType,
		&v.Weight,
		&v.Time,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	v.EntityType = model.EntityType(entityKind)
	v.Type = model.VoteType(voteType)
	return &v, nil
}

// Save upserts a vote on its composite key.
func (r *VotePostgres) Save(ctx context.Context, vote *model.Vote) error {
	const q = `
		INSERT INTO votes (user_id, entity_type, entity_id, type, weight, time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, entity_type, entity_id)
		DO UPDATE SET type = EXCLUDED.type, weight = EXCLUDED.weight, time = EXCLUDED.time
	`
	_, err := r.db.ExecContext(ctx, q,
		vote.UserID,
		string(vote.EntityType),
		vote.EntityID,
		string(vote.Type),
		vote.Weight,
		vote.Time,
	)
	return err
}

// Delete removes one vote. Missing rows are not an error.
func (r *VotePostgres) Delete(ctx context.Context, vote *model.Vote) error {
	const q = `DELETE FROM votes WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3`
	_, err := r.db.ExecContext(ctx, q, vote.UserID, string(vote.EntityType), vote.EntityID)
	return err
}

// DeleteByEntity removes every vote on an entity.
func (r *VotePostgres) DeleteByEntity(ctx context.Context, entityType model.EntityType, entityID string) (int64, error) {
	const q = `DELETE FROM votes WHERE entity_type = $1 AND entity_id = $2`
	res, err := r.db.ExecContext(ctx, q, string(entityType), entityID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
