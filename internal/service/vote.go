package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// VoteLedger keeps one weighted vote per user per entity and applies the
// weight to the entity score.
type VoteLedger struct {
	repo   repository.VoteRepository
	logger *zap.Logger
	clock  Clock
}

func NewVoteLedger(repo repository.VoteRepository, logger *zap.Logger, clock Clock) *VoteLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteLedger{repo: repo, logger: logger.Named("votes"), clock: clock}
}

// VoteWeight is the signed contribution of a single vote.
func VoteWeight(voter model.Actor, voteType model.VoteType) float64 {
	weight := 0.5 + min(max(voter.Reputation/10, 1), 3)/2
	if voter.IsRestricted {
		weight *= 0.2
	}
	if voteType == model.VoteDown {
		weight = -weight
	}
	return weight
}

// Set casts, changes or retracts (nil voteType) the voter's vote on target.
// The target score is adjusted in memory; persisting it is up to the caller.
// It returns nil when there was nothing to retract, and the removed vote on retraction.
func (l *VoteLedger) Set(ctx context.Context, target model.VoteTarget, voter model.Actor, voteType *model.VoteType) (*model.Vote, error) {
	if voteType != nil && !voteType.Valid() {
		return nil, badRequest("unknown vote type %q", *voteType)
	}

	vote, err := l.repo.Find(ctx, voter.UserID, target.TargetType(), target.TargetID())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		vote = nil
	case err != nil:
		return nil, storageErr("find vote", err)
	}

	if vote == nil && voteType == nil {
		return nil, nil
	}

	if vote != nil {
		target.AddScore(-vote.Weight)
	}

	if voteType == nil {
		if err := l.repo.Delete(ctx, vote); err != nil {
			return nil, storageErr("delete vote", err)
		}
		l.logger.Debug("vote retracted",
			zap.String("user_id", voter.UserID),
			zap.Stringer("vote", vote))
		return vote, nil
	}

	if vote == nil {
		vote = &model.Vote{
			UserID:     voter.UserID,
			EntityType: target.TargetType(),
			EntityID:   target.TargetID(),
		}
	}
	vote.Type = *voteType
	vote.Weight = VoteWeight(voter, *voteType)
	vote.Time = l.clock.now()

	target.AddScore(vote.Weight)

	if err := l.repo.Save(ctx, vote); err != nil {
		return nil, storageErr("save vote", err)
	}

	l.logger.Debug("vote set",
		zap.String("user_id", voter.UserID),
		zap.Stringer("vote", vote))
	return vote, nil
}

// DeleteForEntity removes every vote on the entity without touching any score.
func (l *VoteLedger) DeleteForEntity(ctx context.Context, entityType model.EntityType, entityID string) (int64, error) {
	n, err := l.repo.DeleteByEntity(ctx, entityType, entityID)
	if err != nil {
		return 0, storageErr("delete votes", err)
	}
	return n, nil
}
