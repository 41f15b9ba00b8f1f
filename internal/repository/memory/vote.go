package memory

import (
	"context"
	"sync"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

type voteKey struct {
	userID     string
	entityType model.EntityType
	entityID   string
}

// VoteMemory is an in-memory repository.VoteRepository.
type VoteMemory struct {
	mu    sync.RWMutex
	votes map[voteKey]model.Vote
}

// NewVoteMemory creates an empty VoteMemory.
func NewVoteMemory() *VoteMemory {
	return &VoteMemory{votes: make(map[voteKey]model.Vote)}
}

var _ repository.VoteRepository = (*VoteMemory)(nil)

func keyOf(v *model.Vote) voteKey {
	return voteKey{userID: v.UserID, entityType: v.EntityType, entityID: v.EntityID}
}

func (r *VoteMemory) Find(ctx context.Context, userID string, entityType model.EntityType, entityID string) (*model.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.votes[voteKey{userID: userID, entityType: entityType, entityID: entityID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *VoteMemory) Save(ctx context.Context, vote *model.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.votes[keyOf(vote)] = *vote
	return nil
}

func (r *VoteMemory) Delete(ctx context.Context, vote *model.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.votes, keyOf(vote))
	return nil
}

func (r *VoteMemory) DeleteByEntity(ctx context.Context, entityType model.EntityType, entityID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k := range r.votes {
		if k.entityType == entityType && k.entityID == entityID {
			delete(r.votes, k)
			n++
		}
	}
	return n, nil
}
