package memory

import (
	"context"
	"slices"
	"sync"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// SnapshotMemory is an in-memory append-only repository.SnapshotRepository.
type SnapshotMemory struct {
	mu       sync.RWMutex
	byTarget map[string][]model.SnapshotRecord // "type:id" -> records in append order
}

// NewSnapshotMemory creates an empty SnapshotMemory.
func NewSnapshotMemory() *SnapshotMemory {
	return &SnapshotMemory{byTarget: make(map[string][]model.SnapshotRecord)}
}

var _ repository.SnapshotRepository = (*SnapshotMemory)(nil)

func targetKey(t model.EntityType, id string) string {
	return string(t) + ":" + id
}

func (r *SnapshotMemory) Create(ctx context.Context, rec *model.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := targetKey(rec.TargetType, rec.TargetID)
	c := *rec
	c.Value = slices.Clone(rec.Value)
	r.byTarget[k] = append(r.byTarget[k], c)
	return nil
}

func (r *SnapshotMemory) FindByID(ctx context.Context, targetType model.EntityType, targetID, id string) (*model.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.byTarget[targetKey(targetType, targetID)] {
		if rec.ID == id {
			c := rec
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SnapshotMemory) List(ctx context.Context, targetType model.EntityType, targetID string, pq repository.PageQuery, chronological bool) ([]model.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	recs := slices.Clone(r.byTarget[targetKey(targetType, targetID)])
	r.mu.RUnlock()

	// append order is time order; a stable sort keeps equal times in append order
	slices.SortStableFunc(recs, func(a, b model.SnapshotRecord) int { return a.Time.Compare(b.Time) })
	if !chronological {
		slices.Reverse(recs)
	}

	if pq.Offset >= len(recs) {
		return []model.SnapshotRecord{}, nil
	}
	end := len(recs)
	if pq.Limit > 0 && pq.Offset+pq.Limit < end {
		end = pq.Offset + pq.Limit
	}
	return recs[pq.Offset:end], nil
}

func (r *SnapshotMemory) Latest(ctx context.Context, targetType model.EntityType, targetID string) (*model.SnapshotRecord, error) {
	recs, err := r.List(ctx, targetType, targetID, repository.PageQuery{Limit: 1}, false)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &recs[0], nil
}
