package service

import (
	"context"
	"time"

	"bookapi/internal/repository"
)

// DeleteQueue defers physical deletion of asset files. Marked files can be
// restored until a sweep claims them.
type DeleteQueue struct {
	repo  repository.DeleteQueueRepository
	clock Clock
}

func NewDeleteQueue(repo repository.DeleteQueueRepository, clock Clock) *DeleteQueue {
	return &DeleteQueue{repo: repo, clock: clock}
}

// MarkForDeletion marks filenames as deleted now, refreshing already marked ones.
func (q *DeleteQueue) MarkForDeletion(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}
	return storageErr("mark files for deletion", q.repo.Mark(ctx, filenames, q.clock.now()))
}

// Restore unmarks filenames. Files that are not marked are ignored.
func (q *DeleteQueue) Restore(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}
	return storageErr("restore files", q.repo.Restore(ctx, filenames))
}

// SweepEligible claims and removes every file marked at least maxAge ago.
// Each filename is returned to exactly one caller.
func (q *DeleteQueue) SweepEligible(ctx context.Context, maxAge time.Duration) ([]string, error) {
	files, err := q.repo.Claim(ctx, q.clock.now().Add(-maxAge))
	if err != nil {
		return nil, storageErr("claim deleted files", err)
	}
	return files, nil
}
