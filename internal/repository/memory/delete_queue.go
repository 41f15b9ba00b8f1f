package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// DeleteQueueMemory is an in-memory repository.DeleteQueueRepository.
type DeleteQueueMemory struct {
	mu      sync.Mutex
	entries map[string]model.DeleteEntry
}

// NewDeleteQueueMemory creates an empty DeleteQueueMemory.
func NewDeleteQueueMemory() *DeleteQueueMemory {
	return &DeleteQueueMemory{entries: make(map[string]model.DeleteEntry)}
}

var _ repository.DeleteQueueRepository = (*DeleteQueueMemory)(nil)

func (r *DeleteQueueMemory) Mark(ctx context.Context, filenames []string, softDeleteTime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range filenames {
		r.entries[f] = model.DeleteEntry{Filename: f, SoftDeleteTime: softDeleteTime}
	}
	return nil
}

func (r *DeleteQueueMemory) Restore(ctx context.Context, filenames []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range filenames {
		delete(r.entries, f)
	}
	return nil
}

func (r *DeleteQueueMemory) Claim(ctx context.Context, maxSoftDeleteTime time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := make([]string, 0)
	for f, e := range r.entries {
		if !e.SoftDeleteTime.After(maxSoftDeleteTime) {
			claimed = append(claimed, f)
			delete(r.entries, f)
		}
	}
	sort.Strings(claimed)
	return claimed, nil
}

// Pending returns the marked filenames and their soft delete times.
func (r *DeleteQueueMemory) Pending() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]time.Time, len(r.entries))
	for f, e := range r.entries {
		out[f] = e.SoftDeleteTime
	}
	return out
}
