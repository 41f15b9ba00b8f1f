package repository

import (
	"context"
	"time"
)

// DeleteQueueRepository is the set of asset filenames pending physical deletion.
type DeleteQueueRepository interface {
	// Mark inserts the filenames with the given soft delete time, refreshing
	// the time of filenames that are already marked.
	Mark(ctx context.Context, filenames []string, softDeleteTime time.Time) error

	// Restore removes the filenames from the queue. Unknown filenames are ignored.
	Restore(ctx context.Context, filenames []string) error

	// Claim removes and returns every filename whose soft delete time is not
	// after maxSoftDeleteTime. A filename is returned by at most one caller.
	Claim(ctx context.Context, maxSoftDeleteTime time.Time) ([]string, error)
}
