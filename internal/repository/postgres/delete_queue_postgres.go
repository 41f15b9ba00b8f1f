package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"bookapi/internal/repository"
)

// DeleteQueuePostgres is a PostgreSQL implementation of repository.DeleteQueueRepository.
type DeleteQueuePostgres struct {
	db *sql.DB
}

// NewDeleteQueuePostgres creates a new DeleteQueuePostgres repository.
func NewDeleteQueuePostgres(db *sql.DB) *DeleteQueuePostgres {
	return &DeleteQueuePostgres{db: db}
}

var _ repository.DeleteQueueRepository = (*DeleteQueuePostgres)(nil)

// maxBatch bounds the filenames bound by one statement, keeping every
// statement well under PostgreSQL's 65535 parameter limit.
const maxBatch = 1000

// Mark upserts the filenames, refreshing the soft delete time of existing rows.
func (r *DeleteQueuePostgres) Mark(ctx context.Context, filenames []string, softDeleteTime time.Time) error {
	return r.inBatches(ctx, filenames, func(tx *sql.Tx, batch []string) error {
		// $1 is the shared time, filenames start at $2
		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)+1)
		args = append(args, softDeleteTime)
		for i, f := range batch {
			values[i] = fmt.Sprintf("($%d, $1)", i+2)
			args = append(args, f)
		}

		q := `INSERT INTO delete_queue (filename, soft_delete_time) VALUES ` + strings.Join(values, ", ") +
			` ON CONFLICT (filename) DO UPDATE SET soft_delete_time = EXCLUDED.soft_delete_time`
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	})
}

// Restore deletes the rows of the given filenames.
func (r *DeleteQueuePostgres) Restore(ctx context.Context, filenames []string) error {
	return r.inBatches(ctx, filenames, func(tx *sql.Tx, batch []string) error {
		q := `DELETE FROM delete_queue WHERE filename IN (` + placeholders(len(batch), 1) + `)`
		args := make([]any, len(batch))
		for i, f := range batch {
			args[i] = f
		}
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	})
}

// inBatches runs fn over chunks of at most maxBatch filenames in a single
// transaction.
func (r *DeleteQueuePostgres) inBatches(ctx context.Context, filenames []string, fn func(tx *sql.Tx, batch []string) error) error {
	if len(filenames) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for batch := range slices.Chunk(filenames, maxBatch) {
		if err := fn(tx, batch); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Claim deletes and returns eligible rows in one statement. Concurrent
// claims block on the same row locks, so each row is returned once.
func (r *DeleteQueuePostgres) Claim(ctx context.Context, maxSoftDeleteTime time.Time) ([]string, error) {
	const q = `DELETE FROM delete_queue WHERE soft_delete_time <= $1 RETURNING filename`

	rows, err := r.db.QueryContext(ctx, q, maxSoftDeleteTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make([]string, 0)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		claimed = append(claimed, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claimed, nil
}

// placeholders returns "$start, $start+1, ..." for n parameters.
func placeholders(n, start int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}
