package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteQueuePostgres_Mark(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeleteQueuePostgres(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO delete_queue (filename, soft_delete_time) VALUES ($2, $1), ($3, $1)` +
		` ON CONFLICT (filename) DO UPDATE SET soft_delete_time = EXCLUDED.soft_delete_time`).
		WithArgs(now, "b/1/0", "b/1/1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	assert.NoError(t, repo.Mark(context.Background(), []string{"b/1/0", "b/1/1"}, now))

	// empty input does not touch the database
	assert.NoError(t, repo.Mark(context.Background(), nil, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQueuePostgres_Restore(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeleteQueuePostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM delete_queue WHERE filename IN ($1, $2)`).
		WithArgs("b/1/0", "b/1/1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, repo.Restore(context.Background(), []string{"b/1/0", "b/1/1"}))
	assert.NoError(t, repo.Restore(context.Background(), []string{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQueuePostgres_MarkBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDeleteQueuePostgres(db)
	now := time.Now()

	files := make([]string, 2*maxBatch+500)
	for i := range files {
		files[i] = fmt.Sprintf("b/1/%d", i)
	}

	mock.ExpectBegin()
	rest := files
	for _, n := range []int{maxBatch, maxBatch, 500} {
		mock.ExpectExec("INSERT INTO delete_queue").
			WithArgs(markArgs(now, rest[:n])...).
			WillReturnResult(sqlmock.NewResult(0, int64(n)))
		rest = rest[n:]
	}
	mock.ExpectCommit()

	assert.NoError(t, repo.Mark(context.Background(), files, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQueuePostgres_RestoreRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDeleteQueuePostgres(db)

	files := make([]string, maxBatch+1)
	for i := range files {
		files[i] = fmt.Sprintf("b/1/%d", i)
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM delete_queue").WillReturnResult(sqlmock.NewResult(0, maxBatch))
	mock.ExpectExec("DELETE FROM delete_queue").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assert.Error(t, repo.Restore(context.Background(), files))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func markArgs(now time.Time, files []string) []driver.Value {
	args := make([]driver.Value, 0, len(files)+1)
	args = append(args, now)
	for _, f := range files {
		args = append(args, f)
	}
	return args
}

func TestDeleteQueuePostgres_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeleteQueuePostgres(db)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectQuery("DELETE FROM delete_queue WHERE soft_delete_time (.+) RETURNING filename").
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("b/1/0").AddRow("b/1/1"))

	claimed, err := repo.Claim(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, []string{"b/1/0", "b/1/1"}, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholders(1, 1))
	assert.Equal(t, "$3, $4, $5", placeholders(3, 3))
}
