package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"bookapi/internal/model"
	"bookapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotCols = []string{"id", "target_type", "target_id", "committer_id", "time", "type", "reason", "value"}

func TestSnapshotPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	now := time.Now().UTC()

	t.Run("deleted snapshot stores null value and committer", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("snap-1", "book", "book-1", nil, now, "deleted", "", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), &model.SnapshotRecord{
			ID:         "snap-1",
			TargetType: model.EntityBook,
			TargetID:   "book-1",
			Time:       now,
			Type:       model.SnapshotDeleted,
		})
		assert.NoError(t, err)
	})

	t.Run("modified snapshot stores value", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("snap-2", "book", "book-1", "user-1", now, "modified", "typo", []byte(`{"id":"book-1"}`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), &model.SnapshotRecord{
			ID:          "snap-2",
			TargetType:  model.EntityBook,
			TargetID:    "book-1",
			CommitterID: "user-1",
			Time:        now,
			Type:        model.SnapshotModified,
			Reason:      "typo",
			Value:       []byte(`{"id":"book-1"}`),
		})
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	ctx := context.Background()

	t.Run("found with absent value", func(t *testing.T) {
		rows := sqlmock.NewRows(snapshotCols).
			AddRow("snap-1", "book", "book-1", nil, time.Now(), "deleted", nil, nil)
		mock.ExpectQuery("SELECT (.+) FROM snapshots WHERE target_type = (.+) AND id = ?").
			WithArgs("book", "book-1", "snap-1").
			WillReturnRows(rows)

		rec, err := repo.FindByID(ctx, model.EntityBook, "book-1", "snap-1")

		require.NoError(t, err)
		assert.Equal(t, model.SnapshotDeleted, rec.Type)
		assert.Nil(t, rec.Value)
		assert.Empty(t, rec.CommitterID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM snapshots").
			WithArgs("book", "book-1", "missing").
			WillReturnError(sql.ErrNoRows)

		rec, err := repo.FindByID(ctx, model.EntityBook, "book-1", "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, rec)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("chronological", func(t *testing.T) {
		rows := sqlmock.NewRows(snapshotCols).
			AddRow("s1", "book", "book-1", "u1", now, "created", "", []byte(`{}`)).
			AddRow("s2", "book", "book-1", "u1", now.Add(time.Second), "modified", "", []byte(`{}`))
		mock.ExpectQuery("SELECT (.+) FROM snapshots (.+) ORDER BY time ASC").
			WithArgs("book", "book-1", 10, 0).
			WillReturnRows(rows)

		recs, err := repo.List(ctx, model.EntityBook, "book-1", repository.PageQuery{Limit: 10}, true)

		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "s1", recs[0].ID)
		assert.Equal(t, "u1", recs[0].CommitterID)
	})

	t.Run("newest first", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM snapshots (.+) ORDER BY time DESC").
			WithArgs("book", "book-1", 5, 5).
			WillReturnRows(sqlmock.NewRows(snapshotCols))

		recs, err := repo.List(ctx, model.EntityBook, "book-1", repository.PageQuery{Limit: 5, Offset: 5}, false)

		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotPostgres_Latest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)

	mock.ExpectQuery("SELECT (.+) FROM snapshots (.+) LIMIT 1").
		WithArgs("book", "book-1").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Latest(context.Background(), model.EntityBook, "book-1")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
