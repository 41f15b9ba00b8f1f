package memory

import (
	"context"
	"testing"
	"time"

	"bookapi/internal/model"
	"bookapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookMemory_StoresCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewBookMemory()

	book := &model.Book{ID: "b1", Name: []string{"first"}, Contents: []model.BookContent{{ID: 1, PageCount: 2}}}
	require.NoError(t, repo.Save(ctx, book))

	book.Name[0] = "mutated"
	book.Contents[0].PageCount = 99

	got, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name[0])
	assert.Equal(t, 2, got.Contents[0].PageCount)

	require.NoError(t, repo.Delete(ctx, "b1"))
	_, err = repo.FindByID(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// deleting a missing book is not an error
	assert.NoError(t, repo.Delete(ctx, "b1"))
}

func TestBookMemory_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBookMemory().FindByID(ctx, "b1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotMemory_ListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, repo.Create(ctx, &model.SnapshotRecord{
			ID:         id,
			TargetType: model.EntityBook,
			TargetID:   "b1",
			Time:       base.Add(time.Duration(i) * time.Minute),
			Type:       model.SnapshotModified,
		}))
	}
	require.NoError(t, repo.Create(ctx, &model.SnapshotRecord{ID: "other", TargetType: model.EntityBook, TargetID: "b2", Time: base}))

	recs, err := repo.List(ctx, model.EntityBook, "b1", repository.PageQuery{Limit: 10}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(recs))

	recs, err = repo.List(ctx, model.EntityBook, "b1", repository.PageQuery{Limit: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s2"}, ids(recs))

	recs, err = repo.List(ctx, model.EntityBook, "b1", repository.PageQuery{Limit: 2, Offset: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(recs))

	recs, err = repo.List(ctx, model.EntityBook, "b1", repository.PageQuery{Limit: 2, Offset: 5}, false)
	require.NoError(t, err)
	assert.Empty(t, recs)

	latest, err := repo.Latest(ctx, model.EntityBook, "b1")
	require.NoError(t, err)
	assert.Equal(t, "s3", latest.ID)

	_, err = repo.FindByID(ctx, model.EntityBook, "b2", "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Latest(ctx, model.EntityBook, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVoteMemory_DeleteByEntity(t *testing.T) {
	ctx := context.Background()
	repo := NewVoteMemory()

	require.NoError(t, repo.Save(ctx, &model.Vote{UserID: "u1", EntityType: model.EntityBook, EntityID: "b1", Weight: 1}))
	require.NoError(t, repo.Save(ctx, &model.Vote{UserID: "u2", EntityType: model.EntityBook, EntityID: "b1", Weight: -1}))
	require.NoError(t, repo.Save(ctx, &model.Vote{UserID: "u1", EntityType: model.EntityImage, EntityID: "b1", Weight: 1}))

	n, err := repo.DeleteByEntity(ctx, model.EntityBook, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Find(ctx, "u1", model.EntityBook, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	v, err := repo.Find(ctx, "u1", model.EntityImage, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Weight)
}

func TestDeleteQueueMemory_Claim(t *testing.T) {
	ctx := context.Background()
	repo := NewDeleteQueueMemory()
	now := time.Now()

	require.NoError(t, repo.Mark(ctx, []string{"a", "b"}, now.Add(-time.Hour)))
	require.NoError(t, repo.Mark(ctx, []string{"c"}, now))

	claimed, err := repo.Claim(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, claimed)

	claimed, err = repo.Claim(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, claimed)

	assert.Contains(t, repo.Pending(), "c")
}

func ids(recs []model.SnapshotRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
