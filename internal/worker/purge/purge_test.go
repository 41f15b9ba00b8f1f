package purge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bookapi/internal/repository/memory"
	"bookapi/internal/service"
	storeMocks "bookapi/internal/storage/mocks"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setup(t *testing.T, store Deleter) (*Worker, *service.DeleteQueue, *memory.DeleteQueueMemory, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := memory.NewDeleteQueueMemory()
	queue := service.NewDeleteQueue(repo, c.Now)

	w, err := New(queue, store, Config{
		Grace:           time.Hour,
		Workers:         3,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}, zaptest.NewLogger(t), prometheus.NewRegistry())
	require.NoError(t, err)

	return w, queue, repo, c
}

func TestWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := new(storeMocks.MockStorage)
	w, queue, repo, c := setup(t, store)

	require.NoError(t, queue.MarkForDeletion(ctx, []string{"b/1/0", "b/1/1"}))
	c.now = c.now.Add(30 * time.Minute)
	require.NoError(t, queue.MarkForDeletion(ctx, []string{"b/2/0"}))
	c.now = c.now.Add(45 * time.Minute)

	store.On("Delete", mock.Anything, "b/1/0").Return(nil).Once()
	store.On("Delete", mock.Anything, "b/1/1").Return(nil).Once()

	res, err := w.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Result{Claimed: 2, Purged: 2}, res)
	assert.Contains(t, repo.Pending(), "b/2/0")
	assert.Len(t, repo.Pending(), 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(w.files.WithLabelValues("purged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.sweeps))
	store.AssertExpectations(t)
}

func TestWorker_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	store := new(storeMocks.MockStorage)
	w, queue, repo, c := setup(t, store)

	require.NoError(t, queue.MarkForDeletion(ctx, []string{"b/1/0"}))
	c.now = c.now.Add(2 * time.Hour)

	store.On("Delete", mock.Anything, "b/1/0").Return(errors.New("503 slow down")).Once()
	store.On("Delete", mock.Anything, "b/1/0").Return(nil).Once()

	res, err := w.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Purged)
	assert.Empty(t, repo.Pending())
	store.AssertNumberOfCalls(t, "Delete", 2)
}

func TestWorker_RequeuesPersistentFailures(t *testing.T) {
	ctx := context.Background()
	store := new(storeMocks.MockStorage)
	w, queue, repo, c := setup(t, store)

	require.NoError(t, queue.MarkForDeletion(ctx, []string{"b/1/0", "b/1/1"}))
	c.now = c.now.Add(2 * time.Hour)

	store.On("Delete", mock.Anything, "b/1/0").Return(nil)
	store.On("Delete", mock.Anything, "b/1/1").Return(errors.New("access denied"))

	res, err := w.RunOnce(ctx)

	assert.ErrorContains(t, err, "delete b/1/1")
	assert.Equal(t, Result{Claimed: 2, Purged: 1, Failed: 1}, res)
	// b/1/0 once, b/1/1 on the first attempt and both retries
	store.AssertNumberOfCalls(t, "Delete", 1+3)

	pending := repo.Pending()
	require.Contains(t, pending, "b/1/1")
	assert.Equal(t, c.now, pending["b/1/1"])
	assert.Equal(t, 1.0, testutil.ToFloat64(w.files.WithLabelValues("failed")))
}

func TestWorker_NothingEligible(t *testing.T) {
	store := new(storeMocks.MockStorage)
	w, _, _, _ := setup(t, store)

	res, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWorker_StartStopsOnCancel(t *testing.T) {
	store := new(storeMocks.MockStorage)
	w, _, _, _ := setup(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(nil, nil, Config{}, nil, reg)
	require.NoError(t, err)

	_, err = New(nil, nil, Config{}, nil, reg)
	assert.Error(t, err)
}
