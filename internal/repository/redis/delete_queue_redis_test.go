package redis

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (*DeleteQueueRedis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewDeleteQueueRedis(client, ""), mr
}

func TestDeleteQueueRedis_MarkRefreshesTime(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := t.Context()
	old := time.Now().Add(-time.Hour)

	require.NoError(t, q.Mark(ctx, []string{"b/1/0", "b/1/1"}, old))
	require.NoError(t, q.Mark(ctx, []string{"b/1/0"}, time.Now()))

	members, err := mr.ZMembers(DefaultDeleteQueueKey)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	claimed, err := q.Claim(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"b/1/1"}, claimed)
}

func TestDeleteQueueRedis_RestoreUnknownIsNoop(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := t.Context()

	require.NoError(t, q.Mark(ctx, []string{"b/1/0"}, time.Now()))
	require.NoError(t, q.Restore(ctx, []string{"b/1/0", "never-marked"}))
	require.NoError(t, q.Restore(ctx, nil))

	assert.False(t, mr.Exists(DefaultDeleteQueueKey))
}

func TestDeleteQueueRedis_ClaimEmpty(t *testing.T) {
	q, _ := setupQueue(t)

	claimed, err := q.Claim(t.Context(), time.Now())

	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestDeleteQueueRedis_ConcurrentClaimsAreDisjoint(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := t.Context()
	old := time.Now().Add(-time.Hour)

	var files []string
	for i := 0; i < 100; i++ {
		files = append(files, "b/1/"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	require.NoError(t, q.Mark(ctx, files, old))

	var (
		mu  sync.Mutex
		all []string
		wg  sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := q.Claim(ctx, time.Now())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			all = append(all, claimed...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Strings(all)
	sort.Strings(files)
	assert.Equal(t, files, all)
}
