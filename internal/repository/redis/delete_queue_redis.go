package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// DefaultDeleteQueueKey is the sorted set holding filenames scored by their
// soft delete time in unix milliseconds.
const DefaultDeleteQueueKey = "bookapi:delete_queue"

// claimScript pops every member scored at or below ARGV[1] in one atomic step,
// so two concurrent sweeps never receive the same filename.
const claimScript = `
local members = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, m in ipairs(members) do
  redis.call('ZREM', KEYS[1], m)
end
return members
`

// DeleteQueueRedis implements repository.DeleteQueueRepository on a Redis sorted set.
type DeleteQueueRedis struct {
	client rueidis.Client
	key    string
}

// NewDeleteQueueRedis creates a queue stored under key. An empty key uses DefaultDeleteQueueKey.
func NewDeleteQueueRedis(client rueidis.Client, key string) *DeleteQueueRedis {
	if key == "" {
		key = DefaultDeleteQueueKey
	}
	return &DeleteQueueRedis{client: client, key: key}
}

func (r *DeleteQueueRedis) Mark(ctx context.Context, filenames []string, softDeleteTime time.Time) error {
	if len(filenames) == 0 {
		return nil
	}

	score := float64(softDeleteTime.UnixMilli())
	cmd := r.client.B().Zadd().Key(r.key).ScoreMember()
	for _, f := range filenames {
		cmd = cmd.ScoreMember(score, f)
	}

	if err := r.client.Do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("zadd %s: %w", r.key, err)
	}
	return nil
}

func (r *DeleteQueueRedis) Restore(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	err := r.client.Do(ctx, r.client.B().Zrem().Key(r.key).Member(filenames...).Build()).Error()
	if err != nil {
		return fmt.Errorf("zrem %s: %w", r.key, err)
	}
	return nil
}

func (r *DeleteQueueRedis) Claim(ctx context.Context, maxSoftDeleteTime time.Time) ([]string, error) {
	resp := r.client.Do(ctx, r.client.B().Eval().
		Script(claimScript).
		Numkeys(1).
		Key(r.key).
		Arg(strconv.FormatInt(maxSoftDeleteTime.UnixMilli(), 10)).
		Build())

	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim %s: %w", r.key, err)
	}

	filenames, err := resp.AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to parse claim response: %w", err)
	}
	return filenames, nil
}
