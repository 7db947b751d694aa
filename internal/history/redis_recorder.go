package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps export history in Redis.
// The latest run per kind is stored as JSON under "<prefix>last:<kind>";
// recent runs are kept newest first in the list "<prefix>runs:<kind>",
// trimmed to limit entries.
type RedisRecorder struct {
	client *redis.Client
	prefix string
	limit  int64
}

// NewRedisRecorder creates a Redis-backed recorder. Prefix may be empty.
func NewRedisRecorder(client *redis.Client, prefix string, limit int64) *RedisRecorder {
	if prefix == "" {
		prefix = "mongo-export:"
	}
	if limit <= 0 {
		limit = 20
	}
	return &RedisRecorder{client: client, prefix: prefix, limit: limit}
}

func (r *RedisRecorder) lastKey(kind string) string { return r.prefix + "last:" + kind }
func (r *RedisRecorder) runsKey(kind string) string { return r.prefix + "runs:" + kind }

func (r *RedisRecorder) Record(ctx context.Context, run Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.lastKey(run.Kind), b, 0)
	pipe.LPush(ctx, r.runsKey(run.Kind), b)
	pipe.LTrim(ctx, r.runsKey(run.Kind), 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record run %s: %w", run.Kind, err)
	}
	return nil
}

// Last returns the most recent run of kind, or nil when none was recorded.
func (r *RedisRecorder) Last(ctx context.Context, kind string) (*Run, error) {
	b, err := r.client.Get(ctx, r.lastKey(kind)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", kind, err)
	}
	return &run, nil
}

// List returns up to n recent runs of kind, newest first.
func (r *RedisRecorder) List(ctx context.Context, kind string, n int64) ([]Run, error) {
	if n <= 0 {
		n = r.limit
	}
	items, err := r.client.LRange(ctx, r.runsKey(kind), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(items))
	for _, item := range items {
		var run Run
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", kind, err)
		}
		out = append(out, run)
	}
	return out, nil
}
