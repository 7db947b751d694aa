package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T, limit int64) (*RedisRecorder, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRecorder(client, "test:export:", limit), m
}

func TestRedisRecorder_RecordAndLast(t *testing.T) {
	rec, m := newRecorder(t, 5)
	ctx := context.Background()

	started := time.Date(2024, 3, 13, 8, 30, 0, 0, time.UTC)
	run := Run{
		Kind:       "unpaids",
		File:       "mongo_exports/unpaids_20240313_083000.json",
		Counts:     []Count{{Collection: "unpaids", Documents: 3}},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
	require.NoError(t, rec.Record(ctx, run))

	got, err := rec.Last(ctx, "unpaids")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, run.File, got.File)
	require.Equal(t, 3, got.Total())
	require.True(t, started.Equal(got.StartedAt))

	require.True(t, m.Exists("test:export:last:unpaids"))
}

func TestRedisRecorder_LastMissing(t *testing.T) {
	rec, _ := newRecorder(t, 5)

	got, err := rec.Last(context.Background(), "foodmanagement")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRecorder_ListTrimsToLimit(t *testing.T) {
	rec, _ := newRecorder(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Record(ctx, Run{Kind: "foodmanagement", File: fmt.Sprintf("f%d.json", i)}))
	}

	runs, err := rec.List(ctx, "foodmanagement", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, "f4.json", runs[0].File)
	require.Equal(t, "f2.json", runs[2].File)

	runs, err = rec.List(ctx, "foodmanagement", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	none, err := rec.List(ctx, "unpaids", 0)
	require.NoError(t, err)
	require.Empty(t, none)
}
