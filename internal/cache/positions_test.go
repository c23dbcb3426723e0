package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/cache"
	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/service"
	"github.com/desaismitha/Shered-sub002/testutil"
)

var (
	_ service.PositionStore = (*cache.MemoryPositions)(nil)
	_ service.PositionStore = (*cache.RedisPositions)(nil)
)

func sample(tripID, userID int64, lat float64, at time.Time) domain.PositionReport {
	return domain.PositionReport{TripID: tripID, UserID: userID, Lat: lat, Lng: -122.3, ReportedAt: at}
}

// exerciseStore runs the behaviour every PositionStore must share.
func exerciseStore(t *testing.T, store service.PositionStore, tripID int64) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, sample(tripID, 3, 47.1, at)))
	require.NoError(t, store.Put(ctx, sample(tripID, 2, 47.2, at)))
	require.NoError(t, store.Put(ctx, sample(tripID, 3, 47.3, at.Add(time.Minute))))
	require.NoError(t, store.Put(ctx, sample(tripID+1, 2, 40.0, at)))

	got, err := store.Latest(ctx, tripID)
	require.NoError(t, err)
	require.Len(t, got, 2, "one sample per user")
	assert.Equal(t, int64(2), got[0].UserID)
	assert.Equal(t, int64(3), got[1].UserID)
	assert.InDelta(t, 47.3, got[1].Lat, 1e-9, "the newest sample wins")
	assert.True(t, got[1].ReportedAt.Equal(at.Add(time.Minute)))

	require.NoError(t, store.Forget(ctx, tripID))
	got, err = store.Latest(ctx, tripID)
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := store.Latest(ctx, tripID+1)
	require.NoError(t, err)
	assert.Len(t, other, 1, "forgetting one trip leaves the others alone")
	require.NoError(t, store.Forget(ctx, tripID+1))
}

func TestMemoryPositions(t *testing.T) {
	store := cache.NewMemoryPositions()

	exerciseStore(t, store, 10)

	assert.Zero(t, store.Trips())
}

func TestRedisPositions(t *testing.T) {
	client := testutil.NewRedis(t)
	store := cache.NewRedisPositions(client, time.Minute)

	exerciseStore(t, store, time.Now().UnixNano())
}

func TestRedisPositions_SetsTTL(t *testing.T) {
	client := testutil.NewRedis(t)
	store := cache.NewRedisPositions(client, time.Minute)
	tripID := time.Now().UnixNano()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sample(tripID, 1, 47, time.Now())))
	t.Cleanup(func() { _ = store.Forget(ctx, tripID) })

	ttl, err := client.TTL(ctx, "trip:"+strconv.FormatInt(tripID, 10)+":positions").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
