// Package cache stores the latest position sample of every traveller on a
// trip. Samples are ephemeral: only the most recent one per (trip, user) is
// kept and everything for a trip is dropped when the trip ends.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// DefaultTTL bounds how long an idle trip's positions linger in Redis if the
// trip never reaches a terminal status.
const DefaultTTL = 24 * time.Hour

// Connect opens a Redis client from a redis:// URL and checks it with PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.Connect: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache.Connect: ping: %w", err)
	}
	return client, nil
}

// RedisPositions keeps one hash per trip, keyed by user id, holding the JSON
// encoded sample. The hash expires ttl after its last write.
type RedisPositions struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisPositions constructs a Redis backed store. A non-positive ttl
// falls back to DefaultTTL.
func NewRedisPositions(client redis.Cmdable, ttl time.Duration) *RedisPositions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisPositions{client: client, ttl: ttl}
}

func positionsKey(tripID int64) string {
	return fmt.Sprintf("trip:%d:positions", tripID)
}

// Put stores r as the latest sample of its user.
func (s *RedisPositions) Put(ctx context.Context, r domain.PositionReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache.RedisPositions.Put: marshal: %w", err)
	}
	key := positionsKey(r.TripID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, strconv.FormatInt(r.UserID, 10), data)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache.RedisPositions.Put: %w", err)
	}
	return nil
}

// Latest returns the stored samples of a trip ordered by user id.
func (s *RedisPositions) Latest(ctx context.Context, tripID int64) ([]domain.PositionReport, error) {
	fields, err := s.client.HGetAll(ctx, positionsKey(tripID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache.RedisPositions.Latest: %w", err)
	}
	out := make([]domain.PositionReport, 0, len(fields))
	for field, raw := range fields {
		var r domain.PositionReport
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("cache.RedisPositions.Latest: field %s: %w", field, err)
		}
		out = append(out, r)
	}
	sortByUser(out)
	return out, nil
}

// Forget deletes every sample of a trip.
func (s *RedisPositions) Forget(ctx context.Context, tripID int64) error {
	if err := s.client.Del(ctx, positionsKey(tripID)).Err(); err != nil {
		return fmt.Errorf("cache.RedisPositions.Forget: %w", err)
	}
	return nil
}

// MemoryPositions is the in-process store used when no Redis is configured.
type MemoryPositions struct {
	mu    sync.RWMutex
	trips map[int64]map[int64]domain.PositionReport
}

// NewMemoryPositions returns an empty in-process store.
func NewMemoryPositions() *MemoryPositions {
	return &MemoryPositions{trips: make(map[int64]map[int64]domain.PositionReport)}
}

func (s *MemoryPositions) Put(_ context.Context, r domain.PositionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.trips[r.TripID]
	if !ok {
		users = make(map[int64]domain.PositionReport)
		s.trips[r.TripID] = users
	}
	users[r.UserID] = r
	return nil
}

func (s *MemoryPositions) Latest(_ context.Context, tripID int64) ([]domain.PositionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := s.trips[tripID]
	out := make([]domain.PositionReport, 0, len(users))
	for _, r := range users {
		out = append(out, r)
	}
	sortByUser(out)
	return out, nil
}

func (s *MemoryPositions) Forget(_ context.Context, tripID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trips, tripID)
	return nil
}

// Trips returns the number of trips with stored samples.
func (s *MemoryPositions) Trips() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trips)
}

func sortByUser(rs []domain.PositionReport) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].UserID < rs[j].UserID })
}
