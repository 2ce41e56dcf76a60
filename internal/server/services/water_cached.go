package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// summaryCache is the part of redis.Cmdable the cache uses.
type summaryCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// CachedWaterService serves day and month summaries from Redis. Keys embed a
// per-owner generation number; every write bumps it, so stale summaries are
// never read again and simply expire. Redis failures fall back to next.
type CachedWaterService struct {
	next     WaterTracker
	cache    summaryCache
	cacheTTL time.Duration
	log      logging.Logger
}

func NewCachedWaterService(next WaterTracker, rdb redis.Cmdable, ttl time.Duration, log logging.Logger) *CachedWaterService {
	return &CachedWaterService{next: next, cache: rdb, cacheTTL: ttl, log: log.With("module", "water_cache")}
}

func generationKey(ownerID string) string {
	return "water:" + ownerID + ":gen"
}

func (s *CachedWaterService) generation(ctx context.Context, ownerID string) (int64, error) {
	val, err := s.cache.Get(ctx, generationKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Invalidate drops every cached summary of ownerID.
func (s *CachedWaterService) Invalidate(ctx context.Context, ownerID string) error {
	return s.cache.Incr(ctx, generationKey(ownerID)).Err()
}

func (s *CachedWaterService) invalidate(ctx context.Context, ownerID string) {
	if err := s.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn(ctx, "cache invalidation failed", "owner", ownerID, "error", err)
	}
}

func (s *CachedWaterService) Add(ctx context.Context, ownerID string, date time.Time, amount int) (*models.WaterEntry, error) {
	e, err := s.next.Add(ctx, ownerID, date, amount)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return e, nil
}

func (s *CachedWaterService) Update(ctx context.Context, ownerID string, id string, date time.Time, amount int) (*models.WaterEntry, error) {
	e, err := s.next.Update(ctx, ownerID, id, date, amount)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return e, nil
}

func (s *CachedWaterService) Delete(ctx context.Context, ownerID string, id string) error {
	if err := s.next.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// cached looks key up under the owner's current generation and falls back to
// load on a miss or any cache error.
func cached[T any](ctx context.Context, s *CachedWaterService, ownerID, suffix string, load func() (*T, error)) (*T, error) {
	gen, err := s.generation(ctx, ownerID)
	if err != nil {
		s.log.Warn(ctx, "cache unavailable", "error", err)
		return load()
	}
	key := fmt.Sprintf("water:%s:%d:%s", ownerID, gen, suffix)

	if val, err := s.cache.Get(ctx, key).Result(); err == nil {
		var v T
		if err := json.Unmarshal([]byte(val), &v); err == nil {
			s.log.Debug(ctx, "cache hit", "key", key)
			return &v, nil
		}
	}
	s.log.Debug(ctx, "cache miss", "key", key)

	v, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			s.log.Warn(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (s *CachedWaterService) Day(ctx context.Context, ownerID string, day time.Time) (*DaySummary, error) {
	return cached(ctx, s, ownerID, "day:"+day.UTC().Format(DayLayout), func() (*DaySummary, error) {
		return s.next.Day(ctx, ownerID, day)
	})
}

func (s *CachedWaterService) Month(ctx context.Context, ownerID string, month time.Time) (*MonthSummary, error) {
	return cached(ctx, s, ownerID, "month:"+month.UTC().Format(MonthLayout), func() (*MonthSummary, error) {
		return s.next.Month(ctx, ownerID, month)
	})
}
