package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	down bool
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

var errCacheDown = errors.New("connection refused")

func (c *memCache) Get(_ context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return redis.NewStringResult("", errCacheDown)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return redis.NewStatusResult("", errCacheDown)
	}
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	c.ttl[key] = expiration
	c.sets++
	return redis.NewStatusResult("OK", nil)
}

func (c *memCache) Incr(_ context.Context, key string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return redis.NewIntResult(0, errCacheDown)
	}
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

// countingTracker wraps a WaterTracker and counts summary reads.
type countingTracker struct {
	WaterTracker
	days, months int
}

func (c *countingTracker) Day(ctx context.Context, ownerID string, day time.Time) (*DaySummary, error) {
	c.days++
	return c.WaterTracker.Day(ctx, ownerID, day)
}

func (c *countingTracker) Month(ctx context.Context, ownerID string, month time.Time) (*MonthSummary, error) {
	c.months++
	return c.WaterTracker.Month(ctx, ownerID, month)
}

func newCachedFixture(t *testing.T) (*CachedWaterService, *countingTracker, *memCache, *fakeRepoManager, *models.User) {
	t.Helper()
	inner, rm, u := newWaterFixture(t)
	next := &countingTracker{WaterTracker: inner}
	mc := newMemCache()
	svc := &CachedWaterService{next: next, cache: mc, cacheTTL: time.Minute, log: nopLogger()}
	return svc, next, mc, rm, u
}

func TestCachedWater_DayHitsCache(t *testing.T) {
	svc, next, mc, _, u := newCachedFixture(t)
	ctx := context.Background()
	day := at("2024-03-05T00:00:00Z")

	_, err := svc.Add(ctx, u.ID, at("2024-03-05T10:00:00Z"), 250)
	require.NoError(t, err)

	first, err := svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	second, err := svc.Day(ctx, u.ID, day)
	require.NoError(t, err)

	assert.Equal(t, 1, next.days)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, time.Minute, mc.ttl["water:"+u.ID+":1:day:2024-03-05"])
}

func TestCachedWater_WritesInvalidate(t *testing.T) {
	svc, next, _, _, u := newCachedFixture(t)
	ctx := context.Background()
	day := at("2024-03-05T00:00:00Z")

	e, err := svc.Add(ctx, u.ID, at("2024-03-05T10:00:00Z"), 250)
	require.NoError(t, err)
	s, err := svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 250, s.Total)

	_, err = svc.Update(ctx, u.ID, e.ID, at("2024-03-05T10:00:00Z"), 400)
	require.NoError(t, err)
	s, err = svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 400, s.Total)

	m, err := svc.Month(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Len(t, m.Days, 1)

	require.NoError(t, svc.Delete(ctx, u.ID, e.ID))
	s, err = svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total)
	m, err = svc.Month(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Empty(t, m.Days)

	assert.Equal(t, 3, next.days)
	assert.Equal(t, 2, next.months)
}

func TestCachedWater_FailedWriteKeepsCache(t *testing.T) {
	svc, next, mc, _, u := newCachedFixture(t)
	ctx := context.Background()
	day := at("2024-03-05T00:00:00Z")

	_, err := svc.Day(ctx, u.ID, day)
	require.NoError(t, err)

	_, err = svc.Add(ctx, u.ID, day, 0)
	require.Error(t, err)
	_, err = svc.Day(ctx, u.ID, day)
	require.NoError(t, err)

	assert.Equal(t, 1, next.days)
	_, bumped := mc.data[generationKey(u.ID)]
	assert.False(t, bumped)
}

func TestCachedWater_ProfileInvalidation(t *testing.T) {
	svc, next, _, rm, u := newCachedFixture(t)
	ctx := context.Background()
	day := at("2024-03-05T00:00:00Z")

	_, err := svc.Add(ctx, u.ID, day, 1000)
	require.NoError(t, err)
	s, err := svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Percent)

	db, _ := newMockDB(t)
	profiles := NewProfileService(db, rm, &fakeAvatars{}, nopLogger()).WithInvalidator(svc)
	_, err = profiles.UpdateProfile(ctx, u.ID, models.Profile{DailyNorma: 1000})
	require.NoError(t, err)

	s, err = svc.Day(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 100, s.Percent)
	assert.Equal(t, 2, next.days)
}

func TestCachedWater_FallsBackWhenRedisDown(t *testing.T) {
	svc, next, mc, _, u := newCachedFixture(t)
	ctx := context.Background()
	mc.down = true

	_, err := svc.Add(ctx, u.ID, at("2024-03-05T10:00:00Z"), 250)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		s, err := svc.Day(ctx, u.ID, at("2024-03-05T00:00:00Z"))
		require.NoError(t, err)
		assert.Equal(t, 250, s.Total)
	}
	assert.Equal(t, 2, next.days)
	assert.Equal(t, 0, mc.sets)
}

func TestCachedWater_CorruptEntryReloads(t *testing.T) {
	svc, next, mc, _, u := newCachedFixture(t)
	ctx := context.Background()
	mc.data["water:"+u.ID+":0:month:2024-03"] = "{not json"

	m, err := svc.Month(ctx, u.ID, at("2024-03-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03", m.Month)
	assert.Equal(t, 1, next.months)
	assert.NotEqual(t, "{not json", mc.data["water:"+u.ID+":0:month:2024-03"])
}

func TestNewCachedWaterService(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewCachedWaterService(&countingTracker{}, rdb, time.Minute, nopLogger())
	assert.Equal(t, time.Minute, svc.cacheTTL)
}
