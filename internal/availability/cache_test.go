package availability

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

func newCachedSource(t *testing.T, ttl time.Duration) (*CachedSource, *miniredis.Miniredis, *prometheus.Registry, *Reader) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.NewAvailabilityMetrics(reg)
	reader := NewReader(seededStore(), testTables, logging.New("error"), m)

	src := NewCachedSource(reader, client, ttl, logging.New("error"), m)
	cached, ok := src.(*CachedSource)
	require.True(t, ok)
	return cached, mr, reg, reader
}

func cacheResults(t *testing.T, reg *prometheus.Registry, result string) float64 {
	return counterValue(t, reg, "barbatero_availability_schedule_cache_total", map[string]string{"result": result})
}

func TestCachedSourceMissThenHit(t *testing.T) {
	cache, mr, reg, _ := newCachedSource(t, time.Minute)
	ctx := context.Background()

	first, err := cache.LoadWeeklySchedule(ctx)
	require.NoError(t, err)
	second, err := cache.LoadWeeklySchedule(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, second.Slots(2))
	assert.True(t, mr.Exists(scheduleCacheKey))
	assert.Equal(t, 1.0, cacheResults(t, reg, "miss"))
	assert.Equal(t, 1.0, cacheResults(t, reg, "hit"))
}

func TestCachedSourceBlackoutsRoundTrip(t *testing.T) {
	cache, _, _, _ := newCachedSource(t, time.Minute)
	ctx := context.Background()

	fresh, err := cache.LoadBlackouts(ctx)
	require.NoError(t, err)
	cached, err := cache.LoadBlackouts(ctx)
	require.NoError(t, err)

	require.Len(t, cached, len(fresh))
	for i := range fresh {
		assert.Equal(t, fresh[i].Kind, cached[i].Kind)
		assert.True(t, fresh[i].Day.Equal(cached[i].Day))
		assert.True(t, fresh[i].From.Equal(cached[i].From))
		assert.True(t, fresh[i].To.Equal(cached[i].To))
		assert.Equal(t, fresh[i].Blocks(monday), cached[i].Blocks(monday))
	}
}

func TestCachedSourceExpires(t *testing.T) {
	cache, mr, reg, _ := newCachedSource(t, time.Minute)
	ctx := context.Background()

	_, err := cache.LoadWeeklySchedule(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.LoadWeeklySchedule(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cacheResults(t, reg, "miss"))
}

func TestCachedSourceRedisDownFallsThrough(t *testing.T) {
	cache, mr, reg, _ := newCachedSource(t, time.Minute)
	mr.Close()

	schedule, err := cache.LoadWeeklySchedule(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.Slots(2))
	assert.Equal(t, 1.0, cacheResults(t, reg, "error"))
}

func TestCachedSourceInvalidate(t *testing.T) {
	cache, mr, _, _ := newCachedSource(t, time.Minute)
	ctx := context.Background()

	_, err := cache.LoadWeeklySchedule(ctx)
	require.NoError(t, err)
	_, err = cache.LoadBlackouts(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(scheduleCacheKey))
	assert.False(t, mr.Exists(blackoutsCacheKey))
}

func TestNewCachedSourceWithoutRedis(t *testing.T) {
	reader := NewReader(seededStore(), testTables, nil, nil)
	assert.Same(t, reader, NewCachedSource(reader, nil, time.Minute, nil, nil))
}
