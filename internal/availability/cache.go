package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

const (
	scheduleCacheKey  = "barbatero:availability:schedule"
	blackoutsCacheKey = "barbatero:availability:blackouts"
)

// CachedSource keeps the weekly schedule and blackouts in Redis for a short
// TTL. Both tables change rarely. Redis failures fall through to the
// wrapped source and never fail a request.
type CachedSource struct {
	next    ScheduleSource
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.AvailabilityMetrics
}

// NewCachedSource wraps next with a Redis cache. A nil client or a
// non-positive TTL returns next unchanged.
func NewCachedSource(next ScheduleSource, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.AvailabilityMetrics) ScheduleSource {
	if redisClient == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSource{
		next:    next,
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger.Component("availability.cache"),
		metrics: m,
	}
}

// LoadWeeklySchedule implements ScheduleSource.
func (c *CachedSource) LoadWeeklySchedule(ctx context.Context) (WeeklySchedule, error) {
	var cached WeeklySchedule
	if c.get(ctx, scheduleCacheKey, &cached) {
		return cached, nil
	}
	schedule, err := c.next.LoadWeeklySchedule(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, scheduleCacheKey, schedule)
	return schedule, nil
}

// LoadBlackouts implements ScheduleSource.
func (c *CachedSource) LoadBlackouts(ctx context.Context) ([]Blackout, error) {
	var cached []Blackout
	if c.get(ctx, blackoutsCacheKey, &cached) {
		return cached, nil
	}
	blackouts, err := c.next.LoadBlackouts(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, blackoutsCacheKey, blackouts)
	return blackouts, nil
}

// Invalidate drops both cached tables.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, scheduleCacheKey, blackoutsCacheKey).Err(); err != nil {
		return fmt.Errorf("availability: invalidate cache: %w", err)
	}
	return nil
}

func (c *CachedSource) get(ctx context.Context, key string, out any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.ObserveCache("miss")
		return false
	}
	if err != nil {
		c.metrics.ObserveCache("error")
		c.logger.Warn("schedule cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.metrics.ObserveCache("error")
		c.logger.Warn("schedule cache entry corrupt", "key", key, "error", err)
		return false
	}
	c.metrics.ObserveCache("hit")
	return true
}

func (c *CachedSource) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("schedule cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", "key", key, "error", err)
	}
}
