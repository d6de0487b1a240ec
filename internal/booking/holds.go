package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// releaseScript deletes a hold only when it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotHolds reserves (date, time) pairs in Redis while an appointment is
// being written, so two concurrent requests cannot both book the same slot.
// A hold outlives the write by its TTL, covering the delay before the store
// returns the new row in queries.
type SlotHolds struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.AvailabilityMetrics
}

// NewSlotHolds returns nil without a Redis client; a nil *SlotHolds grants
// every hold.
func NewSlotHolds(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.AvailabilityMetrics) *SlotHolds {
	if redisClient == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SlotHolds{redis: redisClient, ttl: ttl, logger: logger.Component("booking.holds"), metrics: m}
}

func holdKey(date calendar.Date, slot string) string {
	return fmt.Sprintf("barbatero:hold:%s:%s", date.ISO(), slot)
}

// Acquire holds every slot for owner or none of them. It reports false when
// any slot is already held by someone else. Redis errors fail open.
func (h *SlotHolds) Acquire(ctx context.Context, date calendar.Date, slots []string, owner string) bool {
	if h == nil {
		return true
	}
	acquired := make([]string, 0, len(slots))
	for _, slot := range slots {
		ok, err := h.redis.SetNX(ctx, holdKey(date, slot), owner, h.ttl).Result()
		if err != nil {
			h.metrics.ObserveSlotHold("error")
			h.logger.Error("slot hold failed, continuing without it", "date", date.ISO(), "slot", slot, "error", err)
			return true
		}
		if !ok {
			h.metrics.ObserveSlotHold("held")
			h.Release(ctx, date, acquired, owner)
			return false
		}
		acquired = append(acquired, slot)
	}
	h.metrics.ObserveSlotHold("acquired")
	return true
}

// Release drops the holds owner still has on slots.
func (h *SlotHolds) Release(ctx context.Context, date calendar.Date, slots []string, owner string) {
	if h == nil {
		return
	}
	for _, slot := range slots {
		if err := releaseScript.Run(ctx, h.redis, []string{holdKey(date, slot)}, owner).Err(); err != nil {
			h.logger.Warn("slot hold release failed", "date", date.ISO(), "slot", slot, "error", err)
			continue
		}
		h.metrics.ObserveSlotHold("released")
	}
}

// Holder returns the owner of a hold, "" when the slot is free.
func (h *SlotHolds) Holder(ctx context.Context, date calendar.Date, slot string) (string, error) {
	if h == nil {
		return "", nil
	}
	owner, err := h.redis.Get(ctx, holdKey(date, slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("booking: read hold: %w", err)
	}
	return owner, nil
}
