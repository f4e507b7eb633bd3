package service

import (
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
)

// ScheduleCache holds a private deep copy of each child's active schedule.
// Entries expire a fixed time after being written and are invalidated
// whenever the schedule is replaced.
type ScheduleCache struct {
	cache *otter.Cache[uuid.UUID, domain.ScheduleConfig]
}

func NewScheduleCache(size int, ttl time.Duration) *ScheduleCache {
	if size <= 0 {
		size = 1000
	}
	return &ScheduleCache{
		cache: otter.Must(&otter.Options[uuid.UUID, domain.ScheduleConfig]{
			MaximumSize:      size,
			InitialCapacity:  min(size, 128),
			ExpiryCalculator: otter.ExpiryWriting[uuid.UUID, domain.ScheduleConfig](ttl),
		}),
	}
}

// Get returns a deep copy of the cached schedule.
func (c *ScheduleCache) Get(childID uuid.UUID) (*domain.ScheduleConfig, bool) {
	if c == nil {
		return nil, false
	}
	cfg, ok := c.cache.GetIfPresent(childID)
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

func (c *ScheduleCache) Set(childID uuid.UUID, cfg *domain.ScheduleConfig) {
	if c == nil || cfg == nil {
		return
	}
	c.cache.Set(childID, *cfg.Clone())
}

func (c *ScheduleCache) Invalidate(childID uuid.UUID) {
	if c == nil {
		return
	}
	c.cache.Invalidate(childID)
}
