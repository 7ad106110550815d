// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// DefaultTTL is used when no positive ttl is given.
const DefaultTTL = 24 * time.Hour

// CachingPlanRepository decorates a PlanRepository with a Redis read-through cache.
// Plans never change after creation, so entries are only invalidated on delete.
type CachingPlanRepository struct {
	inner     usecase.PlanRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.PlanRepository = (*CachingPlanRepository)(nil)

// NewCachingPlanRepository decorates a PlanRepository with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "plans".
// A nil client disables caching.
func NewCachingPlanRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PlanRepository, namespace string) *CachingPlanRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "plans"
	}
	return &CachingPlanRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create stores the plan and warms the cache with the saved copy.
func (c *CachingPlanRepository) Create(ctx context.Context, plan *entity.BusinessPlan) (*entity.BusinessPlan, error) {
	saved, err := c.inner.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		c.store(ctx, saved)
	}
	return saved, nil
}

// FindByID checks the cache first and falls back to the underlying store.
func (c *CachingPlanRepository) FindByID(ctx context.Context, planID string) (*entity.BusinessPlan, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, planID)
	}

	key := c.cacheKey(planID)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.BusinessPlan
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the store. Misses are not cached.
	out, err := c.inner.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	c.store(ctx, out)
	return out, nil
}

// FindAll is not cached.
func (c *CachingPlanRepository) FindAll(ctx context.Context) ([]entity.BusinessPlan, error) {
	return c.inner.FindAll(ctx)
}

// Delete removes the plan and its cache entry.
func (c *CachingPlanRepository) Delete(ctx context.Context, planID string) error {
	if err := c.inner.Delete(ctx, planID); err != nil {
		return err
	}
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, c.cacheKey(planID)).Err(); err != nil {
			slog.Warn("failed to invalidate plan cache", "plan_id", planID, "error", err)
		}
	}
	return nil
}

func (c *CachingPlanRepository) store(ctx context.Context, plan *entity.BusinessPlan) {
	b, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.cacheKey(plan.PlanID), b, c.ttl).Err(); err != nil {
		slog.Warn("failed to cache plan", "plan_id", plan.PlanID, "error", err)
	}
}

// cacheKey generates the cache key for a plan id.
// Redis keys are binary-safe, so the id is used as is and distinct ids never share a key.
func (c *CachingPlanRepository) cacheKey(planID string) string {
	return c.namespace + ":" + planID
}
