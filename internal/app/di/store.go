package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	analysisadapters "company_analyzer/internal/feature/analysis/adapters"
	"company_analyzer/internal/feature/analysis/usecase"
	"company_analyzer/internal/platform/cache"
)

// NewPlanRepository creates a PlanRepository implementation.
// Without a database it falls back to the in-memory store.
// If Redis is available, lookups by planId are served through a read-through cache.
func NewPlanRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) usecase.PlanRepository {
	var repo usecase.PlanRepository
	if db != nil {
		repo = analysisadapters.NewPlanRepository(db)
	} else {
		repo = analysisadapters.NewMemoryPlanRepository()
	}
	if rdb != nil {
		return cache.NewCachingPlanRepository(rdb, ttl, repo, "plans")
	}
	return repo
}
