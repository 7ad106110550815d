package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: はコネクションごとに別DBになるため1本に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&PlanModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func newTestPlan(id, company string, createdAt time.Time) *entity.BusinessPlan {
	return &entity.BusinessPlan{
		PlanID:      id,
		CompanyData: entity.CompanyProfile{"companyName": company, "industry": "Technology", "stage": "Seed"},
		GeneratedAt: createdAt,
		Sections: entity.PlanSections{
			ExecutiveSummary: company + " summary",
			MarketAnalysis:   entity.MarketAnalysis{MarketSize: "$5B"},
			MarketingStrategy: entity.MarketingStrategy{
				Channels: []string{"Conferences"},
				Tactics:  []string{},
			},
			ActionPlan: []entity.Milestone{{Milestone: "Launch", Timeline: "Q1", Priority: "high"}},
			Risks:      []entity.PlanRisk{{Risk: "Competition", Mitigation: "Focus"}},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestNewPlanRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewPlanRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestPlanGorm_CreateAndFind(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPlanRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, newTestPlan("plan-1", "Acme", now))
	require.NoError(t, err)
	assert.Equal(t, "plan-1", created.PlanID)

	got, err := repo.FindByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName())
	assert.Equal(t, entity.CompanyProfile{"companyName": "Acme", "industry": "Technology", "stage": "Seed"}, got.CompanyData)
	assert.Equal(t, "Acme summary", got.Sections.ExecutiveSummary)
	assert.Equal(t, []string{"Conferences"}, got.Sections.MarketingStrategy.Channels)
	assert.Equal(t, []entity.Milestone{{Milestone: "Launch", Timeline: "Q1", Priority: "high"}}, got.Sections.ActionPlan)
	assert.True(t, now.Equal(got.GeneratedAt), "generatedAt mismatch: %v", got.GeneratedAt)
	assert.True(t, now.Equal(got.CreatedAt), "createdAt mismatch: %v", got.CreatedAt)

	var row PlanModel
	require.NoError(t, db.Where("plan_id = ?", "plan-1").First(&row).Error)
	assert.Equal(t, "Acme", row.CompanyName)
	assert.Equal(t, "Technology", row.Industry)
}

func TestPlanGorm_DuplicatePlanID(t *testing.T) {
	t.Parallel()

	repo := NewPlanRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Create(ctx, newTestPlan("dup", "Acme", now))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTestPlan("dup", "Globex", now))
	assert.Error(t, err, "unique index on plan_id should reject duplicates")
}

func TestPlanGorm_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewPlanRepository(setupTestDB(t))

	got, err := repo.FindByID(context.Background(), "missing")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, usecase.ErrPlanNotFound))
}

func TestPlanGorm_FindAll_NewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewPlanRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		_, err := repo.Create(ctx, newTestPlan(id, "Company "+id, base.Add(offsets[i])))
		require.NoError(t, err)
	}

	plans, err := repo.FindAll(ctx)

	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "newest", plans[0].PlanID)
	assert.Equal(t, "middle", plans[1].PlanID)
	assert.Equal(t, "old", plans[2].PlanID)
}

func TestPlanGorm_Delete(t *testing.T) {
	t.Parallel()

	repo := NewPlanRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newTestPlan("plan-1", "Acme", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "plan-1"))

	_, err = repo.FindByID(ctx, "plan-1")
	assert.True(t, errors.Is(err, usecase.ErrPlanNotFound))

	err = repo.Delete(ctx, "plan-1")
	assert.True(t, errors.Is(err, usecase.ErrPlanNotFound))
}
