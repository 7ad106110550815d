package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

type planGorm struct {
	db *gorm.DB
}

var _ usecase.PlanRepository = (*planGorm)(nil)

// NewPlanRepository はGORMを使った事業計画書リポジトリを生成します。SQLiteとPostgreSQLで動作します。
func NewPlanRepository(db *gorm.DB) *planGorm {
	return &planGorm{db: db}
}

// PlanModel は business_plans テーブルの1行です。
// セクションはJSONとして1カラムに保存し、plan_id にはユニークインデックスを張ります。
type PlanModel struct {
	ID          uint                `gorm:"primaryKey"`
	PlanID      string              `gorm:"size:36;not null;uniqueIndex"`
	CompanyName string              `gorm:"size:255;not null;index"`
	Industry    string              `gorm:"size:255;not null"`
	CompanyData string              `gorm:"type:text;not null"`
	Sections    entity.PlanSections `gorm:"serializer:json;type:text;not null"`
	GeneratedAt time.Time           `gorm:"not null"`
	CreatedAt   time.Time           `gorm:"index"`
	UpdatedAt   time.Time
}

func (PlanModel) TableName() string {
	return "business_plans"
}

func planModelFromEntity(p *entity.BusinessPlan) (*PlanModel, error) {
	data, err := json.Marshal(p.CompanyData)
	if err != nil {
		return nil, fmt.Errorf("encode company data: %w", err)
	}
	return &PlanModel{
		PlanID:      p.PlanID,
		CompanyName: p.CompanyName(),
		Industry:    p.Industry(),
		CompanyData: string(data),
		Sections:    p.Sections,
		GeneratedAt: p.GeneratedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

// ToEntity はDBモデルをドメインエンティティに変換します。
func (m *PlanModel) ToEntity() (*entity.BusinessPlan, error) {
	var profile entity.CompanyProfile
	if err := json.Unmarshal([]byte(m.CompanyData), &profile); err != nil {
		return nil, fmt.Errorf("decode company data of plan %s: %w", m.PlanID, err)
	}
	if profile == nil {
		profile = entity.CompanyProfile{}
	}
	return &entity.BusinessPlan{
		PlanID:      m.PlanID,
		CompanyData: profile,
		GeneratedAt: m.GeneratedAt.UTC(),
		Sections:    m.Sections,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

func (r *planGorm) Create(ctx context.Context, plan *entity.BusinessPlan) (*entity.BusinessPlan, error) {
	m, err := planModelFromEntity(plan)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("insert business plan %s: %w", plan.PlanID, err)
	}
	return m.ToEntity()
}

func (r *planGorm) FindByID(ctx context.Context, planID string) (*entity.BusinessPlan, error) {
	var m PlanModel
	err := r.db.WithContext(ctx).Where("plan_id = ?", planID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find business plan %s: %w", planID, err)
	}
	return m.ToEntity()
}

func (r *planGorm) FindAll(ctx context.Context) ([]entity.BusinessPlan, error) {
	var rows []PlanModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list business plans: %w", err)
	}
	out := make([]entity.BusinessPlan, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *planGorm) Delete(ctx context.Context, planID string) error {
	res := r.db.WithContext(ctx).Where("plan_id = ?", planID).Delete(&PlanModel{})
	if res.Error != nil {
		return fmt.Errorf("delete business plan %s: %w", planID, res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrPlanNotFound
	}
	return nil
}
