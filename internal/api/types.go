// Package api はHTTP APIのリクエスト・レスポンス型とパラメータのバインドを提供します。
package api

import (
	"time"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error string `json:"error"`
	// Details は利用者向けの対処方法です。
	Details string `json:"details,omitempty"`
	// Stage はエラーが発生したパイプラインの段階です（model, normalization, storage, render）。
	Stage         string   `json:"stage,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// BusinessPlanResponse は POST /api/business-plan のレスポンスです。
type BusinessPlanResponse struct {
	PlanID          string              `json:"planId"`
	CompanyName     string              `json:"companyName"`
	Industry        string              `json:"industry"`
	GeneratedAt     time.Time           `json:"generatedAt"`
	Sections        entity.PlanSections `json:"sections"`
	TableOfContents []entity.TOCEntry   `json:"tableOfContents"`
}

// StoredPlanResponse は GET /api/business-plan/{planId} のレスポンスです。
type StoredPlanResponse struct {
	PlanID          string                `json:"planId"`
	CompanyName     string                `json:"companyName"`
	Industry        string                `json:"industry"`
	CompanyData     entity.CompanyProfile `json:"companyData"`
	GeneratedAt     time.Time             `json:"generatedAt"`
	Sections        entity.PlanSections   `json:"sections"`
	TableOfContents []entity.TOCEntry     `json:"tableOfContents"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// PlanSummary は GET /api/business-plans の1件分です。
type PlanSummary struct {
	PlanID      string    `json:"planId"`
	CompanyName string    `json:"companyName"`
	Industry    string    `json:"industry"`
	GeneratedAt time.Time `json:"generatedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewBusinessPlanResponse は生成直後の計画書からレスポンスを組み立てます。
func NewBusinessPlanResponse(p *entity.BusinessPlan) BusinessPlanResponse {
	return BusinessPlanResponse{
		PlanID:          p.PlanID,
		CompanyName:     p.CompanyName(),
		Industry:        p.Industry(),
		GeneratedAt:     p.GeneratedAt,
		Sections:        p.Sections,
		TableOfContents: entity.TableOfContents(),
	}
}

// NewStoredPlanResponse は保存済みの計画書からレスポンスを組み立てます。
func NewStoredPlanResponse(p *entity.BusinessPlan) StoredPlanResponse {
	return StoredPlanResponse{
		PlanID:          p.PlanID,
		CompanyName:     p.CompanyName(),
		Industry:        p.Industry(),
		CompanyData:     p.CompanyData,
		GeneratedAt:     p.GeneratedAt,
		Sections:        p.Sections,
		TableOfContents: entity.TableOfContents(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// NewPlanSummary は一覧表示用の要約を組み立てます。
func NewPlanSummary(p *entity.BusinessPlan) PlanSummary {
	return PlanSummary{
		PlanID:      p.PlanID,
		CompanyName: p.CompanyName(),
		Industry:    p.Industry(),
		GeneratedAt: p.GeneratedAt,
		CreatedAt:   p.CreatedAt,
	}
}
