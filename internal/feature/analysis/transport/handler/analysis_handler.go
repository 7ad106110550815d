// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"company_analyzer/internal/api"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// MaxProfileBytes はリクエストボディ（企業プロファイル）の最大サイズです。
const MaxProfileBytes = 1 << 20

// AnalysisUsecase は企業分析・事業計画書のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	RunAnalysis(ctx context.Context, profile entity.CompanyProfile) (*entity.AnalysisResult, error)
	RunPlan(ctx context.Context, profile entity.CompanyProfile) (*entity.BusinessPlan, error)
	GetPlan(ctx context.Context, planID string) (*entity.BusinessPlan, error)
	ListPlans(ctx context.Context) ([]entity.BusinessPlan, error)
	DeletePlan(ctx context.Context, planID string) error
	RenderPlanDocument(ctx context.Context, planID string) (*entity.Document, error)
}

// AnalysisHandler は企業分析・事業計画書のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Analyze は企業プロファイルからSWOT分析を生成します。
//
// エンドポイント: POST /api/analyze
// Content-Type: application/json
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	profile, ok := bindProfile(c)
	if !ok {
		return
	}

	result, err := h.uc.RunAnalysis(c.Request.Context(), profile)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.IsFallback {
		slog.Warn("analysis returned fallback content", "company", result.CompanyName)
	}
	c.JSON(http.StatusOK, result)
}

// CreatePlan は企業プロファイルから事業計画書を生成して保存します。
//
// エンドポイント: POST /api/business-plan
// Content-Type: application/json
func (h *AnalysisHandler) CreatePlan(c *gin.Context) {
	profile, ok := bindProfile(c)
	if !ok {
		return
	}

	plan, err := h.uc.RunPlan(c.Request.Context(), profile)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewBusinessPlanResponse(plan))
}

// GetPlan は保存済みの事業計画書を返します。
//
// エンドポイント: GET /api/business-plan/:planId
func (h *AnalysisHandler) GetPlan(c *gin.Context) {
	planID, ok := bindPlanID(c)
	if !ok {
		return
	}

	plan, err := h.uc.GetPlan(c.Request.Context(), planID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewStoredPlanResponse(plan))
}

// GetPlanDocument は事業計画書をダウンロード用ドキュメントとして返します。
//
// エンドポイント: GET /api/business-plan/:planId/document
func (h *AnalysisHandler) GetPlanDocument(c *gin.Context) {
	planID, ok := bindPlanID(c)
	if !ok {
		return
	}

	doc, err := h.uc.RenderPlanDocument(c.Request.Context(), planID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// ListPlans は保存済みの事業計画書を新しい順に返します。
//
// エンドポイント: GET /api/business-plans
func (h *AnalysisHandler) ListPlans(c *gin.Context) {
	plans, err := h.uc.ListPlans(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]api.PlanSummary, 0, len(plans))
	for i := range plans {
		out = append(out, api.NewPlanSummary(&plans[i]))
	}
	c.JSON(http.StatusOK, out)
}

// DeletePlan は事業計画書を削除します。
//
// エンドポイント: DELETE /api/business-plan/:planId
func (h *AnalysisHandler) DeletePlan(c *gin.Context) {
	planID, ok := bindPlanID(c)
	if !ok {
		return
	}

	if err := h.uc.DeletePlan(c.Request.Context(), planID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindProfile(c *gin.Context) (entity.CompanyProfile, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxProfileBytes)
	var profile entity.CompanyProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		slog.Warn("failed to bind company profile", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:   "Invalid request body",
			Details: "The request body must be a JSON object describing the company.",
		})
		return nil, false
	}
	return profile, true
}

func bindPlanID(c *gin.Context) (string, bool) {
	planID, err := api.BindPlanID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return "", false
	}
	return planID, true
}

// writeError はエラー種別に応じたステータスコードとメッセージでレスポンスを返します。
func writeError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	attrs := []any{"error", err, "status", status, "path", c.FullPath()}
	if resp.Stage != "" {
		attrs = append(attrs, "stage", resp.Stage)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}
	c.JSON(status, resp)
}

func errorResponse(err error) (int, api.ErrorResponse) {
	stage := usecase.StageOf(err)

	var ve *usecase.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, api.ErrorResponse{
			Error:         "Missing required fields: " + strings.Join(ve.MissingFields, ", "),
			MissingFields: ve.MissingFields,
		}
	case errors.Is(err, usecase.ErrPlanNotFound):
		return http.StatusNotFound, api.ErrorResponse{Error: "Business plan not found"}
	case errors.Is(err, usecase.ErrRateLimited):
		return http.StatusTooManyRequests, api.ErrorResponse{
			Error:   "AI service rate limit exceeded",
			Details: "Too many requests right now. Please try again shortly.",
			Stage:   stage,
		}
	case errors.Is(err, usecase.ErrQuotaExceeded):
		return http.StatusServiceUnavailable, api.ErrorResponse{
			Error:   "AI service quota exceeded",
			Details: "The AI provider account has a billing or quota issue. Please contact the administrator.",
			Stage:   stage,
		}
	case errors.Is(err, usecase.ErrConfiguration):
		return http.StatusInternalServerError, api.ErrorResponse{
			Error:   "AI service is not configured",
			Details: "Check that the AI provider API key is set and valid.",
			Stage:   stage,
		}
	case errors.Is(err, usecase.ErrStructuredGeneration):
		return http.StatusBadGateway, api.ErrorResponse{
			Error:   "Failed to generate structured business plan",
			Details: "The AI response could not be read. Please try again.",
			Stage:   stage,
		}
	case errors.Is(err, usecase.ErrUpstreamProtocol), errors.Is(err, usecase.ErrUpstream):
		return http.StatusBadGateway, api.ErrorResponse{
			Error:   "AI service request failed",
			Details: "Please try again.",
			Stage:   stage,
		}
	default:
		return http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error", Stage: stage}
	}
}
