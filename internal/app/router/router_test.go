package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisadapters "company_analyzer/internal/feature/analysis/adapters"
	"company_analyzer/internal/feature/analysis/adapters/document"
	analysishandler "company_analyzer/internal/feature/analysis/transport/handler"
	"company_analyzer/internal/feature/analysis/usecase"
	"company_analyzer/internal/platform/metrics"
	"company_analyzer/internal/shared/ratelimiter"
)

const planJSON = `{
  "executiveSummary": "Acme builds rockets.",
  "companyDescription": "Acme Corp.",
  "marketAnalysis": {"industryOverview": "Growing", "targetMarket": "SMB", "marketSize": "$1B", "competitiveAnalysis": "Few rivals"},
  "organizationStructure": "Flat",
  "productsServices": "Rockets",
  "marketingStrategy": {"positioning": "Premium", "channels": ["Web"], "tactics": ["Ads"]},
  "financialProjections": {"year1": {"revenue": "1", "expenses": "1", "profit": "0"}, "assumptions": ["Demand"]},
  "fundingRequirements": {"amount": "$1M", "use": ["R&D"], "timeline": "Q1"},
  "actionPlan": [{"milestone": "Launch", "timeline": "Q2", "priority": "high"}],
  "risks": [{"risk": "Competition", "mitigation": "Speed"}]
}`

type stubModel struct{ out string }

func (s stubModel) Complete(context.Context, string, string, usecase.CompletionOptions) (string, error) {
	return s.out, nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(limiter *ratelimiter.RateLimiter) *gin.Engine {
	uc := usecase.NewAnalysisUsecase(stubModel{out: planJSON}, analysisadapters.NewMemoryPlanRepository(), document.NewMarkdownRenderer())
	return NewRouter(Deps{
		Analysis: analysishandler.NewAnalysisHandler(uc),
		Metrics:  metrics.New(),
		Limiter:  limiter,
	})
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PlanLifecycle(t *testing.T) {
	t.Parallel()

	r := newTestRouter(nil)

	w := do(r, http.MethodPost, "/api/business-plan", `{"companyName":"Acme","industry":"Technology"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	planID, _ := created["planId"].(string)
	require.NotEmpty(t, planID)

	w = do(r, http.MethodGet, "/api/business-plan/"+planID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/business-plans", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), planID)

	w = do(r, http.MethodGet, "/api/business-plan/"+planID+"/document", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, document.ContentType, w.Header().Get("Content-Type"))

	w = do(r, http.MethodDelete, "/api/business-plan/"+planID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/business-plan/"+planID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ValidationBeforeModel(t *testing.T) {
	t.Parallel()

	r := newTestRouter(nil)
	w := do(r, http.MethodPost, "/api/analyze", `{"companyName":"Acme"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "industry")
}

func TestRouter_GenerationThrottle(t *testing.T) {
	t.Parallel()

	r := newTestRouter(ratelimiter.NewRateLimiter(1, 1))

	w := do(r, http.MethodPost, "/api/business-plan", `{"companyName":"Acme","industry":"Technology"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/business-plan", `{"companyName":"Acme","industry":"Technology"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 読み取り系は制限の対象外
	w = do(r, http.MethodGet, "/api/business-plans", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	r := newTestRouter(nil)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "company_analyzer_http_requests_total")
}
