package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/feature/analysis/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestMetrics_ObserveGeneration(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(usecase.KindAnalysis, usecase.OutcomeSuccess, 2*time.Second)
	m.ObserveGeneration(usecase.KindAnalysis, usecase.OutcomeFallback, time.Second)
	m.ObserveGeneration(usecase.KindAnalysis, usecase.OutcomeSuccess, time.Second)
	m.ObserveGeneration(usecase.KindPlan, usecase.OutcomeError, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues(usecase.KindAnalysis, usecase.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues(usecase.KindAnalysis, usecase.OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues(usecase.KindPlan, usecase.OutcomeError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.generationDuration))
}

func TestMetrics_Middleware(t *testing.T) {
	t.Parallel()

	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/business-plan/:planId", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/business-plan/a", "/api/business-plan/b", "/ok", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/business-plan/:planId", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/ok", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(usecase.KindPlan, usecase.OutcomeSuccess, time.Second)

	r := gin.New()
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `company_analyzer_generations_total{kind="plan",outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
