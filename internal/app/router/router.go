package router

import (
	"github.com/gin-gonic/gin"

	"company_analyzer/internal/api"
	analysishandler "company_analyzer/internal/feature/analysis/transport/handler"
	"company_analyzer/internal/platform/http/handler"
	"company_analyzer/internal/platform/metrics"
	"company_analyzer/internal/shared/ratelimiter"
)

// Deps はルーター構築に必要なハンドラーとミドルウェアです。
type Deps struct {
	Analysis *analysishandler.AnalysisHandler
	// Metrics が nil の場合、/metrics とリクエスト計測は無効です。
	Metrics *metrics.Metrics
	// Limiter が nil の場合、生成系エンドポイントの流量制限は行いません。
	Limiter *ratelimiter.RateLimiter
	// HealthChecks は /healthz で確認する依存先です。
	HealthChecks map[string]handler.Check
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}

	// 導通確認用
	health := handler.NewHealth(d.HealthChecks)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	apiGroup := r.Group("/api")
	{
		// モデル呼び出しを伴うルートのみ流量制限を適用
		throttle := ratelimiter.Middleware(d.Limiter)
		apiGroup.POST("/analyze", throttle, d.Analysis.Analyze)
		apiGroup.POST("/business-plan", throttle, d.Analysis.CreatePlan)

		apiGroup.GET("/business-plans", d.Analysis.ListPlans)
		apiGroup.GET("/business-plan/:"+api.PlanIDParam, d.Analysis.GetPlan)
		apiGroup.GET("/business-plan/:"+api.PlanIDParam+"/document", d.Analysis.GetPlanDocument)
		apiGroup.DELETE("/business-plan/:"+api.PlanIDParam, d.Analysis.DeletePlan)
	}

	return r
}
