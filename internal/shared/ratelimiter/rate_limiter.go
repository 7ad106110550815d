// Package ratelimiter は生成系エンドポイントへのリクエスト頻度を制限します。
package ratelimiter

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"company_analyzer/internal/api"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Allow() bool
}

// RateLimiter はトークンバケットで1分あたりのリクエスト数を制限します。
// 待機はせず、上限に達したリクエストは即座に拒否します。
type RateLimiter struct {
	limiter *rate.Limiter
	rpm     int
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// rpm が0以下の場合は nil を返し、制限を行いません。
func NewRateLimiter(rpm int, burst int) *RateLimiter {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		rpm:     rpm,
	}
}

// Allow はリクエストを1件受け付けられるかを返します。nil の場合は常に true です。
func (rl *RateLimiter) Allow() bool {
	if rl == nil {
		return true
	}
	return rl.limiter.Allow()
}

// retryAfter は次のトークンが補充されるまでの秒数です。
func (rl *RateLimiter) retryAfter() int {
	return int(math.Ceil(60.0 / float64(rl.rpm)))
}

// Middleware は上限超過時に429を返すginミドルウェアです。
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow() {
			c.Next()
			return
		}
		slog.Warn("generation rate limit hit", "path", c.FullPath(), "rpm", rl.rpm)
		c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{
			Error:   "Too many requests",
			Details: fmt.Sprintf("Generation requests are limited to %d per minute. Please try again in %d seconds.", rl.rpm, rl.retryAfter()),
		})
	}
}
