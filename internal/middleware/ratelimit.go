package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/service"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

// WindowCounter counts hits per key in fixed windows.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimit throttles requests per client IP within cfg.Scope. Counter errors
// let the request through.
func RateLimit(counter WindowCounter, metrics *service.MetricsService, logger *zap.Logger, cfg RateLimitConfig) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", cfg.Scope, c.ClientIP())
		count, resetIn, err := counter.IncrementWindow(c.Request.Context(), key, cfg.Window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("scope", cfg.Scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			metrics.RateLimited(cfg.Scope)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
