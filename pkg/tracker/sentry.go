// Package tracker reports server failures to Sentry when a DSN is configured.
package tracker

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/pkg/config"
)

const hubKey = "sentry_hub"

// Init configures the global Sentry client. An empty DSN leaves the SDK disabled.
func Init(cfg *config.Config) (bool, error) {
	if cfg.Sentry.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Env,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Flush drains buffered events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Middleware binds a per-request hub and converts panics into 500 responses.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("route", c.FullPath())
		c.Set(hubKey, hub)

		defer func() {
			if rec := recover(); rec != nil {
				hub.RecoverWithContext(c.Request.Context(), rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"code": "INTERNAL_ERROR", "message": "internal server error", "status": http.StatusInternalServerError},
				})
			}
		}()
		c.Next()
	}
}

// Capture reports err on the request hub, or on the global hub outside a request.
func Capture(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if c != nil {
		if v, ok := c.Get(hubKey); ok {
			if hub, ok := v.(*sentry.Hub); ok {
				hub.CaptureException(err)
				return
			}
		}
	}
	sentry.CaptureException(err)
}
