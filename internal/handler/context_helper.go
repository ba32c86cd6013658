package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/middleware"
	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentAdmin(c)
	if !ok {
		return nil
	}
	return claims
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

// parseSince reads the short-poll cursor. Empty means the whole thread.
func parseSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, invalidPayload(err, "since must be an RFC3339 timestamp")
	}
	return &ts, nil
}
