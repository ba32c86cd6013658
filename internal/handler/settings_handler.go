package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/dto"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

type settingsService interface {
	GetNotificationSettings(ctx context.Context, adminID string) (*dto.NotificationSettingsResponse, error)
	UpdateNotificationSettings(ctx context.Context, adminID string, req dto.NotificationSettingsRequest) (*dto.NotificationSettingsResponse, error)
}

// SettingsHandler serves per-admin notification preferences.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(svc settingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// GetNotifications godoc
// @Summary Get notification settings
// @Description Effective email preferences. Both default to enabled.
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/settings/notifications [get]
func (h *SettingsHandler) GetNotifications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.GetNotificationSettings(c.Request.Context(), claims.AdminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// UpdateNotifications godoc
// @Summary Update notification settings
// @Description Omitted fields keep their current value.
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.NotificationSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/settings/notifications [put]
func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.NotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid settings payload"))
		return
	}
	res, err := h.service.UpdateNotificationSettings(c.Request.Context(), claims.AdminID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
