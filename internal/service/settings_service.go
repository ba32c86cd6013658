package service

import (
	"context"
	"time"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

type preferenceStore interface {
	GetPreference(ctx context.Context, adminID string) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error
}

// SettingsService reads and updates admin notification preferences.
type SettingsService struct {
	repo preferenceStore
	now  func() time.Time
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo preferenceStore) *SettingsService {
	return &SettingsService{repo: repo, now: time.Now}
}

// GetNotificationSettings returns the effective preference for adminID.
func (s *SettingsService) GetNotificationSettings(ctx context.Context, adminID string) (*dto.NotificationSettingsResponse, error) {
	pref, err := s.effective(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(pref), nil
}

// UpdateNotificationSettings merges req into the effective preference and stores the result.
func (s *SettingsService) UpdateNotificationSettings(ctx context.Context, adminID string, req dto.NotificationSettingsRequest) (*dto.NotificationSettingsResponse, error) {
	if req.NotifyOnNewReport == nil && req.NotifyOnNewMessage == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one setting is required")
	}
	pref, err := s.effective(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if req.NotifyOnNewReport != nil {
		pref.NewReport = *req.NotifyOnNewReport
	}
	if req.NotifyOnNewMessage != nil {
		pref.NewMessage = *req.NotifyOnNewMessage
	}

	record := &models.NotificationPreference{
		AdminID:            adminID,
		NotifyOnNewReport:  pref.NewReport,
		NotifyOnNewMessage: pref.NewMessage,
		UpdatedAt:          s.now().UTC(),
	}
	if err := s.repo.UpsertPreference(ctx, record); err != nil {
		return nil, appErrors.Internal(err, "failed to save notification settings")
	}
	return toSettingsResponse(pref), nil
}

func (s *SettingsService) effective(ctx context.Context, adminID string) (Preference, error) {
	if adminID == "" {
		return Preference{}, appErrors.ErrUnauthorized
	}
	stored, err := s.repo.GetPreference(ctx, adminID)
	if err != nil {
		return Preference{}, appErrors.Internal(err, "failed to load notification settings")
	}
	return StoredPreference(stored), nil
}

func toSettingsResponse(p Preference) *dto.NotificationSettingsResponse {
	return &dto.NotificationSettingsResponse{NotifyOnNewReport: p.NewReport, NotifyOnNewMessage: p.NewMessage}
}
