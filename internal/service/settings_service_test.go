package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

type mockPreferenceStore struct {
	stored    map[string]models.NotificationPreference
	getErr    error
	upsertErr error
}

func (m *mockPreferenceStore) GetPreference(ctx context.Context, adminID string) (*models.NotificationPreference, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.stored[adminID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPreferenceStore) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.stored == nil {
		m.stored = map[string]models.NotificationPreference{}
	}
	m.stored[pref.AdminID] = *pref
	return nil
}

func TestGetNotificationSettingsDefaultsToEnabled(t *testing.T) {
	svc := NewSettingsService(&mockPreferenceStore{})
	res, err := svc.GetNotificationSettings(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.True(t, res.NotifyOnNewReport)
	assert.True(t, res.NotifyOnNewMessage)
}

func TestUpdateNotificationSettingsMergesPartialUpdate(t *testing.T) {
	store := &mockPreferenceStore{}
	svc := NewSettingsService(store)

	res, err := svc.UpdateNotificationSettings(context.Background(), "admin-1", dto.NotificationSettingsRequest{NotifyOnNewMessage: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, res.NotifyOnNewReport)
	assert.False(t, res.NotifyOnNewMessage)

	res, err = svc.UpdateNotificationSettings(context.Background(), "admin-1", dto.NotificationSettingsRequest{NotifyOnNewReport: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, res.NotifyOnNewReport)
	assert.False(t, res.NotifyOnNewMessage)
	assert.Equal(t, "admin-1", store.stored["admin-1"].AdminID)
}

func TestUpdateNotificationSettingsErrors(t *testing.T) {
	svc := NewSettingsService(&mockPreferenceStore{})
	_, err := svc.UpdateNotificationSettings(context.Background(), "admin-1", dto.NotificationSettingsRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.GetNotificationSettings(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc = NewSettingsService(&mockPreferenceStore{upsertErr: errors.New("db down")})
	_, err = svc.UpdateNotificationSettings(context.Background(), "admin-1", dto.NotificationSettingsRequest{NotifyOnNewReport: boolPtr(true)})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
