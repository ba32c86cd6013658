package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/pkg/jobs"
)

type mockDirectory struct {
	mu         sync.Mutex
	recipients map[string][]models.AdminRecipient
	failFirst  int
	calls      int
}

func (m *mockDirectory) ListRecipients(ctx context.Context, schoolID string) ([]models.AdminRecipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failFirst {
		return nil, errors.New("directory unavailable")
	}
	return m.recipients[schoolID], nil
}

func lincolnDirectory() *mockDirectory {
	return &mockDirectory{recipients: map[string][]models.AdminRecipient{
		"Lincoln-HS": {
			{AdminID: "a1", Email: "principal@lincoln.edu"},
			{AdminID: "a2", Email: "counsellor@lincoln.edu", NotifyOnNewReport: boolPtr(false), NotifyOnNewMessage: boolPtr(true)},
			{AdminID: "a3", Email: "deputy@lincoln.edu", NotifyOnNewReport: boolPtr(true), NotifyOnNewMessage: boolPtr(false)},
		},
		"Riverside-HS": {
			{AdminID: "b1", Email: "head@riverside.edu"},
		},
	}}
}

func TestNotifyNewReportRespectsPreferences(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(lincolnDirectory(), sender, zap.NewNop(), nil, "https://upstander.example")

	err := svc.Notify(context.Background(), models.Notification{Event: models.EventNewReport, SchoolID: "Lincoln-HS", ReportID: "r1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"principal@lincoln.edu", "deputy@lincoln.edu"}, sender.recipients())

	for _, m := range sender.sent {
		assert.Equal(t, "New Report Submitted", m.Subject)
		assert.Contains(t, m.Text, "https://upstander.example/admin/reports/r1")
		assert.NotContains(t, m.Text, "Riverside")
	}
}

func TestNotifyNewMessageUsesMessageFlag(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(lincolnDirectory(), sender, zap.NewNop(), nil, "https://upstander.example")

	err := svc.Notify(context.Background(), models.Notification{Event: models.EventNewMessage, SchoolID: "Lincoln-HS", ReportID: "r1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"principal@lincoln.edu", "counsellor@lincoln.edu"}, sender.recipients())
	for _, m := range sender.sent {
		assert.Equal(t, "New Anonymous Message Received", m.Subject)
	}
}

func TestNotifyIsolatesDeliveryFailures(t *testing.T) {
	sender := &fakeSender{failTo: map[string]error{"principal@lincoln.edu": errors.New("mailbox full")}}
	svc := NewNotificationService(lincolnDirectory(), sender, zap.NewNop(), nil, "")

	err := svc.Notify(context.Background(), models.Notification{Event: models.EventNewReport, SchoolID: "Lincoln-HS", ReportID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"deputy@lincoln.edu"}, sender.recipients())
}

func TestNotifyWithNoRecipients(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(&mockDirectory{}, sender, zap.NewNop(), nil, "")

	require.NoError(t, svc.Notify(context.Background(), models.Notification{Event: models.EventNewReport, SchoolID: "Empty-HS", ReportID: "r1"}))
	assert.Empty(t, sender.sent)
}

func TestNotifyReturnsDirectoryError(t *testing.T) {
	svc := NewNotificationService(&mockDirectory{failFirst: 1}, &fakeSender{}, zap.NewNop(), nil, "")
	err := svc.Notify(context.Background(), models.Notification{Event: models.EventNewReport, SchoolID: "Lincoln-HS"})
	assert.Error(t, err)
}

func TestHandleIgnoresUnknownPayload(t *testing.T) {
	svc := NewNotificationService(lincolnDirectory(), &fakeSender{}, zap.NewNop(), nil, "")
	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "nope"}))
}

func TestDispatchWithoutQueue(t *testing.T) {
	svc := NewNotificationService(lincolnDirectory(), &fakeSender{}, zap.NewNop(), nil, "")
	err := svc.Dispatch(models.Notification{Event: models.EventNewReport, SchoolID: "Lincoln-HS"})
	assert.ErrorIs(t, err, jobs.ErrQueueClosed)
}

func TestDispatchThroughQueueRetriesRecipientLookup(t *testing.T) {
	directory := lincolnDirectory()
	directory.failFirst = 1
	sender := &fakeSender{}
	svc := NewNotificationService(directory, sender, zap.NewNop(), nil, "")

	queue := jobs.NewQueue("notifications", svc.Handle, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	svc.AttachQueue(queue)
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, svc.Dispatch(models.Notification{Event: models.EventNewReport, SchoolID: "Lincoln-HS", ReportID: "r1"}))

	assert.Eventually(t, func() bool { return len(sender.recipients()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestEffectivePreferenceDefaults(t *testing.T) {
	p := EffectivePreference(nil, nil)
	assert.True(t, p.Allows(models.EventNewReport))
	assert.True(t, p.Allows(models.EventNewMessage))

	p = EffectivePreference(boolPtr(false), nil)
	assert.False(t, p.Allows(models.EventNewReport))
	assert.True(t, p.Allows(models.EventNewMessage))

	assert.Equal(t, Preference{NewReport: true, NewMessage: true}, StoredPreference(nil))
	assert.Equal(t, Preference{NewReport: false, NewMessage: false}, StoredPreference(&models.NotificationPreference{}))
	assert.False(t, p.Allows("digest"))
}
