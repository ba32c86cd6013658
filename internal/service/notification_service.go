package service

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/pkg/jobs"
	"github.com/noah-isme/upstander-api/pkg/mailer"
)

type recipientDirectory interface {
	ListRecipients(ctx context.Context, schoolID string) ([]models.AdminRecipient, error)
}

// NotificationService emails school admins about new reports and messages.
type NotificationService struct {
	directory recipientDirectory
	sender    mailer.Sender
	logger    *zap.Logger
	metrics   *MetricsService
	baseURL   string
	queue     *jobs.Queue
}

// NewNotificationService constructs a NotificationService. baseURL is the
// public site root used in dashboard links.
func NewNotificationService(directory recipientDirectory, sender mailer.Sender, logger *zap.Logger, metrics *MetricsService, baseURL string) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{directory: directory, sender: sender, logger: logger, metrics: metrics, baseURL: baseURL}
}

// AttachQueue routes Dispatch through q. Handle must be q's handler.
func (s *NotificationService) AttachQueue(q *jobs.Queue) {
	s.queue = q
}

// Dispatch queues n for background delivery.
func (s *NotificationService) Dispatch(n models.Notification) error {
	if s.queue == nil {
		return jobs.ErrQueueClosed
	}
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: string(n.Event), Payload: n})
}

// Handle is the queue handler. Only recipient resolution errors are returned,
// so the queue retries the lookup but never re-sends delivered mail.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.Notify(ctx, n)
}

// Notify resolves the opted-in admins of the school and emails each of them
// concurrently. Individual delivery failures are logged and counted only.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) error {
	recipients, err := s.Recipients(ctx, n.SchoolID, n.Event)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		s.logger.Debug("no notification recipients", zap.String("event", string(n.Event)), zap.String("school_id", n.SchoolID))
		return nil
	}

	msg := s.compose(n)
	var wg sync.WaitGroup
	for _, r := range recipients {
		wg.Add(1)
		go func(r models.AdminRecipient) {
			defer wg.Done()
			m := msg
			m.To = r.Email
			err := s.sender.Send(ctx, m)
			s.metrics.NotificationSent(string(n.Event), err)
			if err != nil {
				s.logger.Warn("notification delivery failed",
					zap.String("event", string(n.Event)),
					zap.String("report_id", n.ReportID),
					zap.String("admin_id", r.AdminID),
					zap.Error(err),
				)
			}
		}(r)
	}
	wg.Wait()
	return nil
}

// Recipients returns the active admins of schoolID whose effective preference allows event.
func (s *NotificationService) Recipients(ctx context.Context, schoolID string, event models.NotificationEvent) ([]models.AdminRecipient, error) {
	all, err := s.directory.ListRecipients(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("resolve recipients for %s: %w", schoolID, err)
	}
	out := make([]models.AdminRecipient, 0, len(all))
	for _, r := range all {
		if EffectivePreference(r.NotifyOnNewReport, r.NotifyOnNewMessage).Allows(event) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *NotificationService) compose(n models.Notification) mailer.Message {
	link := fmt.Sprintf("%s/admin/reports/%s", s.baseURL, n.ReportID)
	switch n.Event {
	case models.EventNewMessage:
		return mailer.Message{
			Subject: "New Anonymous Message Received",
			HTML:    fmt.Sprintf(`<p>A new anonymous message has been received on a report for your school. <a href="%s">View the conversation</a> in your admin dashboard.</p>`, html.EscapeString(link)),
			Text:    "A new anonymous message has been received on a report for your school. View it in your admin dashboard: " + link,
		}
	default:
		return mailer.Message{
			Subject: "New Report Submitted",
			HTML:    fmt.Sprintf(`<p>A new report has been submitted for your school. <a href="%s">View the report</a> in your admin dashboard.</p>`, html.EscapeString(link)),
			Text:    "A new report has been submitted for your school. View it in your admin dashboard: " + link,
		}
	}
}
