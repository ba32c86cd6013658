package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/validation"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

type reportStore interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, updatedAt time.Time) error
}

type noteStore interface {
	Create(ctx context.Context, note *models.ReportNote) error
	ListByReport(ctx context.Context, reportID string) ([]models.ReportNote, error)
}

type conversationStore interface {
	Append(ctx context.Context, msg *models.ConversationMessage) error
	ListByReport(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error)
}

// ConversationPublisher pushes appended messages to live subscribers.
type ConversationPublisher interface {
	Publish(ctx context.Context, reportID string, msg dto.MessageResponse) error
}

// ReportService serves report, note and conversation access for both parties.
type ReportService struct {
	reports    reportStore
	notes      noteStore
	messages   conversationStore
	publisher  ConversationPublisher
	dispatcher NotificationDispatcher
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService

	now   func() time.Time
	newID func() string
}

// NewReportService constructs a ReportService.
func NewReportService(reports reportStore, notes noteStore, messages conversationStore, publisher ConversationPublisher, dispatcher NotificationDispatcher, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ReportService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    reports,
		notes:      notes,
		messages:   messages,
		publisher:  publisher,
		dispatcher: dispatcher,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func notFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, "report not found")
}

// GetReport returns a report by id.
func (s *ReportService) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	if reportID == "" {
		return nil, notFound()
	}
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, appErrors.Internal(err, "failed to load report")
	}
	return report, nil
}

// reportForAdmin loads a report the actor's school owns. Reports of other
// schools are reported as missing so their existence is not revealed.
func (s *ReportService) reportForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.SchoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not affiliated with a school")
	}
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.SchoolID != actor.SchoolID {
		return nil, notFound()
	}
	return report, nil
}

// GetReportForAdmin returns a report with its notes and conversation.
func (s *ReportService) GetReportForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string) (*dto.AdminReportDetail, error) {
	report, err := s.reportForAdmin(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load notes")
	}
	messages, err := s.ListMessages(ctx, report.ID, nil)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.ReportNote{}
	}
	return &dto.AdminReportDetail{Report: *report, Notes: notes, Messages: dto.NewMessageResponses(messages)}, nil
}

// ReporterView returns what a code holder may see: the report and its conversation.
func (s *ReportService) ReporterView(ctx context.Context, reportID string) (*dto.ReporterView, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	messages, err := s.ListMessages(ctx, report.ID, nil)
	if err != nil {
		return nil, err
	}
	view := dto.NewReporterView(report, messages)
	return &view, nil
}

// ListReports returns a school's reports. statusFilter is a status or "all";
// sortOrder is newest_first/oldest_first (or desc/asc). Every row is checked
// against schoolID regardless of how the store scoped the query.
func (s *ReportService) ListReports(ctx context.Context, schoolID, statusFilter, sortOrder string) ([]models.Report, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not affiliated with a school")
	}
	filter := models.ReportFilter{SchoolID: schoolID}

	switch statusFilter = strings.TrimSpace(statusFilter); statusFilter {
	case "", models.StatusFilterAll:
	default:
		status := models.ReportStatus(statusFilter)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of new, under_investigation, resolved, all")
		}
		filter.Status = &status
	}

	order, ok := models.ParseSortOrder(sortOrder)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sort must be newest_first or oldest_first")
	}
	filter.Sort = order

	rows, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reports")
	}

	reports := make([]models.Report, 0, len(rows))
	for _, r := range rows {
		if r.SchoolID != schoolID {
			s.logger.Error("report store returned a report outside the requested school", zap.String("report_id", r.ID))
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		reports = append(reports, r)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if order == models.SortOldestFirst {
			return reports[i].CreatedAt.Before(reports[j].CreatedAt)
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// SetStatus moves a report to any of the three statuses, including its current one.
func (s *ReportService) SetStatus(ctx context.Context, actor *models.JWTClaims, reportID string, status models.ReportStatus) (*models.Report, error) {
	if err := s.validator.Struct(dto.UpdateStatusRequest{Status: status}); err != nil {
		return nil, appErrors.Validation(err, "invalid status: "+validation.Describe(err))
	}
	report, err := s.reportForAdmin(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.reports.UpdateStatus(ctx, report.ID, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, appErrors.Internal(err, "failed to update report status")
	}
	s.logger.Info("report status changed", zap.String("report_id", report.ID), zap.String("from", string(report.Status)), zap.String("to", string(status)), zap.String("admin_id", actor.AdminID))
	report.Status = status
	report.UpdatedAt = now
	return report, nil
}

// AppendNote adds an admin-private note.
func (s *ReportService) AppendNote(ctx context.Context, actor *models.JWTClaims, reportID, text string) (*models.ReportNote, error) {
	if err := s.validator.Struct(dto.NoteRequest{Text: text}); err != nil {
		return nil, appErrors.Validation(err, "invalid note: "+validation.Describe(err))
	}
	text = strings.TrimSpace(text)
	report, err := s.reportForAdmin(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	note := &models.ReportNote{
		ID:        s.newID(),
		ReportID:  report.ID,
		AdminID:   actor.AdminID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, appErrors.Internal(err, "failed to save note")
	}
	return note, nil
}

// AppendMessage adds a conversation message. Admin senders need an actor from
// the report's school. Reporter messages notify the school's admins; admin
// messages notify no one. Every append is published to live subscribers.
func (s *ReportService) AppendMessage(ctx context.Context, reportID, text string, sender models.MessageSender, actor *models.JWTClaims) (*models.ConversationMessage, error) {
	req := dto.PostMessageRequest{ReportID: reportID, Text: text, Sender: sender}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid message: "+validation.Describe(err))
	}
	text = strings.TrimSpace(text)

	var (
		report *models.Report
		err    error
	)
	if sender == models.SenderAdmin {
		report, err = s.reportForAdmin(ctx, actor, reportID)
	} else {
		report, err = s.GetReport(ctx, reportID)
	}
	if err != nil {
		return nil, err
	}

	msg := &models.ConversationMessage{
		ID:       s.newID(),
		ReportID: report.ID,
		Sender:   sender,
		Text:     text,
		SentAt:   s.now().UTC(),
	}
	if sender == models.SenderAdmin {
		adminID := actor.AdminID
		msg.AdminID = &adminID
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, appErrors.Internal(err, "failed to save message")
	}
	s.metrics.MessageAppended(string(sender))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, report.ID, dto.NewMessageResponse(*msg)); err != nil {
			s.logger.Warn("failed to publish conversation message", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	if sender == models.SenderReporter && s.dispatcher != nil {
		n := models.Notification{Event: models.EventNewMessage, SchoolID: report.SchoolID, ReportID: report.ID}
		if err := s.dispatcher.Dispatch(n); err != nil {
			s.logger.Error("failed to queue new message notification", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	return msg, nil
}

// ListMessages returns the thread ascending by timestamp, optionally only
// messages after since.
func (s *ReportService) ListMessages(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	messages, err := s.messages.ListByReport(ctx, reportID, since)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load conversation")
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages, nil
}

// ListMessagesForAdmin is ListMessages behind the school check.
func (s *ReportService) ListMessagesForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	report, err := s.reportForAdmin(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	return s.ListMessages(ctx, report.ID, since)
}
