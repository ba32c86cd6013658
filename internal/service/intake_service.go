package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/repository"
	"github.com/noah-isme/upstander-api/internal/validation"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

const defaultMaxCodeAttempts = 5

type intakeRepository interface {
	CreateWithLookup(ctx context.Context, report *models.Report) error
	FindIDByCode(ctx context.Context, code string) (string, error)
}

// NotificationDispatcher hands notification work to the background queue.
type NotificationDispatcher interface {
	Dispatch(n models.Notification) error
}

// IntakeConfig tunes reference code issuance.
type IntakeConfig struct {
	MaxCodeAttempts int
}

// IntakeService accepts anonymous reports and resolves reference codes.
type IntakeService struct {
	repo        intakeRepository
	dispatcher  NotificationDispatcher
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	maxAttempts int

	now   func() time.Time
	newID func() string
}

// NewIntakeService constructs an IntakeService.
func NewIntakeService(repo intakeRepository, dispatcher NotificationDispatcher, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg IntakeConfig) *IntakeService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = defaultMaxCodeAttempts
	}
	return &IntakeService{
		repo:        repo,
		dispatcher:  dispatcher,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: cfg.MaxCodeAttempts,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// SubmitReport validates and stores a report with its reference lookup, then
// queues the new-report notification. The returned code is the only copy the
// reporter gets.
func (s *IntakeService) SubmitReport(ctx context.Context, schoolID string, req dto.SubmitReportRequest) (*dto.SubmitReportResponse, error) {
	if strings.TrimSpace(schoolID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report: "+validation.Describe(err))
	}

	report := &models.Report{
		SchoolID:        schoolID,
		BullyingType:    req.BullyingType,
		Narrative:       strings.TrimSpace(req.Narrative),
		InvolvedParties: optional(req.InvolvedParties),
		YearLevel:       optional(req.YearLevel),
		IncidentDate:    optional(req.IncidentDate),
		IncidentTime:    optional(req.IncidentTime),
		Location:        optional(req.Location),
		Status:          models.ReportStatusNew,
	}

	for attempt := 1; ; attempt++ {
		now := s.now().UTC()
		report.ID = s.newID()
		report.ReferenceCode = models.ReferenceCode(report.ID, now)
		report.CreatedAt = now
		report.UpdatedAt = now

		err := s.repo.CreateWithLookup(ctx, report)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateReferenceCode) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "could not save report, please try again")
		}
		s.metrics.ReferenceCodeCollision()
		s.logger.Warn("reference code collision", zap.Int("attempt", attempt))
		if attempt >= s.maxAttempts {
			return nil, appErrors.Wrap(err, appErrors.ErrResourceExhausted.Code, appErrors.ErrResourceExhausted.Status, appErrors.ErrResourceExhausted.Message)
		}
	}

	s.metrics.ReportSubmitted(string(report.BullyingType))
	s.logger.Info("report submitted", zap.String("report_id", report.ID), zap.String("school_id", schoolID))

	if s.dispatcher != nil {
		n := models.Notification{Event: models.EventNewReport, SchoolID: schoolID, ReportID: report.ID}
		if err := s.dispatcher.Dispatch(n); err != nil {
			s.logger.Error("failed to queue new report notification", zap.String("report_id", report.ID), zap.Error(err))
		}
	}

	return &dto.SubmitReportResponse{ReferenceCode: report.ReferenceCode}, nil
}

// ResolveCode maps a reference code to its report id. Matching is exact: no
// trimming and no case folding.
func (s *IntakeService) ResolveCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		s.metrics.ReferenceCodeLookup(false)
		return "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	id, err := s.repo.FindIDByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.ReferenceCodeLookup(false)
			return "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return "", appErrors.Internal(err, "failed to look up reference code")
	}
	s.metrics.ReferenceCodeLookup(true)
	return id, nil
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
