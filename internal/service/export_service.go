package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/export"
)

var exportHeaders = []string{"Reference", "Status", "Type", "Submitted", "Incident date", "Incident time", "Location", "Year level", "Involved parties", "Narrative"}

type reportLister interface {
	ListReports(ctx context.Context, schoolID, statusFilter, sortOrder string) ([]models.Report, error)
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a school's report listing as CSV, PDF or XLSX.
type ExportService struct {
	reports reportLister
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportLister) *ExportService {
	return &ExportService{reports: reports, now: time.Now}
}

// Export renders the actor's school reports with the same filters as the listing.
func (s *ExportService) Export(ctx context.Context, actor *models.JWTClaims, statusFilter, sortOrder, format string) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv, pdf or xlsx")
	}
	renderer, err := export.For(f)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv, pdf or xlsx")
	}

	reports, err := s.reports.ListReports(ctx, actor.SchoolID, statusFilter, sortOrder)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	data := export.Dataset{
		Title:   fmt.Sprintf("Reports for %s (%s)", actor.SchoolID, now.Format("2006-01-02")),
		Headers: exportHeaders,
		Rows:    make([]map[string]string, 0, len(reports)),
	}
	for _, r := range reports {
		data.Rows = append(data.Rows, map[string]string{
			"Reference":        r.ReferenceCode,
			"Status":           string(r.Status),
			"Type":             string(r.BullyingType),
			"Submitted":        r.CreatedAt.UTC().Format(time.RFC3339),
			"Incident date":    deref(r.IncidentDate),
			"Incident time":    deref(r.IncidentTime),
			"Location":         deref(r.Location),
			"Year level":       deref(r.YearLevel),
			"Involved parties": deref(r.InvolvedParties),
			"Narrative":        r.Narrative,
		})
	}

	out, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("reports-%s-%s.%s", actor.SchoolID, now.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        out,
	}, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
