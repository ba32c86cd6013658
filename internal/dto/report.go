package dto

import (
	"time"

	"github.com/noah-isme/upstander-api/internal/models"
)

// SubmitReportRequest captures POST /schools/:schoolId/reports payload.
type SubmitReportRequest struct {
	BullyingType    models.BullyingType `json:"bullyingType" validate:"required,bullying_type"`
	Narrative       string              `json:"narrative" validate:"notblank,max=10000"`
	InvolvedParties *string             `json:"involvedParties,omitempty" validate:"omitempty,max=2000"`
	YearLevel       *string             `json:"yearLevel,omitempty" validate:"omitempty,max=50"`
	IncidentDate    *string             `json:"incidentDate,omitempty" validate:"omitempty,max=100"`
	IncidentTime    *string             `json:"incidentTime,omitempty" validate:"omitempty,max=100"`
	Location        *string             `json:"location,omitempty" validate:"omitempty,max=500"`
}

// SubmitReportResponse carries the reference code, shown to the reporter once.
type SubmitReportResponse struct {
	ReferenceCode string `json:"referenceCode"`
}

// ResolveCodeRequest captures POST /follow-up/resolve payload.
type ResolveCodeRequest struct {
	Code string `json:"code"`
}

// ResolveCodeResponse returns the report a code grants access to.
type ResolveCodeResponse struct {
	ReportID string `json:"reportId"`
}

// ReportListQuery binds admin listing query parameters.
type ReportListQuery struct {
	Status string `form:"status"`
	Sort   string `form:"sort"`
	Format string `form:"format"`
}

// UpdateStatusRequest captures PATCH /admin/reports/:id/status payload.
type UpdateStatusRequest struct {
	Status models.ReportStatus `json:"status" validate:"required,report_status"`
}

// NoteRequest captures POST /admin/reports/:id/notes payload.
type NoteRequest struct {
	Text string `json:"text" validate:"notblank,max=5000"`
}

// ReporterView is the report as seen through a reference code. Notes are never included.
type ReporterView struct {
	ReferenceCode   string              `json:"referenceCode"`
	SchoolID        string              `json:"schoolId"`
	BullyingType    models.BullyingType `json:"bullyingType"`
	Narrative       string              `json:"narrative"`
	InvolvedParties *string             `json:"involvedParties,omitempty"`
	YearLevel       *string             `json:"yearLevel,omitempty"`
	IncidentDate    *string             `json:"incidentDate,omitempty"`
	IncidentTime    *string             `json:"incidentTime,omitempty"`
	Location        *string             `json:"location,omitempty"`
	Status          models.ReportStatus `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
	Messages        []MessageResponse   `json:"messages"`
}

// NewReporterView projects a report and its thread for the reporter.
func NewReporterView(report *models.Report, messages []models.ConversationMessage) ReporterView {
	return ReporterView{
		ReferenceCode:   report.ReferenceCode,
		SchoolID:        report.SchoolID,
		BullyingType:    report.BullyingType,
		Narrative:       report.Narrative,
		InvolvedParties: report.InvolvedParties,
		YearLevel:       report.YearLevel,
		IncidentDate:    report.IncidentDate,
		IncidentTime:    report.IncidentTime,
		Location:        report.Location,
		Status:          report.Status,
		CreatedAt:       report.CreatedAt,
		Messages:        NewMessageResponses(messages),
	}
}

// AdminReportDetail is the full admin view of a single report.
type AdminReportDetail struct {
	Report   models.Report       `json:"report"`
	Notes    []models.ReportNote `json:"notes"`
	Messages []MessageResponse   `json:"messages"`
}
