package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/service"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

type adminReportService interface {
	ListReports(ctx context.Context, schoolID, statusFilter, sortOrder string) ([]models.Report, error)
	GetReportForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string) (*dto.AdminReportDetail, error)
	SetStatus(ctx context.Context, actor *models.JWTClaims, reportID string, status models.ReportStatus) (*models.Report, error)
	AppendNote(ctx context.Context, actor *models.JWTClaims, reportID, text string) (*models.ReportNote, error)
	AppendMessage(ctx context.Context, reportID, text string, sender models.MessageSender, actor *models.JWTClaims) (*models.ConversationMessage, error)
	ListMessagesForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string, since *time.Time) ([]models.ConversationMessage, error)
}

type reportExporter interface {
	Export(ctx context.Context, actor *models.JWTClaims, statusFilter, sortOrder, format string) (*service.ExportResult, error)
}

// AdminReportHandler serves the school dashboard. Routes sit behind JWT and
// RequireSchool.
type AdminReportHandler struct {
	reports  adminReportService
	exporter reportExporter
}

// NewAdminReportHandler constructs an AdminReportHandler.
func NewAdminReportHandler(reports adminReportService, exporter reportExporter) *AdminReportHandler {
	return &AdminReportHandler{reports: reports, exporter: exporter}
}

// List godoc
// @Summary List school reports
// @Tags Admin Reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "new, under_investigation, resolved or all"
// @Param sort query string false "newest_first or oldest_first"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/reports [get]
func (h *AdminReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ReportListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}

	reports, err := h.reports.ListReports(c.Request.Context(), claims.SchoolID, query.Status, query.Sort)
	if err != nil {
		response.Error(c, err)
		return
	}

	total := len(reports)
	response.JSON(c, http.StatusOK, reports, &models.Pagination{Page: 1, PageSize: total, TotalCount: total})
}

// Get godoc
// @Summary Get a report with notes and conversation
// @Tags Admin Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id} [get]
func (h *AdminReportHandler) Get(c *gin.Context) {
	detail, err := h.reports.GetReportForAdmin(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpdateStatus godoc
// @Summary Change report status
// @Description Any status may be set from any status.
// @Tags Admin Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id}/status [patch]
func (h *AdminReportHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid status payload"))
		return
	}

	report, err := h.reports.SetStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// AddNote godoc
// @Summary Append a private note
// @Tags Admin Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.NoteRequest true "Note"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id}/notes [post]
func (h *AdminReportHandler) AddNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid note payload"))
		return
	}

	note, err := h.reports.AppendNote(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// ListMessages godoc
// @Summary Read the conversation
// @Tags Admin Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param since query string false "RFC3339 timestamp"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id}/messages [get]
func (h *AdminReportHandler) ListMessages(c *gin.Context) {
	since, err := parseSince(c.Query("since"))
	if err != nil {
		response.Error(c, err)
		return
	}

	messages, err := h.reports.ListMessagesForAdmin(c.Request.Context(), claimsFromContext(c), c.Param("id"), since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewMessageResponses(messages), nil)
}

// Reply godoc
// @Summary Reply to the reporter
// @Tags Admin Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.MessageTextRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id}/messages [post]
func (h *AdminReportHandler) Reply(c *gin.Context) {
	var req dto.MessageTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid message payload"))
		return
	}

	msg, err := h.reports.AppendMessage(c.Request.Context(), c.Param("id"), req.Text, models.SenderAdmin, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewMessageResponse(*msg))
}

// Export godoc
// @Summary Export school reports
// @Tags Admin Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv, pdf or xlsx"
// @Param status query string false "Status filter"
// @Param sort query string false "Sort order"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/export [get]
func (h *AdminReportHandler) Export(c *gin.Context) {
	var query dto.ReportListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}

	res, err := h.exporter.Export(c.Request.Context(), claimsFromContext(c), query.Status, query.Sort, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, res.Filename, res.ContentType, res.Data)
}
