package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/service"
	"github.com/noah-isme/upstander-api/internal/validation"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
	Meta  map[string]any   `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type intakeMock struct {
	submitResp *dto.SubmitReportResponse
	submitErr  error
	gotSchool  string
	codes      map[string]string
}

func (m *intakeMock) SubmitReport(ctx context.Context, schoolID string, req dto.SubmitReportRequest) (*dto.SubmitReportResponse, error) {
	m.gotSchool = schoolID
	return m.submitResp, m.submitErr
}

func (m *intakeMock) ResolveCode(ctx context.Context, code string) (string, error) {
	if id, ok := m.codes[code]; ok {
		return id, nil
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
}

// conversationMock keeps a thread per report and honours the school check for
// admin senders.
type conversationMock struct {
	mu       sync.Mutex
	schools  map[string]string
	messages map[string][]models.ConversationMessage
	seq      int
	appendFn func(models.ConversationMessage)
}

var messageValidator = validation.New()

func newConversationMock() *conversationMock {
	return &conversationMock{schools: map[string]string{}, messages: map[string][]models.ConversationMessage{}}
}

func (m *conversationMock) ReporterView(ctx context.Context, reportID string) (*dto.ReporterView, error) {
	if _, ok := m.schools[reportID]; !ok {
		return nil, appErrors.ErrNotFound
	}
	report := &models.Report{ID: reportID, SchoolID: m.schools[reportID], Status: models.ReportStatusNew}
	view := dto.NewReporterView(report, m.messages[reportID])
	return &view, nil
}

func (m *conversationMock) AppendMessage(ctx context.Context, reportID, text string, sender models.MessageSender, actor *models.JWTClaims) (*models.ConversationMessage, error) {
	if err := messageValidator.Struct(dto.PostMessageRequest{ReportID: reportID, Text: text, Sender: sender}); err != nil {
		return nil, appErrors.Validation(err, "invalid message")
	}
	m.mu.Lock()
	school, ok := m.schools[reportID]
	if !ok || (sender == models.SenderAdmin && (actor == nil || actor.SchoolID != school)) {
		m.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	m.seq++
	msg := models.ConversationMessage{ID: fmt.Sprintf("m%02d", m.seq), ReportID: reportID, Sender: sender, Text: text, SentAt: time.Unix(int64(m.seq), 0).UTC()}
	m.messages[reportID] = append(m.messages[reportID], msg)
	fn := m.appendFn
	m.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
	return &msg, nil
}

func (m *conversationMock) ListMessages(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ConversationMessage
	for _, msg := range m.messages[reportID] {
		if since == nil || msg.SentAt.After(*since) {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

type adminReportMock struct {
	*conversationMock
	reports   []models.Report
	listErr   error
	gotFilter [2]string
	statusErr error
	notes     []models.ReportNote
}

func (m *adminReportMock) ListReports(ctx context.Context, schoolID, statusFilter, sortOrder string) ([]models.Report, error) {
	m.gotFilter = [2]string{statusFilter, sortOrder}
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Report
	for _, r := range m.reports {
		if r.SchoolID == schoolID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *adminReportMock) find(actor *models.JWTClaims, id string) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	for _, r := range m.reports {
		if r.ID == id && r.SchoolID == actor.SchoolID {
			r := r
			return &r, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
}

func (m *adminReportMock) GetReportForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string) (*dto.AdminReportDetail, error) {
	r, err := m.find(actor, reportID)
	if err != nil {
		return nil, err
	}
	return &dto.AdminReportDetail{Report: *r, Notes: m.notes, Messages: []dto.MessageResponse{}}, nil
}

func (m *adminReportMock) SetStatus(ctx context.Context, actor *models.JWTClaims, reportID string, status models.ReportStatus) (*models.Report, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	r, err := m.find(actor, reportID)
	if err != nil {
		return nil, err
	}
	r.Status = status
	return r, nil
}

func (m *adminReportMock) AppendNote(ctx context.Context, actor *models.JWTClaims, reportID, text string) (*models.ReportNote, error) {
	r, err := m.find(actor, reportID)
	if err != nil {
		return nil, err
	}
	note := models.ReportNote{ID: "n1", ReportID: r.ID, AdminID: actor.AdminID, Text: text}
	m.notes = append(m.notes, note)
	return &note, nil
}

func (m *adminReportMock) ListMessagesForAdmin(ctx context.Context, actor *models.JWTClaims, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	if _, err := m.find(actor, reportID); err != nil {
		return nil, err
	}
	return m.ListMessages(ctx, reportID, since)
}

type exporterMock struct {
	result *service.ExportResult
	err    error
	format string
}

func (m *exporterMock) Export(ctx context.Context, actor *models.JWTClaims, statusFilter, sortOrder, format string) (*service.ExportResult, error) {
	m.format = format
	return m.result, m.err
}
