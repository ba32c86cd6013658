package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/repository"
	"github.com/noah-isme/upstander-api/pkg/mailer"
)

// memoryReportRepo is an in-memory report store. Writes are all-or-nothing,
// mirroring the transactional repository.
type memoryReportRepo struct {
	mu       sync.Mutex
	reports  map[string]models.Report
	lookups  map[string]string
	failNext []error
	findErr  error
	unscoped []models.Report
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{reports: map[string]models.Report{}, lookups: map[string]string{}}
}

func (m *memoryReportRepo) CreateWithLookup(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failNext) > 0 {
		err := m.failNext[0]
		m.failNext = m.failNext[1:]
		return err
	}
	if _, taken := m.lookups[report.ReferenceCode]; taken {
		return repository.ErrDuplicateReferenceCode
	}
	m.reports[report.ID] = *report
	m.lookups[report.ReferenceCode] = report.ID
	return nil
}

func (m *memoryReportRepo) FindIDByCode(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.lookups[code]
	if !ok {
		return "", sql.ErrNoRows
	}
	return id, nil
}

func (m *memoryReportRepo) FindByID(ctx context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	r, ok := m.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *memoryReportRepo) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unscoped != nil {
		return append([]models.Report(nil), m.unscoped...), nil
	}
	var out []models.Report
	for _, r := range m.reports {
		if r.SchoolID == filter.SchoolID && (filter.Status == nil || r.Status == *filter.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return m.findErr
	}
	r, ok := m.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	m.reports[id] = r
	return nil
}

type memoryNotes struct {
	notes []models.ReportNote
}

func (m *memoryNotes) Create(ctx context.Context, note *models.ReportNote) error {
	m.notes = append(m.notes, *note)
	return nil
}

func (m *memoryNotes) ListByReport(ctx context.Context, reportID string) ([]models.ReportNote, error) {
	var out []models.ReportNote
	for _, n := range m.notes {
		if n.ReportID == reportID {
			out = append(out, n)
		}
	}
	return out, nil
}

type memoryConversation struct {
	messages []models.ConversationMessage
}

func (m *memoryConversation) Append(ctx context.Context, msg *models.ConversationMessage) error {
	m.messages = append(m.messages, *msg)
	return nil
}

// ListByReport returns messages in insertion order so callers must sort.
func (m *memoryConversation) ListByReport(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for _, msg := range m.messages {
		if msg.ReportID == reportID && (since == nil || msg.SentAt.After(*since)) {
			out = append(out, msg)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(n models.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

type recordingPublisher struct {
	published []dto.MessageResponse
}

func (p *recordingPublisher) Publish(ctx context.Context, reportID string, msg dto.MessageResponse) error {
	p.published = append(p.published, msg)
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failTo map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTo[msg.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.To)
	}
	return out
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }
