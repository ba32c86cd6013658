package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/upstander-api/internal/models"
)

// NoteRepository stores admin-private report notes.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new instance of NoteRepository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create appends a note.
func (r *NoteRepository) Create(ctx context.Context, note *models.ReportNote) error {
	const query = `INSERT INTO report_notes (id, report_id, admin_id, text, created_at) VALUES (:id, :report_id, :admin_id, :text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("insert report note: %w", err)
	}
	return nil
}

// ListByReport returns notes oldest first.
func (r *NoteRepository) ListByReport(ctx context.Context, reportID string) ([]models.ReportNote, error) {
	const query = `SELECT id, report_id, admin_id, text, created_at FROM report_notes WHERE report_id = $1 ORDER BY created_at ASC, id ASC`
	var notes []models.ReportNote
	if err := r.db.SelectContext(ctx, &notes, query, reportID); err != nil {
		return nil, fmt.Errorf("list report notes: %w", err)
	}
	return notes, nil
}
