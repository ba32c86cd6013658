package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/upstander-api/internal/models"
)

// ConversationRepository stores the message thread of each report.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new instance of ConversationRepository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Append stores a message.
func (r *ConversationRepository) Append(ctx context.Context, msg *models.ConversationMessage) error {
	const query = `INSERT INTO conversation_messages (id, report_id, sender, admin_id, text, sent_at) VALUES (:id, :report_id, :sender, :admin_id, :text, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("insert conversation message: %w", err)
	}
	return nil
}

// ListByReport returns messages ascending by sent_at then id. A non-nil since
// returns only messages sent strictly after it.
func (r *ConversationRepository) ListByReport(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error) {
	query := `SELECT id, report_id, sender, admin_id, text, sent_at FROM conversation_messages WHERE report_id = $1`
	args := []interface{}{reportID}
	if since != nil {
		query += ` AND sent_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY sent_at ASC, id ASC`

	var messages []models.ConversationMessage
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return messages, nil
}
