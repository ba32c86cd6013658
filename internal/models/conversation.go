package models

import "time"

// MessageSender identifies who wrote a conversation message.
type MessageSender string

const (
	SenderReporter MessageSender = "reporter"
	SenderAdmin    MessageSender = "admin"
)

// Valid reports whether s is a known sender.
func (s MessageSender) Valid() bool {
	return s == SenderReporter || s == SenderAdmin
}

// ConversationMessage is one entry in the append-only thread tied to a report.
type ConversationMessage struct {
	ID       string        `db:"id" json:"id"`
	ReportID string        `db:"report_id" json:"report_id"`
	Sender   MessageSender `db:"sender" json:"sender"`
	AdminID  *string       `db:"admin_id" json:"-"`
	Text     string        `db:"text" json:"text"`
	SentAt   time.Time     `db:"sent_at" json:"sent_at"`
}

// ReportNote is an admin-private annotation on a report.
type ReportNote struct {
	ID        string    `db:"id" json:"id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	AdminID   string    `db:"admin_id" json:"admin_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
