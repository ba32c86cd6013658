package models

import "time"

// AuditAction constants represent admin actions recorded in the audit trail.
const (
	AuditActionLogin        = "LOGIN"
	AuditActionStatusChange = "REPORT_STATUS_CHANGE"
	AuditActionNoteAppend   = "REPORT_NOTE_APPEND"
	AuditActionReply        = "REPORT_REPLY"
	AuditActionExport       = "REPORT_EXPORT"
	AuditActionSettings     = "SETTINGS_UPDATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	AdminID    *string   `db:"admin_id" json:"admin_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
