package models

// NotificationEvent names what triggered an admin email.
type NotificationEvent string

const (
	EventNewReport  NotificationEvent = "new_report"
	EventNewMessage NotificationEvent = "new_message"
)

// Notification is the payload carried through the notification queue.
type Notification struct {
	Event    NotificationEvent `json:"event"`
	SchoolID string            `json:"school_id"`
	ReportID string            `json:"report_id"`
}
