package models

import "time"

// AdminAccount is a school staff member who reviews reports.
type AdminAccount struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	SchoolID     *string   `db:"school_id" json:"school_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NotificationPreference is the stored per-admin override. A missing row means defaults.
type NotificationPreference struct {
	AdminID            string    `db:"admin_id" json:"admin_id"`
	NotifyOnNewReport  bool      `db:"notify_on_new_report" json:"notify_on_new_report"`
	NotifyOnNewMessage bool      `db:"notify_on_new_message" json:"notify_on_new_message"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// AdminRecipient is an active admin joined with their stored preference, if any.
type AdminRecipient struct {
	AdminID            string `db:"admin_id"`
	Email              string `db:"email"`
	FullName           string `db:"full_name"`
	NotifyOnNewReport  *bool  `db:"notify_on_new_report"`
	NotifyOnNewMessage *bool  `db:"notify_on_new_message"`
}
