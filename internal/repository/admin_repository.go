package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/upstander-api/internal/models"
)

const adminColumns = `id, email, password_hash, full_name, school_id, active, created_at, updated_at`

// AdminRepository provides access to admin accounts and their notification preferences.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_accounts WHERE lower(email) = lower($1) LIMIT 1`
	var admin models.AdminAccount
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_accounts WHERE id = $1 LIMIT 1`
	var admin models.AdminAccount
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// Create provisions an admin account.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminAccount) error {
	query := `INSERT INTO admin_accounts (` + adminColumns + `)
VALUES (:id, :email, :password_hash, :full_name, :school_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash of the admin with the given email.
func (r *AdminRepository) UpdatePassword(ctx context.Context, email, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE admin_accounts SET password_hash = $2, updated_at = $3 WHERE lower(email) = lower($1)`
	res, err := r.db.ExecContext(ctx, query, email, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecipients returns the active admins of a school with their stored
// preference flags. Flags are nil when the admin has no preference record.
func (r *AdminRepository) ListRecipients(ctx context.Context, schoolID string) ([]models.AdminRecipient, error) {
	const query = `SELECT a.id AS admin_id, a.email, a.full_name, p.notify_on_new_report, p.notify_on_new_message
FROM admin_accounts a
LEFT JOIN notification_preferences p ON p.admin_id = a.id
WHERE a.school_id = $1 AND a.active = TRUE
ORDER BY a.email`
	var recipients []models.AdminRecipient
	if err := r.db.SelectContext(ctx, &recipients, query, schoolID); err != nil {
		return nil, fmt.Errorf("list admin recipients: %w", err)
	}
	return recipients, nil
}

// GetPreference returns the stored preference, or nil when none exists.
func (r *AdminRepository) GetPreference(ctx context.Context, adminID string) (*models.NotificationPreference, error) {
	const query = `SELECT admin_id, notify_on_new_report, notify_on_new_message, updated_at FROM notification_preferences WHERE admin_id = $1`
	var pref models.NotificationPreference
	if err := r.db.GetContext(ctx, &pref, query, adminID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification preference: %w", err)
	}
	return &pref, nil
}

// UpsertPreference stores the full preference record.
func (r *AdminRepository) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	const query = `INSERT INTO notification_preferences (admin_id, notify_on_new_report, notify_on_new_message, updated_at)
VALUES (:admin_id, :notify_on_new_report, :notify_on_new_message, :updated_at)
ON CONFLICT (admin_id) DO UPDATE SET notify_on_new_report = EXCLUDED.notify_on_new_report, notify_on_new_message = EXCLUDED.notify_on_new_message, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert notification preference: %w", err)
	}
	return nil
}
