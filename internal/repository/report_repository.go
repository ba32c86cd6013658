package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/upstander-api/internal/models"
)

const reportColumns = `id, school_id, bullying_type, narrative, involved_parties, year_level, incident_date, incident_time, location, status, reference_code, created_at, updated_at`

// ReportRepository stores reports and their reference code lookups.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateWithLookup inserts the report and its reference lookup in one transaction.
// A taken code surfaces as ErrDuplicateReferenceCode and nothing is persisted.
func (r *ReportRepository) CreateWithLookup(ctx context.Context, report *models.Report) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertReport = `INSERT INTO reports (` + reportColumns + `)
VALUES (:id, :school_id, :bullying_type, :narrative, :involved_parties, :year_level, :incident_date, :incident_time, :location, :status, :reference_code, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertReport, report); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReferenceCode
		}
		return fmt.Errorf("insert report: %w", err)
	}

	lookup := models.ReferenceLookup{Code: report.ReferenceCode, ReportID: report.ID, CreatedAt: report.CreatedAt}
	const insertLookup = `INSERT INTO reference_lookups (code, report_id, created_at) VALUES (:code, :report_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertLookup, lookup); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReferenceCode
		}
		return fmt.Errorf("insert reference lookup: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

// FindIDByCode resolves a reference code with an exact, case-sensitive match.
func (r *ReportRepository) FindIDByCode(ctx context.Context, code string) (string, error) {
	const query = `SELECT report_id FROM reference_lookups WHERE code = $1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, code); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find report by code: %w", err)
	}
	return id, nil
}

// FindByID returns a report by identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		// A malformed id cannot name a report.
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// List returns a school's reports, optionally narrowed by status.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	var (
		conditions = []string{"school_id = $1"}
		args       = []interface{}{filter.SchoolID}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	direction := "DESC"
	if filter.Sort == models.SortOldestFirst {
		direction = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM reports WHERE %s ORDER BY created_at %s, id %s",
		reportColumns, strings.Join(conditions, " AND "), direction, direction)

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// UpdateStatus sets a new status. A missing report yields sql.ErrNoRows.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, updatedAt time.Time) error {
	const query = `UPDATE reports SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
