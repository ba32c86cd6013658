package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/upstander-api/internal/models"
)

// SchoolRepository reads the school directory.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new instance of SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID returns a school by its slug.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, created_at FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// Search matches names case-insensitively. An empty term lists schools by name.
func (r *SchoolRepository) Search(ctx context.Context, term string, limit int) ([]models.School, error) {
	const query = `SELECT id, name, created_at FROM schools WHERE name ILIKE $1 ORDER BY name ASC LIMIT $2`
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("search schools: %w", err)
	}
	return schools, nil
}

// Upsert creates or renames a school.
func (r *SchoolRepository) Upsert(ctx context.Context, school *models.School) error {
	const query = `INSERT INTO schools (id, name, created_at) VALUES (:id, :name, :created_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("upsert school: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
