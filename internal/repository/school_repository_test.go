package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/upstander-api/internal/models"
)

func TestSchoolSearchEscapesPattern(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM schools WHERE name ILIKE $1 ORDER BY name ASC LIMIT $2")).
		WithArgs(`%100\% lincoln%`, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("Lincoln-HS", "Lincoln High School", time.Now()))

	schools, err := repo.Search(context.Background(), " 100% lincoln ", 20)
	require.NoError(t, err)
	assert.Len(t, schools, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schools")).WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Upsert(context.Background(), &models.School{ID: "Lincoln-HS", Name: "Lincoln High School", CreatedAt: time.Now()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionStatusChange, Resource: "report"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutRedis(t *testing.T) {
	repo := NewCacheRepository(nil)
	var out []models.School
	assert.Error(t, repo.Get(context.Background(), "schools:x", &out))
	assert.NoError(t, repo.Set(context.Background(), "schools:x", out, time.Minute))
	count, _, err := repo.IncrementWindow(context.Background(), "rl:x", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, repo.Enabled())
}
