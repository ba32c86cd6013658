package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

const (
	defaultSchoolSearchLimit = 20
	maxSchoolSearchLimit     = 100
	schoolCachePrefix        = "schools:"
)

type schoolStore interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	Search(ctx context.Context, term string, limit int) ([]models.School, error)
	Upsert(ctx context.Context, school *models.School) error
}

// SchoolService serves the public school directory with a read-through cache.
type SchoolService struct {
	repo  schoolStore
	cache *CacheService
	ttl   time.Duration
}

// NewSchoolService constructs a SchoolService. cache may be nil.
func NewSchoolService(repo schoolStore, cache *CacheService, ttl time.Duration) *SchoolService {
	return &SchoolService{repo: repo, cache: cache, ttl: ttl}
}

// Search finds schools by name. The bool reports whether the result came from cache.
func (s *SchoolService) Search(ctx context.Context, term string, limit int) ([]models.School, bool, error) {
	if limit <= 0 {
		limit = defaultSchoolSearchLimit
	}
	if limit > maxSchoolSearchLimit {
		limit = maxSchoolSearchLimit
	}
	term = strings.TrimSpace(term)
	key := fmt.Sprintf("%ssearch:%s:%d", schoolCachePrefix, strings.ToLower(term), limit)

	var schools []models.School
	if s.cache.Get(ctx, key, &schools) {
		return schools, true, nil
	}

	schools, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to search schools")
	}
	if schools == nil {
		schools = []models.School{}
	}
	s.cache.Set(ctx, key, schools, s.ttl)
	return schools, false, nil
}

// Get returns a school by its slug.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Internal(err, "failed to load school")
	}
	return school, nil
}

// Upsert creates or renames a school and drops cached searches.
func (s *SchoolService) Upsert(ctx context.Context, id, name string) (*models.School, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school id and name are required")
	}
	school := &models.School{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.Upsert(ctx, school); err != nil {
		return nil, appErrors.Internal(err, "failed to save school")
	}
	_ = s.cache.Invalidate(ctx, schoolCachePrefix+"*")
	return school, nil
}
