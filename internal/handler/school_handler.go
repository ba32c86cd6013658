package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/middleware"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/pkg/response"
)

type schoolDirectory interface {
	Search(ctx context.Context, term string, limit int) ([]models.School, bool, error)
	Get(ctx context.Context, id string) (*models.School, error)
}

// SchoolHandler serves the public school directory used to find a reporting page.
type SchoolHandler struct {
	schools schoolDirectory
}

// NewSchoolHandler constructs a SchoolHandler.
func NewSchoolHandler(schools schoolDirectory) *SchoolHandler {
	return &SchoolHandler{schools: schools}
}

// Search godoc
// @Summary Search schools
// @Tags Schools
// @Produce json
// @Param q query string false "Name fragment"
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) Search(c *gin.Context) {
	var query dto.SchoolSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}

	schools, hit, err := h.schools.Search(c.Request.Context(), query.Q, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, schools, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a school
// @Tags Schools
// @Produce json
// @Param schoolId path string true "School slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{schoolId} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	school, err := h.schools.Get(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}
