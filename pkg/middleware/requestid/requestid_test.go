package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestGeneratesID(t *testing.T) {
	w, seen := serve("")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(headerKey))
}

func TestKeepsInboundID(t *testing.T) {
	_, seen := serve("edge-42.abc")
	assert.Equal(t, "edge-42.abc", seen)
}

func TestRejectsMalformedID(t *testing.T) {
	_, seen := serve("bad id")
	assert.NotEqual(t, "bad id", seen)

	_, seen = serve(strings.Repeat("a", maxLength+1))
	assert.Len(t, seen, 36)
}
