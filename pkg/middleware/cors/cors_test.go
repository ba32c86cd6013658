package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestWildcardWithoutCredentials(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	newRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestAllowListedOrigin(t *testing.T) {
	r := newRouter([]string{"https://portal.example/"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://Portal.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://Portal.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	newRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	check := CheckOrigin([]string{"https://portal.example/"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://PORTAL.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.True(t, CheckOrigin(nil)(req))
}
