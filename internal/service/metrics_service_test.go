package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRegistersCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, 3*time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveCacheWrite(2 * time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/follow-up/:code", http.StatusOK, 10*time.Millisecond)
	m.ReferenceCodeCollision()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{
		"cache_latency_seconds",
		"cache_write_seconds",
		"cache_lookups_total",
		"http_request_duration_seconds",
		"reference_code_collisions_total",
	} {
		assert.True(t, names[name], name)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cache_write_seconds_count 1")
}

func TestNilMetricsServiceIsNoop(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.ReferenceCodeCollision()
	})
	assert.Nil(t, m.Registry())
}
