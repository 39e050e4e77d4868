package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	endpoints []string
	statuses  []int
	durations int
}

func (m *recordingMetrics) IncRequestsTotal(endpoint string, status int) {
	m.endpoints = append(m.endpoints, endpoint)
	m.statuses = append(m.statuses, status)
}
func (m *recordingMetrics) ObserveRequestDuration(_ string, _ time.Duration) { m.durations++ }
func (m *recordingMetrics) IncCacheHits()                                    {}
func (m *recordingMetrics) IncCacheMisses()                                  {}
func (m *recordingMetrics) IncSyncRuns(_ string)                             {}
func (m *recordingMetrics) ObserveSyncDuration(_ time.Duration)              {}

func TestMetricsMiddlewareRecordsStatus(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := MetricsMiddleware(metrics, silentLogger{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Len(t, metrics.statuses, 1)
	assert.Equal(t, http.StatusNotFound, metrics.statuses[0])
	assert.Equal(t, "/api/stats", metrics.endpoints[0])
	assert.Equal(t, 1, metrics.durations)
}

func TestMetricsMiddlewareDefaultsToOK(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := MetricsMiddleware(metrics, silentLogger{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, metrics.statuses, 1)
	assert.Equal(t, http.StatusOK, metrics.statuses[0])
}
