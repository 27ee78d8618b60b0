package monitoring

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)
	assert.Same(t, reg, r.Registry())

	r.ObserveHTTPRequest("GET", "/api/courses", 200, 15*time.Millisecond)
	r.ObserveHTTPRequest("GET", "/api/courses", 200, 5*time.Millisecond)
	r.ObserveHTTPRequest("POST", "/api/courses", 400, time.Millisecond)
	r.ObserveSegmentation(3, 200*time.Microsecond)
	r.IncMetadataFallback()
	r.IncSessionsPurged("slides", 2)
	r.IncSessionsPurged("labs", 0)
	r.SetWebSocketClients(4)

	body := scrape(t, r)
	assert.Contains(t, body, `coursekit_http_requests_total{method="GET",route="/api/courses",status="200"} 2`)
	assert.Contains(t, body, `coursekit_http_requests_total{method="POST",route="/api/courses",status="400"} 1`)
	assert.Contains(t, body, "coursekit_metadata_parse_fallback_total 1")
	assert.Contains(t, body, `coursekit_edit_sessions_purged_total{kind="slides"} 2`)
	assert.NotContains(t, body, `kind="labs"`)
	assert.Contains(t, body, "coursekit_websocket_clients 4")
	assert.Contains(t, body, "coursekit_slides_per_deck_count 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestNewRecorder_NilRegistry(t *testing.T) {
	r := NewRecorder(nil)
	require.NotNil(t, r.Registry())

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHealth(t *testing.T) {
	clock := &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	h := NewHealth(clock)

	clock.t = clock.t.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, h.Uptime())

	status := h.Status()
	assert.Equal(t, "1m30s", status["uptime"])
	assert.Equal(t, true, status["healthy"])
	assert.Contains(t, status, "goroutines")
	assert.Contains(t, status, "memory_mb")
}

func TestSafeUint64ToInt64(t *testing.T) {
	assert.Equal(t, int64(42), safeUint64ToInt64(42))
	assert.Equal(t, int64(math.MaxInt64), safeUint64ToInt64(math.MaxUint64))
}
