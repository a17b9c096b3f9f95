package prometheus_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/codecanvas"
	cgin "github.com/fwojciec/codecanvas/gin"
	"github.com/fwojciec/codecanvas/mock"
	"github.com/fwojciec/codecanvas/prometheus"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := prometheus.New()
	m.ObserveRequest(cgin.RouteExplain, http.StatusOK, 2*time.Second)
	m.ObserveRequest(cgin.RouteExplain, http.StatusOK, time.Second)
	m.ObserveRequest(cgin.RouteVisual, http.StatusInternalServerError, 300*time.Millisecond)
	m.UpstreamFailure(cgin.RouteVisual, cgin.PhaseBeforeHeaders)
	m.ObserveStream(3, 42)
	m.ClientDisconnect(cgin.RouteExplain)

	err := testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(`
# HELP codecanvas_requests_total Generation requests by route and status code.
# TYPE codecanvas_requests_total counter
codecanvas_requests_total{route="explain",status="200"} 2
codecanvas_requests_total{route="visual",status="500"} 1
# HELP codecanvas_upstream_failures_total Upstream generation failures by route and phase.
# TYPE codecanvas_upstream_failures_total counter
codecanvas_upstream_failures_total{phase="before_headers",route="visual"} 1
# HELP codecanvas_stream_fragments_total Text fragments relayed to explain clients.
# TYPE codecanvas_stream_fragments_total counter
codecanvas_stream_fragments_total 3
# HELP codecanvas_stream_bytes_total Bytes of text relayed to explain clients.
# TYPE codecanvas_stream_bytes_total counter
codecanvas_stream_bytes_total 42
# HELP codecanvas_client_disconnects_total Streams ended because the client went away.
# TYPE codecanvas_client_disconnects_total counter
codecanvas_client_disconnects_total{route="explain"} 1
`),
		"codecanvas_requests_total",
		"codecanvas_upstream_failures_total",
		"codecanvas_stream_fragments_total",
		"codecanvas_stream_bytes_total",
		"codecanvas_client_disconnects_total",
	)
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Gatherer(), "codecanvas_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := prometheus.New()
	m.ObserveRequest(cgin.RouteVisual, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `codecanvas_requests_total{route="visual",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_WiredIntoServer(t *testing.T) {
	t.Parallel()

	m := prometheus.New()
	p := &mock.Provider{
		StreamFn: func(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error) {
			return mock.NewTextStream(errors.New("reset"), "Hello"), nil
		},
	}
	srv := cgin.NewServer(codecanvas.NewGateway(p), cgin.WithMetrics(m), cgin.WithMetricsHandler(m.Handler()))

	req := httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader(`{"prompt":"x = 1","language":"python"}`))
	srv.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `codecanvas_requests_total{route="explain",status="200"} 1`)
	assert.Contains(t, body, `codecanvas_upstream_failures_total{phase="mid_stream",route="explain"} 1`)
	assert.Contains(t, body, "codecanvas_stream_fragments_total 1")
	assert.Contains(t, body, "codecanvas_stream_bytes_total 5")
}
