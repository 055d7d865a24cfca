package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncAction(ActionStart)
	pr.IncAction(ActionStart)
	pr.IncAction(ActionStop)
	pr.IncTick()
	pr.IncPersistRetry("START_TIME_KEY")
	pr.IncPersistFailure("START_TIME_KEY")
	pr.ObservePersistDuration("json", 2*time.Millisecond)
	pr.SetElapsed(90 * time.Second)
	pr.SetRunning(true)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.actions.WithLabelValues("start")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.actions.WithLabelValues("stop")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.ticks), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.persistFailures.WithLabelValues("START_TIME_KEY")), 0)
	assert.InDelta(t, 90, testutil.ToFloat64(pr.elapsed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.running), 0)

	pr.SetRunning(false)
	assert.InDelta(t, 0, testutil.ToFloat64(pr.running), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncAction(ActionReset)
		pr.IncTick()
		pr.SetRunning(true)
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTick()

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "bgtimer_ticks_total 1"))
}
