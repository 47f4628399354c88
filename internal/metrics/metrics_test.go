package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/visualeffect/internal/metrics"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(metrics.Config{Registry: reg})

	rec.TaskTransition("nyc", "idle", "running")
	rec.TaskTransition("nyc", "running", "completed")
	rec.TaskRun("nyc", "completed", 120*time.Millisecond)
	rec.FinalizerRun("resources", "completed")
	rec.RefUpdate("counter")
	rec.RefUpdate("counter")

	expected := `
# HELP visualeffect_ref_updates_total Total number of observed ref value changes
# TYPE visualeffect_ref_updates_total counter
visualeffect_ref_updates_total{ref="counter"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "visualeffect_ref_updates_total"))

	n, err := testutil.GatherAndCount(reg, "visualeffect_task_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewPrometheus(metrics.Config{Registry: reg}).RefUpdate("counter")

	srv := httptest.NewServer(metrics.NewHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.Noop.TaskTransition("a", "idle", "running")
		metrics.Noop.TaskRun("a", "failed", time.Second)
		metrics.Noop.FinalizerRun("s", "aborted")
		metrics.Noop.RefUpdate("r")
	})
}
