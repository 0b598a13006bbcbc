package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsAreIndependent(t *testing.T) {
	// each collector owns its registry, so creating two must not panic
	a := NewCollector("cafesync")
	b := NewCollector("cafesync")

	a.ObservePrediction(OutcomeOK, 42)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PredictionsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PredictionsTotal.WithLabelValues(OutcomeOK)))
}

func TestModelTrainedResults(t *testing.T) {
	c := NewCollector("cafesync")

	c.ModelTrained(time.Second, nil)
	c.ModelTrained(time.Second, errors.New("disk full"))
	c.ArtifactLoad("loaded")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.TrainingRunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TrainingRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ArtifactLoadsTotal.WithLabelValues("loaded")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordAPIRequest("/health", http.MethodGet, 200, time.Millisecond)
		c.ObservePrediction(OutcomeOK, 1)
		c.ObserveOptimization(map[string]int{"reorder": 1}, 10)
		c.ArtifactLoad("loaded")
		c.ModelTrained(time.Second, nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("cafesync")
	c.RecordAPIRequest("/api/v1/predict/demand", http.MethodPost, 200, 5*time.Millisecond)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cafesync_api_requests_total")
}
