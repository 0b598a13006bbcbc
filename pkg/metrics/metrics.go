package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid_input"
	OutcomeNotReady = "not_ready"
	OutcomeError    = "error"
)

// Collector provides application metrics on its own registry. All methods
// are safe to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Model Metrics
	PredictionsTotal   *prometheus.CounterVec
	PredictedDemand    prometheus.Histogram
	TrainingRunsTotal  *prometheus.CounterVec
	TrainingDuration   prometheus.Histogram
	ArtifactLoadsTotal *prometheus.CounterVec

	// Inventory Metrics
	OptimizerActionsTotal *prometheus.CounterVec
	OptimizerCost         prometheus.Histogram
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "demand_predictions_total",
				Help:      "Total number of demand predictions by outcome",
			},
			[]string{"outcome"},
		),

		PredictedDemand: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "predicted_demand_units",
				Help:      "Distribution of predicted demand values",
				Buckets:   []float64{10, 25, 50, 75, 100, 150, 200},
			},
		),

		TrainingRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_training_runs_total",
				Help:      "Total number of demand model training runs by result",
			},
			[]string{"result"},
		),

		TrainingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_training_duration_seconds",
				Help:      "Duration of train-and-persist cycles in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		ArtifactLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_artifact_loads_total",
				Help:      "Total number of artifact load attempts by outcome",
			},
			[]string{"outcome"},
		),

		OptimizerActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inventory_actions_total",
				Help:      "Total number of inventory actions emitted by type",
			},
			[]string{"action"},
		),

		OptimizerCost: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inventory_estimated_cost",
				Help:      "Estimated cost of each optimization result",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
			},
		),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordAPIRequest records one handled HTTP request.
func (c *Collector) RecordAPIRequest(endpoint, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	c.APIRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObservePrediction records a prediction attempt.
func (c *Collector) ObservePrediction(outcome string, demand int) {
	if c == nil {
		return
	}
	c.PredictionsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		c.PredictedDemand.Observe(float64(demand))
	}
}

// ObserveOptimization records the actions and cost of one optimization.
func (c *Collector) ObserveOptimization(actions map[string]int, cost float64) {
	if c == nil {
		return
	}
	for action, n := range actions {
		c.OptimizerActionsTotal.WithLabelValues(action).Add(float64(n))
	}
	c.OptimizerCost.Observe(cost)
}

// ArtifactLoad implements ml.StoreObserver.
func (c *Collector) ArtifactLoad(outcome string) {
	if c == nil {
		return
	}
	c.ArtifactLoadsTotal.WithLabelValues(outcome).Inc()
}

// ModelTrained implements ml.StoreObserver.
func (c *Collector) ModelTrained(elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.TrainingRunsTotal.WithLabelValues(result).Inc()
	c.TrainingDuration.Observe(elapsed.Seconds())
}
