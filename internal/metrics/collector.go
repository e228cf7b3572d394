// Package metrics exposes Prometheus instruments for simulation runs and
// model fits.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/seqlearn/internal/regression"
)

const namespace = "seqlearn"

// Run outcomes used as the "outcome" label
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Collector owns a registry and the instruments recorded into it. Each
// daemon (or test) creates its own so registrations never collide.
type Collector struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	activeRuns   prometheus.Gauge
	fits         *prometheus.CounterVec
	fitFailures  *prometheus.CounterVec
	fitDuration  *prometheus.HistogramVec
	replications prometheus.Counter
	acquisitions prometheus.Counter
}

// NewCollector creates a collector with its own registry. Process and Go
// runtime collectors are included when withRuntime is set.
func NewCollector(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a simulation run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Simulation runs currently executing",
		}),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fits_total",
			Help:      "Regression model fits by model",
		}, []string{"model"}),
		fitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fit_failures_total",
			Help:      "Regression model fits or predictions that returned an error",
		}, []string{"model", "stage"}),
		fitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_fit_duration_seconds",
			Help:      "Duration of one regression fit",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"model"}),
		replications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replications_total",
			Help:      "Replications completed across all runs",
		}),
		acquisitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisitions_total",
			Help:      "Greedy acquisitions across all runs",
		}),
	}
	c.registry.MustRegister(c.runs, c.runDuration, c.activeRuns, c.fits,
		c.fitFailures, c.fitDuration, c.replications, c.acquisitions)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RunStarted marks a run as executing and returns a function that records
// its outcome and duration.
func (c *Collector) RunStarted() func(outcome string) {
	start := time.Now()
	c.activeRuns.Inc()
	return func(outcome string) {
		c.activeRuns.Dec()
		c.runs.WithLabelValues(outcome).Inc()
		c.runDuration.Observe(time.Since(start).Seconds())
	}
}

// Progress records simulator progress. Iteration -1 is the initial sample
// of a replication; with nIter 0 it also completes the replication.
func (c *Collector) Progress(nIter int) func(replication, iteration int) {
	return func(_, iteration int) {
		if iteration >= 0 {
			c.acquisitions.Inc()
		}
		if iteration == nIter-1 {
			c.replications.Inc()
		}
	}
}

// InstrumentFactory wraps every model produced by factory so fits and
// predictions are counted and timed under the given model label.
func (c *Collector) InstrumentFactory(label string, factory regression.Factory) regression.Factory {
	return func() regression.Model {
		return &instrumentedModel{inner: factory(), label: label, c: c}
	}
}

type instrumentedModel struct {
	inner regression.Model
	label string
	c     *Collector
}

func (m *instrumentedModel) Fit(features [][]float64, responses []float64) (regression.Predictor, error) {
	start := time.Now()
	p, err := m.inner.Fit(features, responses)
	m.c.fitDuration.WithLabelValues(m.label).Observe(time.Since(start).Seconds())
	m.c.fits.WithLabelValues(m.label).Inc()
	if err != nil {
		m.c.fitFailures.WithLabelValues(m.label, "fit").Inc()
		return nil, err
	}
	return &instrumentedPredictor{inner: p, model: m}, nil
}

type instrumentedPredictor struct {
	inner regression.Predictor
	model *instrumentedModel
}

func (p *instrumentedPredictor) Predict(features [][]float64) ([]float64, error) {
	out, err := p.inner.Predict(features)
	if err != nil {
		p.model.c.fitFailures.WithLabelValues(p.model.label, "predict").Inc()
	}
	return out, err
}
