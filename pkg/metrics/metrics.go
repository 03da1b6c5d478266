// Package metrics provides Prometheus instrumentation for a solve run.
// It mirrors the teacher's private-registry pattern
// (internal/service/metrics_service.go): a registry owned by the
// collector, MustRegister at construction, and a Handler() an operator
// mounts on whatever HTTP surface they run outside this module.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector instruments one or more solve runs.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	generationsTotal    prometheus.Counter
	generationFitness   prometheus.Gauge
	generationDuration  prometheus.Histogram
	daySolveDuration    *prometheus.HistogramVec
	daySolverStatus     *prometheus.CounterVec
}

// New registers the solver's collectors against a fresh registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	generationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Total number of evolutionary generations evaluated",
	})

	generationFitness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generation_best_fitness",
		Help: "Best chromosome fitness of the most recent generation",
	})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall-clock time spent evaluating one generation",
		Buckets: prometheus.DefBuckets,
	})

	daySolveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_day_solve_duration_seconds",
		Help:    "Wall-clock time spent solving one day's intraday schedule",
		Buckets: prometheus.DefBuckets,
	}, []string{"day"})

	daySolverStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_day_solver_status_total",
		Help: "Outcome of the per-day constraint solve",
	}, []string{"day", "status"})

	registry.MustRegister(generationsTotal, generationFitness, generationDuration, daySolveDuration, daySolverStatus)

	return &Collector{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		generationsTotal:   generationsTotal,
		generationFitness:  generationFitness,
		generationDuration: generationDuration,
		daySolveDuration:   daySolveDuration,
		daySolverStatus:    daySolverStatus,
	}
}

// Handler exposes the collectors in the Prometheus text exposition
// format; mounting it on an HTTP mux is the caller's responsibility.
func (c *Collector) Handler() http.Handler {
	return c.handler
}

// ObserveGeneration records one generation's best fitness and duration.
func (c *Collector) ObserveGeneration(bestFitness float64, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.generationsTotal.Inc()
	c.generationFitness.Set(bestFitness)
	c.generationDuration.Observe(elapsed.Seconds())
}

// ObserveDay records the outcome and duration of one day's intraday solve.
func (c *Collector) ObserveDay(day int, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	label := dayLabel(day)
	c.daySolveDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	c.daySolverStatus.WithLabelValues(label, status).Inc()
}

func dayLabel(day int) string {
	names := [...]string{"mon", "tue", "wed", "thu", "fri"}
	if day >= 0 && day < len(names) {
		return names[day]
	}
	return "unknown"
}
