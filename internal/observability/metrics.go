package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes crawl counters and gauges in Prometheus format. It
// satisfies the engine's metrics sink interface.
type Metrics struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	fetchesTotal     *prometheus.CounterVec
	recordsExtracted prometheus.Counter
	profilesTotal    prometheus.Gauge
	frontierDepth    prometheus.Gauge
	checkpointsTotal prometheus.Counter
	jobsTotal        *prometheus.CounterVec
	jobDuration      prometheus.Histogram
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logger.With("component", "metrics"),

		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newstrace_fetches_total",
			Help: "Page fetches by outcome.",
		}, []string{"outcome"}),
		recordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstrace_records_extracted_total",
			Help: "Raw profile records extracted from pages.",
		}),
		profilesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newstrace_profiles",
			Help: "Distinct journalist profiles in the current job.",
		}),
		frontierDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newstrace_frontier_depth",
			Help: "URLs queued in the crawl frontier.",
		}),
		checkpointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstrace_checkpoints_total",
			Help: "Checkpoint files written.",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newstrace_jobs_total",
			Help: "Completed scrape jobs by reason code.",
		}, []string{"reason"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newstrace_job_duration_seconds",
			Help:    "End-to-end scrape job duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	m.registry.MustRegister(
		m.fetchesTotal, m.recordsExtracted, m.profilesTotal,
		m.frontierDepth, m.checkpointsTotal, m.jobsTotal, m.jobDuration,
	)
	return m
}

// FetchDone records one completed fetch by outcome ("ok" or "error").
func (m *Metrics) FetchDone(outcome string) {
	m.fetchesTotal.WithLabelValues(outcome).Inc()
}

// PageExtracted records raw records pulled from one page.
func (m *Metrics) PageExtracted(records int) {
	m.recordsExtracted.Add(float64(records))
}

// ProfilesTotal sets the current distinct profile count.
func (m *Metrics) ProfilesTotal(n int) {
	m.profilesTotal.Set(float64(n))
}

// FrontierDepth sets the current frontier length.
func (m *Metrics) FrontierDepth(n int) {
	m.frontierDepth.Set(float64(n))
}

// CheckpointWritten records one checkpoint write.
func (m *Metrics) CheckpointWritten() {
	m.checkpointsTotal.Inc()
}

// JobFinished records one completed job.
func (m *Metrics) JobFinished(reason string, elapsed time.Duration) {
	m.jobsTotal.WithLabelValues(reason).Inc()
	m.jobDuration.Observe(elapsed.Seconds())
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves the metrics endpoint on its own port.
func (m *Metrics) StartServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}
