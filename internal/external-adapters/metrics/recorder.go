// Package metrics records audit run statistics with Prometheus and writes
// them in the node-exporter textfile format.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/services"
)

const namespace = "aiaudit"

// Recorder holds the metrics of one process. Each Recorder owns its
// registry so that a textfile contains only audit metrics.
type Recorder struct {
	registry *prometheus.Registry

	// ItemsTotal is the collection size per profile
	ItemsTotal *prometheus.GaugeVec

	// ProbesTotal counts probe outcomes. Labels: profile, result (enabled, disabled, indeterminate)
	ProbesTotal *prometheus.CounterVec

	// RowsTotal counts report rows. Labels: profile, tier
	RowsTotal *prometheus.CounterVec

	// RateLimitWaitSeconds sums time spent waiting for quota resets
	RateLimitWaitSeconds *prometheus.CounterVec

	// RateLimitWaitsTotal counts quota waits
	RateLimitWaitsTotal *prometheus.CounterVec

	// EnrichmentSkippedTotal counts unavailable enrichment categories
	EnrichmentSkippedTotal *prometheus.CounterVec

	// APIRequestsTotal counts outgoing HTTP requests. Labels: code, method
	APIRequestsTotal *prometheus.CounterVec

	// RunDurationSeconds is the duration of the last run
	RunDurationSeconds *prometheus.GaugeVec

	// LastRunTimestamp is the completion time of the last run. Labels: profile, status
	LastRunTimestamp *prometheus.GaugeVec
}

var _ services.AuditMetrics = (*Recorder)(nil)

// NewRecorder creates a recorder with a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ItemsTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items found in the audited collection",
		}, []string{"profile"}),
		ProbesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Feature probe outcomes",
		}, []string{"profile", "result"}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_rows_total",
			Help:      "Report rows by risk tier",
		}, []string{"profile", "tier"}),
		RateLimitWaitSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds_total",
			Help:      "Seconds spent waiting for the API quota to reset",
		}, []string{"profile"}),
		RateLimitWaitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Number of waits for the API quota to reset",
		}, []string{"profile"}),
		EnrichmentSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_skipped_total",
			Help:      "Enrichment categories skipped because the endpoint was unavailable",
		}, []string{"profile", "category"}),
		APIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outgoing API requests by status code and method",
		}, []string{"code", "method"}),
		RunDurationSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last audit run",
		}, []string{"profile"}),
		LastRunTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last audit run finished",
		}, []string{"profile", "status"}),
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// InstrumentClient wraps the client's transport so every request is counted
func (r *Recorder) InstrumentClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	instrumented := *client
	instrumented.Transport = promhttp.InstrumentRoundTripperCounter(r.APIRequestsTotal, next)
	return &instrumented
}

// ItemsFetched records the collection size
func (r *Recorder) ItemsFetched(profile string, n int) {
	r.ItemsTotal.WithLabelValues(profile).Set(float64(n))
}

// ProbeObserved counts one probe outcome
func (r *Recorder) ProbeObserved(profile string, result entities.FeatureProbeResult) {
	r.ProbesTotal.WithLabelValues(profile, probeLabel(result)).Inc()
}

// RowRecorded counts one report row
func (r *Recorder) RowRecorded(profile string, tier entities.RiskTier) {
	r.RowsTotal.WithLabelValues(profile, strings.ToLower(tier.String())).Inc()
}

// RateLimitWaited records one quota wait
func (r *Recorder) RateLimitWaited(profile string, seconds float64) {
	r.RateLimitWaitsTotal.WithLabelValues(profile).Inc()
	r.RateLimitWaitSeconds.WithLabelValues(profile).Add(seconds)
}

// EnrichmentSkipped counts one skipped category
func (r *Recorder) EnrichmentSkipped(profile, category string) {
	r.EnrichmentSkippedTotal.WithLabelValues(profile, category).Inc()
}

// RunFinished records the run duration and completion status
func (r *Recorder) RunFinished(profile string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.RunDurationSeconds.WithLabelValues(profile).Set(duration.Seconds())
	r.LastRunTimestamp.WithLabelValues(profile, status).SetToCurrentTime()
}

// WriteTextfile writes all metrics to path for the node-exporter
// textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func probeLabel(result entities.FeatureProbeResult) string {
	switch result {
	case entities.ProbeEnabled:
		return "enabled"
	case entities.ProbeDisabled:
		return "disabled"
	default:
		return "indeterminate"
	}
}
