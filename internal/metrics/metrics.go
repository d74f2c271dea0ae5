package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuditRunsRunning is the number of audits currently executing in-process.
	AuditRunsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_runs_running",
			Help: "Number of audit runs currently executing",
		},
	)

	// AuditRunsTotal counts finished audit runs by status (completed, failed).
	AuditRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_runs_total",
			Help: "Total number of audit runs finished by status",
		},
		[]string{"status"},
	)

	// JobsActive is the number of live recurring timers in the job registry.
	JobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_jobs_active",
			Help: "Number of active recurring audit jobs",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuditRunsRunning, AuditRunsTotal, JobsActive)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /clients/123/audits -> /clients/{id}/audits.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuditRunsRunning increments the running audits gauge (call when an audit starts).
func IncAuditRunsRunning() {
	AuditRunsRunning.Inc()
}

// DecAuditRunsRunning decrements the running audits gauge (call when an audit finishes).
func DecAuditRunsRunning() {
	AuditRunsRunning.Dec()
}

// IncAuditRunsTotal increments the finished-audits counter for the given status.
func IncAuditRunsTotal(status string) {
	AuditRunsTotal.WithLabelValues(status).Inc()
}

// SetJobsActive sets the active-jobs gauge to the registry's current size.
func SetJobsActive(n int) {
	JobsActive.Set(float64(n))
}
