package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/infrastructure/refdb"
)

// Namespace prefixes every exported metric
const Namespace = "guardian_audit"

// PrometheusMetrics collects scan and HTTP metrics. It implements
// services.ScanObserver.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Scans
	scansTotal        *prometheus.CounterVec
	scansInProgress   prometheus.Gauge
	scanDuration      *prometheus.HistogramVec
	packagesAudited   *prometheus.CounterVec
	packageDuration   prometheus.Histogram
	packageFailures   prometheus.Counter
	deviceFindings    *prometheus.CounterVec
	findingsTotal     *prometheus.CounterVec
	referenceEntries  *prometheus.GaugeVec
	lastScanTimestamp prometheus.Gauge
}

// NewPrometheusMetrics registers all collectors on a fresh registry
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "route"},
		),

		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scans_total",
				Help:      "Total number of completed scans",
			},
			[]string{"mode", "policy"},
		),
		scansInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "scans_in_progress",
				Help:      "Number of scans currently running",
			},
		),
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "scan_duration_seconds",
				Help:      "Scan duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		packagesAudited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "packages_audited_total",
				Help:      "Total number of audited packages by risk tier",
			},
			[]string{"risk"},
		),
		packageDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "package_audit_duration_seconds",
				Help:      "Per-package audit duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		packageFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "package_failures_total",
				Help:      "Total number of packages dropped from scans",
			},
		),
		deviceFindings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "device_findings_total",
				Help:      "Total number of device-level findings",
			},
			[]string{"finding"},
		),
		findingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "app_findings_total",
				Help:      "Total number of app findings by id",
			},
			[]string{"finding"},
		),
		referenceEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "reference_entries",
				Help:      "Number of reference database entries by kind",
			},
			[]string{"kind"},
		),
		lastScanTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_scan_timestamp_seconds",
				Help:      "Unix time of the last completed scan",
			},
		),
	}
}

// Registry returns the registry holding every collector
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// Handler returns the Prometheus HTTP handler
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and latencies by route pattern
func (pm *PrometheusMetrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		pm.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		pm.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// SetReferenceStats publishes reference database sizes
func (pm *PrometheusMetrics) SetReferenceStats(stats refdb.Stats) {
	pm.referenceEntries.WithLabelValues("certificate").Set(float64(stats.Certificates))
	pm.referenceEntries.WithLabelValues("package").Set(float64(stats.Packages))
	pm.referenceEntries.WithLabelValues("tracker").Set(float64(stats.Trackers))
}

func (pm *PrometheusMetrics) ScanStarted(string, models.AuditMode, string) {
	pm.scansInProgress.Inc()
}

func (pm *PrometheusMetrics) PackageAudited(_ string, audit *models.AppAudit, elapsed time.Duration) {
	pm.packagesAudited.WithLabelValues(string(audit.Risk)).Inc()
	pm.packageDuration.Observe(elapsed.Seconds())
	for _, f := range audit.Findings {
		pm.findingsTotal.WithLabelValues(f.ID).Inc()
	}
}

func (pm *PrometheusMetrics) PackageFailed(string, string, error) {
	pm.packageFailures.Inc()
}

func (pm *PrometheusMetrics) ScanCompleted(report *models.ScanReport) {
	pm.scansInProgress.Dec()
	pm.scansTotal.WithLabelValues(string(report.Mode), report.Policy).Inc()
	pm.scanDuration.WithLabelValues(string(report.Mode)).Observe(report.CompletedAt.Sub(report.StartedAt).Seconds())
	pm.lastScanTimestamp.Set(float64(report.CompletedAt.Unix()))
	for _, f := range report.DeviceFindings {
		pm.deviceFindings.WithLabelValues(f.ID).Inc()
	}
}
