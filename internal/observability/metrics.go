package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "safescape"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Report store metrics.
	ReportsSubmitted *prometheus.CounterVec // labels: type
	ReportsRejected  prometheus.Counter
	StorageErrors    *prometheus.CounterVec // labels: op={load,append,theme}
	ReportsPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Map view session metrics.
	ActiveSessions  prometheus.Gauge
	SessionsEvicted *prometheus.CounterVec // labels: reason={idle,capacity}
	LocateRequests  *prometheus.CounterVec // labels: outcome={success,denied,timeout,unavailable}
	BlockedSubmits  prometheus.Counter

	// Offline cache worker metrics.
	CacheLookups   *prometheus.CounterVec // labels: result={hit,miss}
	WorkerInstalls *prometheus.CounterVec // labels: outcome={success,error}
	CachesPruned   prometheus.Counter
	WorkerActive   prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={search,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={search,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={search,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports appended to the store by type.",
		}, []string{"type"}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rejected_total",
			Help:      "Reports that failed validation.",
		}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Storage reads and writes that failed and were tolerated.",
		}, []string{"op"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Report events written to the event sink by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Map view sessions currently open.",
		}),
		SessionsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Map view sessions discarded without an explicit close.",
		}, []string{"reason"}),
		LocateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locate_requests_total",
			Help:      "Geolocation requests by outcome.",
		}, []string{"outcome"}),
		BlockedSubmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_submits_total",
			Help:      "Report submissions blocked because no location was picked.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_cache_lookups_total",
			Help:      "Offline cache lookups by result.",
		}, []string{"result"}),
		WorkerInstalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_worker_installs_total",
			Help:      "Offline cache worker installs by outcome.",
		}, []string{"outcome"}),
		CachesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_caches_pruned_total",
			Help:      "Stale offline caches deleted on activation.",
		}),
		WorkerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "offline_worker_active",
			Help:      "1 when the offline cache worker intercepts fetches, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsSubmitted,
		m.ReportsRejected,
		m.StorageErrors,
		m.ReportsPublished,
		m.ActiveSessions,
		m.SessionsEvicted,
		m.LocateRequests,
		m.BlockedSubmits,
		m.CacheLookups,
		m.WorkerInstalls,
		m.CachesPruned,
		m.WorkerActive,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
