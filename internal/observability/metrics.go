package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oceaneye"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Report store metrics.
	ReportsSubmitted    prometheus.Counter
	ReportStatusChanges *prometheus.CounterVec // labels: status
	ReportApprovals     prometheus.Counter
	ReportsStored       prometheus.Gauge

	// Remote sync metrics.
	SyncOutcomes          *prometheus.CounterVec   // labels: op={create,load,poll}, outcome={success,unreachable,timeout,request_failed}
	RemoteRequestDuration *prometheus.HistogramVec // labels: op

	// External feed metrics.
	FeedFetches *prometheus.CounterVec // labels: source, outcome={success,error,cached}
	FeedItems   *prometheus.GaugeVec   // labels: feed

	// Hotspot aggregation metrics.
	HotspotComputations prometheus.Counter
	HotspotCells        prometheus.Histogram
	HotspotMarkers      prometheus.Histogram

	// Auth and event publishing.
	AuthAttempts    *prometheus.CounterVec // labels: op={signup,login}, path={remote,local}, outcome={success,error}
	EventsPublished *prometheus.CounterVec // labels: type, outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
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
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports accepted into the local store.",
		}),
		ReportStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_status_changes_total",
			Help:      "Report status updates by destination status.",
		}, []string{"status"}),
		ReportApprovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_approvals_total",
			Help:      "Transitions into approved that produced a notification.",
		}),
		ReportsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_stored",
			Help:      "Reports currently held by the store.",
		}),
		SyncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_outcomes_total",
			Help:      "Background remote sync attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		RemoteRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Remote OceanEye API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5},
		}, []string{"op"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "External feed fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FeedItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_items",
			Help:      "Items held by each aggregated feed after the last refresh.",
		}, []string{"feed"}),
		HotspotComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hotspot_computations_total",
			Help:      "Hotspot aggregation passes.",
		}),
		HotspotCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hotspot_cells",
			Help:      "Cells produced per aggregation pass.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		HotspotMarkers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hotspot_markers",
			Help:      "Markers returned per aggregation pass.",
			Buckets:   []float64{0, 1, 10, 50, 100, 150, 200},
		}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Signup and login attempts by path and outcome.",
		}, []string{"op", "path", "outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Report events and notifications written to Kafka.",
		}, []string{"type", "outcome"}),
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
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsSubmitted,
		m.ReportStatusChanges,
		m.ReportApprovals,
		m.ReportsStored,
		m.SyncOutcomes,
		m.RemoteRequestDuration,
		m.FeedFetches,
		m.FeedItems,
		m.HotspotComputations,
		m.HotspotCells,
		m.HotspotMarkers,
		m.AuthAttempts,
		m.EventsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
