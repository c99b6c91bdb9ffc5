// Package metrics exposes Prometheus instrumentation for crm-comercios.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons for VisitsRejected.
const (
	ReasonMissingResponse = "missing_response"
	ReasonDuplicate       = "duplicate_today"
	ReasonInvalid         = "invalid"
)

// Metrics holds the application's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	VisitsSaved       prometheus.Counter
	VisitsRejected    *prometheus.CounterVec
	MirrorFailures    prometheus.Counter
	GeocodeLookups    *prometheus.CounterVec
	RoutePlanDuration prometheus.Histogram
	DirectoryReloads  *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		VisitsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "visits_saved_total",
			Help:      "Visit records committed to the local store.",
		}),
		VisitsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "visits_rejected_total",
			Help:      "Visit submissions rejected before any write, by reason.",
		}, []string{"reason"}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "mirror_failures_total",
			Help:      "Spreadsheet export writes that failed after the local commit.",
		}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "geocode_lookups_total",
			Help:      "Address lookups, by result (ok, not_found, error).",
		}, []string{"result"}),
		RoutePlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crm",
			Name:      "route_plan_duration_seconds",
			Help:      "Time to build a daily route, geocoding included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		DirectoryReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "directory_reloads_total",
			Help:      "Merchant directory reloads triggered by file changes, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.VisitsSaved,
		m.VisitsRejected,
		m.MirrorFailures,
		m.GeocodeLookups,
		m.RoutePlanDuration,
		m.DirectoryReloads,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
