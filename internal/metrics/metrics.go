// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Geocoding outcomes.
const (
	GeocodeOK       = "ok"
	GeocodeNoResult = "no_result"
	GeocodeError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	GeocodeRequests *prometheus.CounterVec
	GeocodeDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homeowners_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homeowners_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		GeocodeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homeowners_geocode_requests_total",
			Help: "Geocoding lookups by outcome",
		}, []string{"outcome"}),
		GeocodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "homeowners_geocode_duration_seconds",
			Help:    "Latency of the external geocoding provider",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveGeocode records one geocoding lookup.
func (m *Metrics) ObserveGeocode(outcome string, elapsed time.Duration) {
	m.GeocodeRequests.WithLabelValues(outcome).Inc()
	m.GeocodeDuration.Observe(elapsed.Seconds())
}
