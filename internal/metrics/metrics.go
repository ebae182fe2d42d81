package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions            *prometheus.CounterVec
	Validations            *prometheus.CounterVec
	ProviderErrors         *prometheus.CounterVec
	ProviderRequestSeconds *prometheus.HistogramVec
	ActiveMonitors         prometheus.Gauge
	SignificantMovements   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_location_resolutions_total",
			Help: "Total number of location resolutions, by method used.",
		}, []string{"method"}),
		Validations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_location_validations_total",
			Help: "Total number of geofence validations, by resulting risk level.",
		}, []string{"risk"}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_provider_errors_total",
			Help: "Total number of errors received from external location providers.",
		}, []string{"provider"}),
		ProviderRequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_provider_request_duration_seconds",
			Help:    "Duration of requests to external location providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveMonitors: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "beacon_active_monitor_sessions",
			Help: "Current number of active continuous location monitor sessions.",
		}),
		SignificantMovements: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "beacon_significant_movements_total",
			Help: "Total number of significant movement events detected by monitors.",
		}),
	}
}
