package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LocationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_location_updates_total",
		Help: "Location update transactions by result",
	}, []string{"result"})
	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_alerts_total",
		Help: "Geofence alerts raised by kind",
	}, []string{"kind"})
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_status_transitions_total",
		Help: "Status changes by target status and source",
	}, []string{"status", "source"})
	EventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_event_publish_errors_total",
		Help: "Location events that could not be handed to the transport",
	})
	ProviderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracking_distance_provider_latency_seconds",
		Help:    "Latency of route distance provider calls",
		Buckets: prometheus.DefBuckets,
	})
	DistanceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_distance_cache_lookups_total",
		Help: "Distance cache lookups by outcome",
	}, []string{"outcome"})
)

func ObserveProviderLatency(start time.Time) {
	ProviderLatency.Observe(time.Since(start).Seconds())
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
