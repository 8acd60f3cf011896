package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	RequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standalone_viewer_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	RequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "standalone_viewer_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Viewer metrics
var (
	FetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standalone_viewer_fetch_total",
		Help: "Fetch-and-parse runs by outcome (studies, retrieval, error)",
	}, []string{"outcome"})

	RegisteredInstances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "standalone_viewer_registered_instances_total",
		Help: "Instances registered with the metadata provider",
	})

	ImageCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standalone_viewer_image_cache_total",
		Help: "Image payload cache lookups by result (hit, miss)",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "standalone_viewer_active_sessions",
		Help: "Open view sessions",
	})
)
