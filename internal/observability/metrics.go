package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medscan",
		Name:      "uploads_total",
		Help:      "Image uploads by result (accepted, rejected, storage_error, persistence_error)",
	}, []string{"result"})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medscan",
		Name:      "analyses_total",
		Help:      "Finished analyses by outcome and failure kind",
	}, []string{"outcome", "kind"})

	AnalysesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medscan",
		Name:      "analyses_in_flight",
		Help:      "Analyses dispatched but not yet finalized",
	})

	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "medscan",
		Name:      "inference_duration_seconds",
		Help:      "Duration of AI gateway calls",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medscan",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status class",
	}, []string{"method", "status"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medscan",
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medscan",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
