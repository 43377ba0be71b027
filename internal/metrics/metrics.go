package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_http_requests_total",
		Help: "Total HTTP requests by method, route and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calculator_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "path"})

	// Image validation
	ImageValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_image_validations_total",
		Help: "Image validations by outcome (ok, invalid_image, unsupported_format, image_too_large)",
	}, []string{"outcome"})

	// Upstream model calls
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_upstream_requests_total",
		Help: "Model attempts by model and outcome",
	}, []string{"model", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calculator_upstream_latency_seconds",
		Help:    "Latency of a single model attempt",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"model"})

	UpstreamFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_upstream_fallbacks_total",
		Help: "Times a failed model was skipped in favor of the next one",
	}, []string{"from_model"})

	// Pipeline
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_calculations_total",
		Help: "Calculate requests by final status and error kind",
	}, []string{"status", "kind"})

	ExpressionsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calculator_expressions_returned",
		Help:    "Number of expression results per successful calculation",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})

	// Client error reports
	FrontendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calculator_frontend_errors_total",
		Help: "Error reports received on /log-error",
	})
)
