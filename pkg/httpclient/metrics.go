package httpclient

import (
	"errors"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "Total number of outbound provider requests by outcome",
	}, []string{"provider", "outcome"})

	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "Outbound provider request latency in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"provider"})
)

func observe(provider string, start time.Time, err error) {
	if provider == "" {
		return
	}
	providerRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	providerRequestsTotal.WithLabelValues(provider, outcome(err)).Inc()
}

func outcome(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.As(err, &httpErr):
		return "http_error"
	default:
		return "error"
	}
}
