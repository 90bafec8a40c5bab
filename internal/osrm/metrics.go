package osrm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes
const (
	resultOK          = "ok"
	resultLogical     = "logical_error"
	resultInvalid     = "invalid_response"
	resultTransport   = "transport_error"
	resultCircuitOpen = "circuit_open"
	resultCanceled    = "canceled"
)

var (
	routeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osrm_route_requests_total",
		Help: "Total number of route requests by outcome",
	}, []string{"result"})

	routeFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osrm_route_fetch_duration_seconds",
		Help:    "Time spent waiting on the OSRM route service",
		Buckets: prometheus.DefBuckets,
	})

	routeResponseBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osrm_route_response_bytes",
		Help:    "Size of route documents returned by OSRM",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
	})

	routeResponseCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osrm_route_response_codes_total",
		Help: "OSRM response codes seen in well-formed documents",
	}, []string{"code"})

	routeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osrm_route_cache_lookups_total",
		Help: "Route cache lookups by result (hit, miss, error)",
	}, []string{"result"})
)

func recordResult(result string) {
	routeRequestsTotal.WithLabelValues(result).Inc()
}
