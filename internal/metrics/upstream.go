package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymdesk",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the hypermedia API.",
		},
		[]string{"method", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gymdesk",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Hypermedia API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "link_resolutions_total",
			Help:      "Settled link dereferences by outcome.",
		},
		[]string{"outcome"},
	)

	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gymdesk",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
	)
)

// InstrumentTransport wraps next so every upstream round trip is counted and
// timed. Network failures are recorded with status "error".
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		upstreamRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		upstreamRequestsTotal.WithLabelValues(req.Method, status).Inc()
		return resp, err
	})
}

// ObserveResolution records the outcome of one link dereference.
func ObserveResolution(failed bool) {
	outcome := "resolved"
	if failed {
		outcome = "failed"
	}
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

// SetBreakerState records the numeric circuit breaker state.
func SetBreakerState(state int) {
	breakerState.Set(float64(state))
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
