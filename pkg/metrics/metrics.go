package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slayerpanel"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "discord_requests_total", Help: "Discord API calls by call name and outcome."},
		[]string{"call", "outcome"},
	)
	SettingsWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "settings_writes_total", Help: "Settings upserts by document kind and outcome."},
		[]string{"kind", "outcome"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(UpstreamRequests)
	reg.MustRegister(SettingsWrites)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveUpstream counts one Discord API call.
func ObserveUpstream(call string, err error) {
	UpstreamRequests.WithLabelValues(call, outcome(err)).Inc()
}

// ObserveSettingsWrite counts one settings upsert.
func ObserveSettingsWrite(kind string, err error) {
	SettingsWrites.WithLabelValues(kind, outcome(err)).Inc()
}
