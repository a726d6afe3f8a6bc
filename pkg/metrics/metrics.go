package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "waveline", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "waveline", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ContentWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "waveline", Name: "content_writes_total", Help: "Successful content mutations by resource and operation."},
		[]string{"resource", "op"},
	)
	SlugConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "waveline", Name: "slug_conflicts_total", Help: "Slug uniqueness conflicts surfaced to clients by resource."},
		[]string{"resource"},
	)
	MessagesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "waveline", Name: "messages_received_total", Help: "Contact-form messages accepted."},
	)
	FeedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "waveline", Name: "message_feed_subscribers", Help: "Currently connected inbox feed subscribers."},
	)
	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "waveline", Name: "login_failures_total", Help: "Rejected admin login attempts."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ContentWrites)
	reg.MustRegister(SlugConflicts)
	reg.MustRegister(MessagesReceived)
	reg.MustRegister(FeedSubscribers)
	reg.MustRegister(LoginFailures)
}
