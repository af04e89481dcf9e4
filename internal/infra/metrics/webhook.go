package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookDurationMs,
		websiteTransitionsTotal,
		notificationFailuresTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by event type and outcome (ok/ignored/bad_signature/no_match/error).",
		},
		[]string{"event", "outcome"},
	)

	webhookDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_ms",
			Help:    "Webhook handling latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	websiteTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "website_transitions_total",
			Help: "Website activations/suspensions applied by the activator.",
		},
		[]string{"to"},
	)

	notificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Failed notification sends by channel (email/whatsapp).",
		},
		[]string{"channel"},
	)
)

func IncWebhookEvent(event, outcome string) {
	webhookEventsTotal.WithLabelValues(event, outcome).Inc()
}

func ObserveWebhookDuration(ms float64) {
	webhookDurationMs.Observe(ms)
}

func IncWebsiteTransition(to string) {
	websiteTransitionsTotal.WithLabelValues(to).Inc()
}

func IncNotificationFailure(channel string) {
	notificationFailuresTotal.WithLabelValues(channel).Inc()
}
