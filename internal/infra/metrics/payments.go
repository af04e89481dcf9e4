package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentsDegradedTotal,
		paymentsMatchFallbackTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by final status (pending/success/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_units_total",
			Help: "Captured revenue in minor units, by plan.",
		},
		[]string{"plan"},
	)

	paymentsDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_degraded_total",
			Help: "Payments recorded with the sentinel plan because the event carried no plan metadata.",
		},
	)

	paymentsMatchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_match_fallback_total",
			Help: "Heuristic amount+recency matcher runs by outcome (hit/miss).",
		},
		[]string{"outcome"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}

func AddRevenue(plan string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(plan).Add(float64(amount))
}

func IncDegradedMatch() {
	paymentsDegradedTotal.Inc()
}

func IncMatchFallback(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	paymentsMatchFallbackTotal.WithLabelValues(outcome).Inc()
}
