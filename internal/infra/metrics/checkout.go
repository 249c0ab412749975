package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		checkoutRevenueTotal,
	)
}

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkouts by outcome (completed/pending/failed).",
		},
		[]string{"outcome"},
	)

	checkoutRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_revenue_total",
			Help: "Total net value of transactions whose entitlements were granted.",
		},
	)
)

func IncCheckout(outcome string) {
	checkoutsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddRevenue(amount int64) {
	checkoutRevenueTotal.Add(float64(amount))
}
