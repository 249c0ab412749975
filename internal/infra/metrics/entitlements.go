package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(entitlementGrantsTotal)
}

var entitlementGrantsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "entitlement_grants_total",
		Help: "Transactions whose entitlement grant was applied (exactly once each).",
	},
)

func IncEntitlementGrant() {
	entitlementGrantsTotal.Inc()
}
