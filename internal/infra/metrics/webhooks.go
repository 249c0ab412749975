package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookNotificationsTotal)
}

var webhookNotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Inbound provider notifications by verdict (accepted/ignored/rejected/unmatched).",
	},
	[]string{"verdict"},
)

func IncWebhook(verdict string) {
	webhookNotificationsTotal.WithLabelValues(norm(verdict)).Inc()
}
