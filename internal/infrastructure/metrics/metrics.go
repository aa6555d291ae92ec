package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SynchronizationsStarted counts accepted bulk synchronization runs.
	SynchronizationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doppler_bridge_synchronizations_started_total",
		Help: "Number of bulk customer synchronizations started",
	})

	// SynchronizationsFailed counts bulk runs that failed before the
	// import was submitted.
	SynchronizationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doppler_bridge_synchronizations_failed_total",
		Help: "Number of bulk customer synchronizations that failed",
	})

	// SynchronizationsCompleted counts import-completed callbacks.
	SynchronizationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doppler_bridge_synchronizations_completed_total",
		Help: "Number of import-completed callbacks received",
	})

	// SynchronizedCustomers counts customers submitted for import.
	SynchronizedCustomers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doppler_bridge_synchronized_customers_total",
		Help: "Number of customers submitted to Doppler for import",
	})

	// WebhookEvents counts received Shopify webhooks by topic.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doppler_bridge_webhook_events_total",
		Help: "Number of Shopify webhook events received",
	}, []string{"topic"})
)
