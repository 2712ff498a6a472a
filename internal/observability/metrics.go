package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Push delivery outcomes.
const (
	PushDelivered = "delivered"
	PushGone      = "gone"
	PushFailed    = "failed"
	PushDropped   = "dropped"
)

var (
	// NotificationsCreated counts durable in-app notifications.
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventhub_notifications_created_total",
		Help: "Total number of in-app notifications created",
	})

	// PushDeliveries counts web-push attempts by outcome.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhub_push_deliveries_total",
		Help: "Total number of web push delivery attempts by outcome",
	}, []string{"outcome"})

	// PushSubscriptionsPruned counts subscriptions deleted after the endpoint reported gone.
	PushSubscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventhub_push_subscriptions_pruned_total",
		Help: "Total number of push subscriptions removed because the endpoint is gone",
	})

	// PushQueueDepth reports the number of push jobs waiting for a worker.
	PushQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventhub_push_queue_depth",
		Help: "Number of push jobs waiting for a worker",
	})

	// CascadeDeletes counts rows removed by cascading deletes by entity.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhub_cascade_deleted_rows_total",
		Help: "Rows removed by cascading deletes, by entity",
	}, []string{"entity"})
)
