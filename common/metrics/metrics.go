package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by the catalog service and
// the notifier.
type Metrics struct {
	Registry *prometheus.Registry

	RevisionsCreated     *prometheus.CounterVec
	EntityFetches        *prometheus.CounterVec
	UpdateDuration       *prometheus.HistogramVec
	EventsPublished      prometheus.Counter
	NotificationsUpserts prometheus.Counter
	FanoutFailures       prometheus.Counter
	FanoutDropped        prometheus.Counter
}

// New creates and registers all collectors on a fresh registry
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RevisionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_revisions_created_total",
			Help: "Revisions created, by entity type and operation.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}, []string{"entity_type", "op"}),
		EntityFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_entity_fetches_total",
			Help: "Entity aggregate fetches, by entity type and result.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}, []string{"entity_type", "result"}),
		UpdateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_update_duration_seconds",
			Help:    "Duration of revision update transactions.",
			Buckets: prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}, []string{"entity_type"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_change_events_published_total",
			Help: "Change events published to the queue.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}),
		NotificationsUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_notifications_upserted_total",
			Help: "Notification rows inserted or updated.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}),
		FanoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_fanout_failures_total",
			Help: "Per-subscriber upserts that failed and were swallowed.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}),
		FanoutDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_fanout_dropped_total",
			Help: "Fan-out tasks dropped because the work queue was full.",
			ConstLabels: prometheus.Labels{
				"service": serviceName,
			},
		}),
	}

	registry.MustRegister(
		m.RevisionsCreated,
		m.EntityFetches,
		m.UpdateDuration,
		m.EventsPublished,
		m.NotificationsUpserts,
		m.FanoutFailures,
		m.FanoutDropped,
	)

	return m
}
