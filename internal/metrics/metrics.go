package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the bot's hot paths, exposed on /metrics.
var (
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "updates_total",
		Help:      "Incoming Telegram updates by kind.",
	}, []string{"kind"})

	TastingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "tastings_created_total",
		Help:      "Tastings committed to storage.",
	})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "analytics_events_dropped_total",
		Help:      "Analytics events lost to insert failures.",
	})

	ThrottledTapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "pagination_taps_throttled_total",
		Help:      "Show-more taps suppressed by the per-user rate limit.",
	})

	SendFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "edit_send_fallbacks_total",
		Help:      "Message edits that fell back to sending a new message.",
	})

	HandlerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teataster",
		Name:      "handler_panics_total",
		Help:      "Panics recovered while handling an update.",
	})
)
