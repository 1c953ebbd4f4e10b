// Package metrics provides Prometheus metrics for the chatwatcher daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatwatcher"

// Ingestion metrics track message flow through both paths.
var (
	// MessagesIndexed counts messages written to the sink, by ingestion path.
	MessagesIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_indexed_total",
		Help:      "Messages written to the sink, labeled by ingestion path",
	}, []string{"path"})

	// MessagesDeleted counts delete notifications applied to the sink.
	MessagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_deleted_total",
		Help:      "Message deletions applied to the sink",
	})

	// MessagesDiscarded counts events from unmonitored chats.
	MessagesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_discarded_total",
		Help:      "Events discarded because the chat is not monitored",
	})

	// SinkErrors counts failed sink writes.
	SinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Failed sink writes",
	})
)

// Poller metrics track the pull path.
var (
	// PollErrors counts per-chat failures during poll ticks.
	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Per-chat failures during poll ticks",
	})

	// PollTickDuration observes the duration of a full poll pass.
	PollTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_tick_duration_seconds",
		Help:      "Duration of one poll pass over all monitored chats",
		Buckets:   prometheus.DefBuckets,
	})
)

// Recovery metrics track staleness handling.
var (
	// ResyncAttempts counts resync attempts by classified outcome.
	ResyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resync_attempts_total",
		Help:      "Resync attempts, labeled by outcome",
	}, []string{"status"})

	// MonitoredChats is the number of chats in the registry.
	MonitoredChats = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "monitored_chats",
		Help:      "Number of monitored chats in the current session",
	})

	// LastEventAge is the seconds elapsed since the last attributed push
	// event.
	LastEventAge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_event_age_seconds",
		Help:      "Seconds since the last attributed push event",
	})
)

// Ingestion path label values.
const (
	PathPush = "push"
	PathPoll = "poll"
)

// Handler returns an HTTP handler serving the default metrics registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
