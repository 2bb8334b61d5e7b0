package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed counts inbound user messages by terminal dialog state.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_messages_processed_total",
			Help: "Total number of processed user messages",
		},
		[]string{"state"},
	)

	// ClassificationsTotal counts classifier calls by resolved intent and outcome.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_classifications_total",
			Help: "Total number of intent classification attempts",
		},
		[]string{"intent", "outcome"},
	)

	// ClassificationDuration observes end-to-end classifier latency.
	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadbot_classification_duration_seconds",
			Help:    "Duration of intent classification calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// DialogTransitions counts state machine transitions.
	DialogTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_dialog_transitions_total",
			Help: "Total number of dialog state transitions",
		},
		[]string{"from", "to"},
	)

	// LeadsPersisted counts finished dialogs written to a lead sink.
	LeadsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_leads_persisted_total",
			Help: "Total number of leads written to sinks",
		},
		[]string{"sink", "status"},
	)

	// PhoneValidationFailures counts rejected phone inputs.
	PhoneValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadbot_phone_validation_failures_total",
			Help: "Total number of phone numbers that failed normalization",
		},
	)

	// TokenRefreshes counts access token fetches by result.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_token_refreshes_total",
			Help: "Total number of GigaChat access token refreshes",
		},
		[]string{"status"},
	)
)
