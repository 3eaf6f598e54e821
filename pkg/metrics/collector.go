package metrics

import (
	"context"
	"time"

	"github.com/Kamron201111/telegram-stars-bot/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Orders created, labeled by whether they were stored or degraded",
		},
		[]string{"outcome"},
	)
	storeDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_degraded_total",
			Help: "Store operations that fell back to a non-durable result",
		},
		[]string{"store", "operation"},
	)
	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_conversations",
			Help: "Current number of purchase conversations in progress",
		},
	)
	conversationsByStep = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversations_by_step",
			Help: "Number of conversations per step",
		},
		[]string{"step"},
	)
)

var trackedSteps = []state.Step{
	state.StepAwaitingUsername,
	state.StepAwaitingPayment,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// RecordOrder counts an order by outcome ("stored" or "degraded").
func RecordOrder(outcome string) {
	ordersTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreDegraded counts a store call that fell back to degraded mode.
func RecordStoreDegraded(store, op string) {
	storeDegradedTotal.WithLabelValues(store, op).Inc()
}

// StateCollector periodically gathers conversation counts and emits gauge metrics.
type StateCollector struct {
	storage  state.Storage
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the conversation storage.
func NewStateCollector(storage state.Storage) *StateCollector {
	return &StateCollector{storage: storage, interval: 10 * time.Second}
}

// Run polls the storage every 10 seconds until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	conversations, err := c.storage.List(ctx)
	if err != nil {
		return err
	}

	activeConversations.Set(float64(len(conversations)))

	counts := make(map[state.Step]int, len(trackedSteps))
	for _, conv := range conversations {
		counts[conv.Step]++
	}

	conversationsByStep.Reset()
	for _, step := range trackedSteps {
		conversationsByStep.WithLabelValues(string(step)).Set(float64(counts[step]))
	}

	return nil
}
