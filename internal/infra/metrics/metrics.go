// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Count of handled bot commands by name.",
		},
		[]string{"command"},
	)

	membersUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "members_upserted_total",
			Help: "Count of membership records inserted or replaced.",
		},
	)

	channelsUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "channels_upserted_total",
			Help: "Count of channel records inserted or replaced.",
		},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder messages delivered during broadcast sweeps.",
		},
	)

	reminderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_failures_total",
			Help: "Reminder messages that failed to deliver.",
		},
	)

	reminderSendLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reminder_send_latency_ms",
			Help:    "Per-recipient reminder send latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			commandsTotal, membersUpserted, channelsUpserted,
			remindersSent, reminderFailures, reminderSendLatencyMs,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Command helpers --------

func IncCommand(command string) {
	commandsTotal.WithLabelValues(norm(strings.TrimPrefix(command, "/"))).Inc()
}

func IncMemberUpserted()  { membersUpserted.Inc() }
func IncChannelUpserted() { channelsUpserted.Inc() }

// -------- Reminder helpers --------

func ObserveReminderSend(latencyMs int64, success bool) {
	if success {
		remindersSent.Inc()
	} else {
		reminderFailures.Inc()
	}
	reminderSendLatencyMs.WithLabelValues(strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
