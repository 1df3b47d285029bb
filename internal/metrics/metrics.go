// Package metrics exposes Prometheus collectors for the reminder pipeline.
//
// Scheduler:
//   - fitbot_scheduler_ticks_total: ticks started (counter)
//   - fitbot_scheduler_tick_errors_total: ticks that failed before dispatch (counter)
//   - fitbot_scheduler_tick_duration_seconds: tick latency (histogram)
//   - fitbot_reminders_matched_total: reminders due across all ticks (counter)
//   - fitbot_reminder_deliveries_total: delivery attempts (counter), label result=sent|failed|skipped
//
// Telegram:
//   - fitbot_telegram_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery result label values
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

var (
	SchedulerTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitbot_scheduler_ticks_total",
			Help: "Total number of reminder scheduler ticks",
		},
	)

	SchedulerTickErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitbot_scheduler_tick_errors_total",
			Help: "Total number of scheduler ticks that failed",
		},
	)

	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitbot_scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler tick in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	RemindersMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitbot_reminders_matched_total",
			Help: "Total number of reminders found due",
		},
	)

	ReminderDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitbot_reminder_deliveries_total",
			Help: "Total number of reminder delivery attempts by result",
		},
		[]string{"result"},
	)

	TelegramBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitbot_telegram_breaker_state",
			Help: "Telegram send circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordDelivery increments the delivery counter for a result
func RecordDelivery(result string) {
	ReminderDeliveries.WithLabelValues(result).Inc()
}
