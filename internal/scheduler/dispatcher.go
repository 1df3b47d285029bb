package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/fitbot/internal/metrics"
	"github.com/example/fitbot/pkg/models"
	"github.com/rs/zerolog"
)

// SlotFormat keys a delivery ledger row to the minute a reminder fired in
const SlotFormat = "2006-01-02T15:04"

// Notifier sends a text message to a Telegram chat
type Notifier interface {
	SendReminder(ctx context.Context, chatID int64, text string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, chatID int64, text string) error

// SendReminder calls f
func (f NotifierFunc) SendReminder(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}

// DeliveryLedger remembers which reminders were already sent in a minute slot
type DeliveryLedger interface {
	Claim(ctx context.Context, reminderID int64, slot string, at time.Time) (bool, error)
	Release(ctx context.Context, reminderID int64, slot string) error
}

// DispatchReport summarizes one dispatch pass
type DispatchReport struct {
	Sent    int
	Failed  int
	Skipped int
}

// Dispatcher delivers due reminders one by one
type Dispatcher struct {
	notifier Notifier
	ledger   DeliveryLedger
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil ledger sends on every call.
func NewDispatcher(notifier Notifier, ledger DeliveryLedger, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, ledger: ledger, log: log}
}

// FormatReminder builds the message body sent to the user
func FormatReminder(text string) string {
	return "🔔 Напоминание:\n" + text
}

// Dispatch sends every due reminder. A failing item is logged and counted;
// the remaining items are still attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, slot time.Time, due []models.ScheduledReminder) DispatchReport {
	var report DispatchReport
	key := slot.Format(SlotFormat)

	for _, r := range due {
		if ctx.Err() != nil {
			d.log.Warn().Int("remaining", len(due)-report.Sent-report.Failed-report.Skipped).
				Msg("dispatch interrupted")
			break
		}

		if d.ledger != nil {
			claimed, err := d.ledger.Claim(ctx, r.ID, key, slot)
			if err != nil {
				d.fail(&report, r, fmt.Errorf("claim delivery: %w", err))
				continue
			}
			if !claimed {
				report.Skipped++
				metrics.RecordDelivery(metrics.ResultSkipped)
				d.log.Debug().Int64("reminder_id", r.ID).Str("slot", key).Msg("reminder already delivered")
				continue
			}
		}

		if err := d.send(ctx, r); err != nil {
			if d.ledger != nil {
				if rerr := d.ledger.Release(ctx, r.ID, key); rerr != nil {
					d.log.Error().Err(rerr).Int64("reminder_id", r.ID).Msg("failed to release delivery claim")
				}
			}
			d.fail(&report, r, err)
			continue
		}

		report.Sent++
		metrics.RecordDelivery(metrics.ResultSent)
		d.log.Info().
			Int64("reminder_id", r.ID).
			Int64("chat_id", r.TelegramID).
			Msg("reminder delivered")
	}
	return report
}

// send isolates a panicking notifier to the current item
func (d *Dispatcher) send(ctx context.Context, r models.ScheduledReminder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panic: %v", p)
		}
	}()
	return d.notifier.SendReminder(ctx, r.TelegramID, FormatReminder(r.Text))
}

func (d *Dispatcher) fail(report *DispatchReport, r models.ScheduledReminder, err error) {
	report.Failed++
	metrics.RecordDelivery(metrics.ResultFailed)
	d.log.Error().
		Err(err).
		Int64("reminder_id", r.ID).
		Int64("chat_id", r.TelegramID).
		Msg("reminder delivery failed")
}
