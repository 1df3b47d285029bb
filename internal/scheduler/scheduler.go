// Package scheduler runs the minute-granular reminder loop.
//
// Every tick loads all reminders of users who are not banned, picks the
// ones matching the current minute in the configured timezone and sends
// one message per match. Ticks never overlap and a failing tick never
// stops the loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/internal/config"
	"github.com/example/fitbot/internal/logging"
	"github.com/example/fitbot/internal/metrics"
	"github.com/example/fitbot/pkg/models"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const (
	// ledger rows older than this are pruned
	ledgerRetention = 7 * 24 * time.Hour
	pruneAt         = "03:00"
)

// ReminderSource provides the reminder snapshot for a tick
type ReminderSource interface {
	ListScheduled(ctx context.Context) ([]models.ScheduledReminder, error)
}

// Ledger is a DeliveryLedger that can drop old entries
type Ledger interface {
	DeliveryLedger
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation overrides the configured timezone
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithLogger replaces the component logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithLedger sets the delivery ledger used when dedup is enabled
func WithLedger(l Ledger) Option {
	return func(s *Scheduler) { s.ledger = l }
}

// Scheduler manages the reminder tick job
type Scheduler struct {
	source   ReminderSource
	notifier Notifier
	ledger   Ledger
	dedup    bool
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger

	mu     sync.Mutex
	cron   *gocron.Scheduler
	cancel context.CancelFunc
}

// New creates a new scheduler instance
func New(cfg config.Reminders, source ReminderSource, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		notifier: notifier,
		dedup:    cfg.Dedup,
		interval: cfg.Interval(),
		loc:      cfg.Location(),
		now:      time.Now,
		log:      logging.WithComponent("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	if s.dedup && s.ledger == nil {
		s.log.Warn().Msg("reminder dedup requested without a ledger, sending on every match")
		s.dedup = false
	}
	return s
}

// Location returns the timezone reminders are evaluated in
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Now returns the current time in the scheduler's timezone
func (s *Scheduler) Now() time.Time {
	return s.now().In(s.loc)
}

// Start schedules the tick job and returns immediately. The first tick
// runs right away.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cron := gocron.NewScheduler(s.loc)

	_, err := cron.Every(s.interval).SingletonMode().StartImmediately().Do(func() {
		_ = s.Tick(ctx)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule reminder tick: %w", err)
	}

	if s.dedup {
		_, err = cron.Every(1).Day().At(pruneAt).SingletonMode().Do(func() {
			s.pruneLedger(ctx)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("failed to schedule ledger pruning: %w", err)
		}
	}

	cron.StartAsync()
	s.cron = cron
	s.cancel = cancel

	s.log.Info().
		Dur("interval", s.interval).
		Str("timezone", s.loc.String()).
		Bool("dedup", s.dedup).
		Msg("reminder scheduler started")
	return nil
}

// Stop cancels the in-flight tick and terminates all scheduled jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.cron = nil
	s.cancel = nil
	s.log.Info().Msg("reminder scheduler stopped")
}

// Serve runs the scheduler until ctx is done
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// String names the service in supervisor logs
func (s *Scheduler) String() string {
	return "reminder-scheduler"
}

// Tick runs one scan: load, match, dispatch. Errors and panics are logged,
// counted and returned; they never propagate further.
func (s *Scheduler) Tick(ctx context.Context) (err error) {
	started := time.Now()
	log := s.log.With().Str("tick_id", logging.NewCorrelationID()).Logger()
	metrics.SchedulerTicks.Inc()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tick panic: %v", p)
		}
		metrics.SchedulerTickDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			metrics.SchedulerTickErrors.Inc()
			log.Error().Err(err).Msg("reminder tick failed")
		}
	}()

	now := s.Now()
	slot := calendar.TruncateToMinute(now)

	reminders, err := s.source.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	due, malformed := Match(now, reminders)
	if malformed > 0 {
		log.Warn().Int("malformed", malformed).Msg("skipped reminders with invalid day or time")
	}
	metrics.RemindersMatched.Add(float64(len(due)))

	var ledger DeliveryLedger
	if s.dedup {
		ledger = s.ledger
	}
	report := NewDispatcher(s.notifier, ledger, log).Dispatch(ctx, slot, due)

	event := log.Debug()
	if len(due) > 0 {
		event = log.Info()
	}
	event.
		Time("slot", slot).
		Int("scanned", len(reminders)).
		Int("due", len(due)).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("took", time.Since(started)).
		Msg("reminder tick finished")
	return nil
}

func (s *Scheduler) pruneLedger(ctx context.Context) {
	cutoff := s.now().UTC().Add(-ledgerRetention)
	n, err := s.ledger.Prune(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to prune delivery ledger")
		return
	}
	s.log.Info().Int64("deleted", n).Time("before", cutoff).Msg("delivery ledger pruned")
}
