package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/fitbot/internal/bot"
	"github.com/example/fitbot/internal/config"
	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/internal/logging"
	"github.com/example/fitbot/internal/scheduler"
	"github.com/example/fitbot/internal/server"
	"github.com/example/fitbot/internal/supervisor"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("fitbot stopped with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err := tgbotapi.SetLogger(logging.NewBotLogger(logging.WithComponent("tgbotapi"))); err != nil {
		return err
	}

	// Подключаемся к базе данных
	db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	store := database.NewStore(db)
	defer store.Close()

	// бот и планировщик ссылаются друг на друга: часы берутся из планировщика
	var poller *bot.Bot
	sched := scheduler.New(cfg.Reminders, store.Reminders,
		scheduler.NotifierFunc(func(ctx context.Context, chatID int64, text string) error {
			return poller.SendReminder(ctx, chatID, text)
		}),
		scheduler.WithLedger(store.Deliveries),
	)
	poller, err = bot.New(cfg, store, sched)
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(logging.WithComponent("supervisor"), supervisor.TreeConfig{})
	tree.AddBotService(poller)
	tree.AddBotService(sched)
	if cfg.Metrics.Addr != "" {
		tree.AddOpsService(server.New(cfg.Metrics.Addr, store, logging.WithComponent("ops")))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("timezone", sched.Location().String()).
		Dur("interval", cfg.Reminders.Interval()).
		Bool("dedup", cfg.Reminders.Dedup).
		Msg("fitbot starting")

	err = tree.Serve(ctx)
	if report, _ := tree.UnstoppedServiceReport(); len(report) > 0 {
		logging.Error().Int("services", len(report)).Msg("services did not stop in time")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("fitbot stopped")
	return nil
}
