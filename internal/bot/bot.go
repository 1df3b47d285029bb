// Package bot implements the Telegram side of FitBot: the update loop,
// the conversation handlers and the reminder notifier used by the scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/example/fitbot/internal/config"
	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/internal/logging"
	"github.com/example/fitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// handlerTimeout bounds the work done for one update
const handlerTimeout = 30 * time.Second

const (
	msgGenericError = "❌ Произошла ошибка. Попробуйте позже."
	msgBanned       = "⛔ Ваш аккаунт заблокирован администратором."
	msgNotAdmin     = "⛔ Эта команда доступна только администраторам."
	msgNeedStart    = "Сначала зарегистрируйтесь командой /start"
	msgUnknown      = "🤔 Не понимаю. Воспользуйтесь меню или /help."
)

// botAPI is the part of *tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Clock reports the current time in the reminder timezone
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Bot represents the Telegram bot application
type Bot struct {
	api     botAPI
	store   *database.Store
	config  *config.Config
	clock   Clock
	states  *stateStore
	locks   *userLocks
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	log     zerolog.Logger

	handlers sync.WaitGroup
	stopOnce sync.Once
}

// New connects to the Bot API and creates a bot instance
func New(cfg *config.Config, store *database.Store, clock Clock) (*Bot, error) {
	client := &http.Client{Timeout: cfg.Telegram.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, cfg, store, clock)
	b.log.Info().Str("username", api.Self.UserName).Msg("authorized on account")
	return b, nil
}

func newBot(api botAPI, cfg *config.Config, store *database.Store, clock Clock) *Bot {
	log := logging.WithComponent("bot")
	burst := int(cfg.Telegram.SendRate)
	if burst < 1 {
		burst = 1
	}
	return &Bot{
		api:     api,
		store:   store,
		config:  cfg,
		clock:   clock,
		states:  newStateStore(),
		locks:   newUserLocks(),
		limiter: rate.NewLimiter(rate.Limit(cfg.Telegram.SendRate), burst),
		breaker: newSendBreaker(log),
		log:     log,
	}
}

// String names the service in supervisor logs
func (b *Bot) String() string {
	return "telegram-poller"
}

// Serve polls Telegram for updates until ctx is done. Every update is
// handled on its own goroutine; updates of one user run one at a time.
func (b *Bot) Serve(ctx context.Context) error {
	if err := b.RegisterCommands(); err != nil {
		b.log.Warn().Err(err).Msg("failed to register bot commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.Telegram.PollTimeout
	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Msg("polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.stopOnce.Do(b.api.StopReceivingUpdates)
			b.handlers.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.handlers.Wait()
				return errors.New("updates channel closed")
			}
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// RegisterCommands publishes the command menu shown by Telegram clients
func (b *Bot) RegisterCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Запустить бота"},
		tgbotapi.BotCommand{Command: "add", Description: "Добавить тренировку"},
		tgbotapi.BotCommand{Command: "workouts", Description: "Мои тренировки"},
		tgbotapi.BotCommand{Command: "stats", Description: "Статистика"},
		tgbotapi.BotCommand{Command: "remind", Description: "Напоминания"},
		tgbotapi.BotCommand{Command: "profile", Description: "Мой профиль"},
		tgbotapi.BotCommand{Command: "rename", Description: "Изменить имя"},
		tgbotapi.BotCommand{Command: "time", Description: "Время бота"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить действие"},
		tgbotapi.BotCommand{Command: "help", Description: "Помощь"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(parent context.Context, update tgbotapi.Update) {
	if id := senderID(update); id != 0 {
		defer b.locks.lock(id)()
	}

	ctx, cancel := context.WithTimeout(parent, handlerTimeout)
	defer cancel()

	var chatID int64
	defer func() {
		if p := recover(); p != nil {
			b.log.Error().Interface("panic", p).Int("update_id", update.UpdateID).Msg("update handler panicked")
			if chatID != 0 {
				b.reply(chatID, msgGenericError, nil)
			}
		}
	}()

	var err error
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		chatID = update.Message.Chat.ID
		err = b.HandleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
		err = b.HandleCallback(ctx, update.CallbackQuery)
	default:
		return
	}

	if err != nil {
		b.log.Error().Err(err).Int("update_id", update.UpdateID).Int64("chat_id", chatID).Msg("failed to handle update")
		b.reply(chatID, msgGenericError, nil)
	}
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// currentUser loads the sender and answers for unregistered or banned users.
// A nil user with a nil error means the update was already answered.
func (b *Bot) currentUser(ctx context.Context, chatID, telegramID int64) (*models.User, error) {
	user, err := b.store.Users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgNeedStart, nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		b.reply(chatID, msgBanned, tgbotapi.NewRemoveKeyboard(true))
		return nil, nil
	}
	return user, nil
}

// reply sends a message; markup may be nil
func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) showMainMenu(chatID int64, user *models.User, text string) {
	b.reply(chatID, text, mainMenu(user.IsAdmin))
}

func (b *Bot) now() time.Time {
	return b.clock.Now()
}
