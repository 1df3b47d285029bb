package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/fitbot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// newSendBreaker trips after consecutive transport failures. Errors that
// concern a single recipient leave it closed.
func newSendBreaker(log zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "telegram-send",
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isRecipientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.TelegramBreakerState.Set(float64(to))
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// isRecipientError reports whether Telegram rejected the message because of
// the chat itself: the user blocked the bot or the chat does not exist.
func isRecipientError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusBadRequest
}

// SendReminder implements scheduler.Notifier
func (b *Bot) SendReminder(ctx context.Context, chatID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := b.breaker.Execute(func() (any, error) {
		msg, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
		return msg, err
	})
	if err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
