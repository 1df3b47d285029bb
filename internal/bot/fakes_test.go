package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/fitbot/internal/config"
	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	adminTelegramID = 1
	userTelegramID  = 2
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	sendErrs []error
	updates  chan tgbotapi.Update
	stopped  bool

	// beforeSend runs outside mu; set it before the bot starts sending
	beforeSend func(chatID int64)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok && f.beforeSend != nil {
		f.beforeSend(msg.ChatID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// failNextSends queues errors returned by the following Send calls
func (f *fakeAPI) failNextSends(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErrs = append(f.sendErrs, errs...)
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	if len(msgs) == 0 {
		t.Fatal("no messages sent")
	}
	return msgs[len(msgs)-1]
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	return f.lastMessage(t).Text
}

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time           { return c.now }
func (c fakeClock) Location() *time.Location { return c.now.Location() }

type testEnv struct {
	bot   *Bot
	api   *fakeAPI
	store *database.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	store := database.NewStore(db)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Telegram: config.Telegram{
			SendRate:     1000,
			PollTimeout:  1,
			AdminUserIDs: []int64{adminTelegramID},
		},
	}
	api := newFakeAPI()
	clock := fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	return &testEnv{bot: newBot(api, cfg, store, clock), api: api, store: store}
}

// say delivers a text message from telegramID and fails the test on handler errors
func (e *testEnv) say(t *testing.T, telegramID int64, text string) {
	t.Helper()
	if err := e.bot.HandleMessage(context.Background(), textMessage(telegramID, text)); err != nil {
		t.Fatalf("HandleMessage(%q) error = %v", text, err)
	}
}

func (e *testEnv) press(t *testing.T, telegramID int64, data string) {
	t.Helper()
	if err := e.bot.HandleCallback(context.Background(), callbackQuery(telegramID, data)); err != nil {
		t.Fatalf("HandleCallback(%q) error = %v", data, err)
	}
}

func (e *testEnv) user(t *testing.T, telegramID int64) *models.User {
	t.Helper()
	u, err := e.store.Users.GetByTelegramID(context.Background(), telegramID)
	if err != nil {
		t.Fatalf("GetByTelegramID(%d) error = %v", telegramID, err)
	}
	return u
}

func textMessage(telegramID int64, text string) *tgbotapi.Message {
	m := &tgbotapi.Message{
		From: &tgbotapi.User{ID: telegramID, FirstName: "Test"},
		Chat: &tgbotapi.Chat{ID: telegramID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return m
}

func callbackQuery(telegramID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: telegramID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: telegramID}},
		Data:    data,
	}
}
