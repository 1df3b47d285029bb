package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/fitbot/pkg/models"
	"github.com/rs/zerolog"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentMessage
	failFor  map[int64]error
	panicFor map[int64]bool
	calls    chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		failFor:  make(map[int64]error),
		panicFor: make(map[int64]bool),
		calls:    make(chan struct{}, 64),
	}
}

func (n *fakeNotifier) SendReminder(_ context.Context, chatID int64, text string) error {
	defer func() {
		select {
		case n.calls <- struct{}{}:
		default:
		}
	}()

	n.mu.Lock()
	err := n.failFor[chatID]
	shouldPanic := n.panicFor[chatID]
	if err == nil && !shouldPanic {
		n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	}
	n.mu.Unlock()

	if shouldPanic {
		panic("notifier exploded")
	}
	return err
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fakeSource struct {
	mu        sync.Mutex
	reminders []models.ScheduledReminder
	err       error
	calls     int
}

func (s *fakeSource) ListScheduled(context.Context) ([]models.ScheduledReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.ScheduledReminder(nil), s.reminders...), nil
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fakeLedger struct {
	mu       sync.Mutex
	claims   map[string]bool
	released int
	pruned   []time.Time
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claims: make(map[string]bool)}
}

func ledgerKey(id int64, slot string) string {
	return fmt.Sprintf("%d@%s", id, slot)
}

func (l *fakeLedger) Claim(_ context.Context, id int64, slot string, _ time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(id, slot)
	if l.claims[key] {
		return false, nil
	}
	l.claims[key] = true
	return true, nil
}

func (l *fakeLedger) Release(_ context.Context, id int64, slot string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, ledgerKey(id, slot))
	l.released++
	return nil
}

func (l *fakeLedger) Prune(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruned = append(l.pruned, before)
	return 0, nil
}

var errBoom = errors.New("boom")

// syncBuffer lets a logger be written from the gocron goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) count(msg string) int {
	return strings.Count(b.String(), `"message":"`+msg+`"`)
}

func captureLogger() (zerolog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return zerolog.New(buf), buf
}
