package scheduler

import (
	"reflect"
	"testing"
	"time"

	"github.com/example/fitbot/pkg/models"
)

// 2026-03-02 is a Monday
func monday(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 2, hour, min, sec, 0, time.UTC)
}

func reminder(id int64, day, clock string) models.ScheduledReminder {
	return models.ScheduledReminder{
		Reminder: models.Reminder{
			ID:        id,
			UserID:    id,
			Text:      "Тренировка",
			TimeOfDay: clock,
			DayOfWeek: day,
		},
		TelegramID: 1000 + id,
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		now      time.Time
		reminder models.ScheduledReminder
		want     bool
	}{
		{"exact minute", monday(8, 0, 0), reminder(1, "Monday", "08:00:00"), true},
		{"end of minute", monday(8, 0, 59), reminder(1, "Monday", "08:00:00"), true},
		{"next minute", monday(8, 1, 0), reminder(1, "Monday", "08:00:00"), false},
		{"previous minute", monday(7, 59, 59), reminder(1, "Monday", "08:00:00"), false},
		{"russian label", monday(8, 0, 0), reminder(1, "понедельник", "08:00:00"), true},
		{"capitalized russian label", monday(8, 0, 0), reminder(1, "Понедельник", "08:00"), true},
		{"stored seconds ignored", monday(8, 0, 10), reminder(1, "Monday", "08:00:45"), true},
		{"wrong day", monday(8, 0, 0), reminder(1, "Tuesday", "08:00:00"), false},
		{"wrong hour", monday(9, 0, 0), reminder(1, "Monday", "08:00:00"), false},
		{"sunday is not monday", monday(8, 0, 0), reminder(1, "воскресенье", "08:00:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			due, malformed := Match(tt.now, []models.ScheduledReminder{tt.reminder})
			if malformed != 0 {
				t.Fatalf("malformed = %d, want 0", malformed)
			}
			if got := len(due) == 1; got != tt.want {
				t.Errorf("selected = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchUsesLocationOfNow(t *testing.T) {
	t.Parallel()

	moscow := time.FixedZone("MSK", 3*60*60)
	// 05:00 UTC is 08:00 in Moscow
	now := time.Date(2026, 3, 2, 5, 0, 30, 0, time.UTC).In(moscow)

	due, _ := Match(now, []models.ScheduledReminder{reminder(1, "Monday", "08:00:00")})
	if len(due) != 1 {
		t.Errorf("expected reminder to match in Moscow time, got %d", len(due))
	}
}

func TestMatchSkipsBannedOwners(t *testing.T) {
	t.Parallel()

	banned := reminder(1, "Monday", "08:00:00")
	banned.IsBanned = true
	active := reminder(2, "Monday", "08:00:00")

	due, _ := Match(monday(8, 0, 0), []models.ScheduledReminder{banned, active})
	if len(due) != 1 || due[0].ID != 2 {
		t.Errorf("due = %+v, want only reminder 2", due)
	}
}

func TestMatchCountsMalformedRows(t *testing.T) {
	t.Parallel()

	rows := []models.ScheduledReminder{
		reminder(1, "Monday", "8 o'clock"),
		reminder(2, "Funday", "08:00:00"),
		reminder(3, "Monday", "24:00:00"),
		reminder(4, "Monday", "08:00:00"),
	}

	due, malformed := Match(monday(8, 0, 0), rows)
	if malformed != 3 {
		t.Errorf("malformed = %d, want 3", malformed)
	}
	if len(due) != 1 || due[0].ID != 4 {
		t.Errorf("due = %+v, want only reminder 4", due)
	}
}

func TestMatchIsIdempotent(t *testing.T) {
	t.Parallel()

	rows := []models.ScheduledReminder{
		reminder(1, "Monday", "08:00:00"),
		reminder(2, "понедельник", "08:00:00"),
		reminder(3, "Monday", "09:00:00"),
	}
	snapshot := append([]models.ScheduledReminder(nil), rows...)
	now := monday(8, 0, 15)

	first, _ := Match(now, rows)
	second, _ := Match(now, rows)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(rows, snapshot) {
		t.Error("Match mutated its input")
	}
	if len(first) != 2 {
		t.Errorf("len(due) = %d, want 2", len(first))
	}
}
