package scheduler

import (
	"time"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/pkg/models"
)

// Match returns the reminders that fire in the minute containing now.
// A reminder fires when its time of day has the same hour and minute,
// its day label names now's weekday and its owner is not banned.
// Rows whose time or day cannot be parsed are skipped and counted as malformed.
func Match(now time.Time, reminders []models.ScheduledReminder) (due []models.ScheduledReminder, malformed int) {
	now = calendar.TruncateToMinute(now)
	current := calendar.ClockOf(now)
	weekday := now.Weekday()

	for _, r := range reminders {
		clock, err := calendar.ParseClock(r.TimeOfDay)
		if err != nil {
			malformed++
			continue
		}
		day, ok := calendar.ParseWeekday(r.DayOfWeek)
		if !ok {
			malformed++
			continue
		}
		if r.IsBanned || day != weekday || !clock.SameMinute(current) {
			continue
		}
		due = append(due, r)
	}
	return due, malformed
}
