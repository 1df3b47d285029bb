// Package calendar normalizes the day-of-week labels and clock times that
// reminders are stored with.
//
// Reminders are written with the canonical English weekday name. Older rows
// may carry the Russian name instead, so every read goes through ParseWeekday,
// which accepts both spellings regardless of case.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// russianWeekdays is indexed by time.Weekday
var russianWeekdays = [7]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

// weekdayLabels maps folded labels in both languages to weekdays
var weekdayLabels = buildWeekdayLabels()

func buildWeekdayLabels() map[string]time.Weekday {
	labels := make(map[string]time.Weekday, 14)
	for d := time.Sunday; d <= time.Saturday; d++ {
		labels[fold(d.String())] = d
		labels[fold(russianWeekdays[d])] = d
	}
	return labels
}

// fold applies Unicode case folding. A Caser is stateful, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ParseWeekday resolves an English or Russian day label
func ParseWeekday(label string) (time.Weekday, bool) {
	d, ok := weekdayLabels[fold(label)]
	return d, ok
}

// CanonicalWeekday converts any accepted label to the stored representation
func CanonicalWeekday(label string) (string, error) {
	d, ok := ParseWeekday(label)
	if !ok {
		return "", fmt.Errorf("unknown day of week %q", label)
	}
	return d.String(), nil
}

// RussianWeekday returns the display name used in bot messages
func RussianWeekday(d time.Weekday) string {
	return russianWeekdays[d]
}

// DisplayWeekday renders a stored label for users, keeping unknown labels as-is
func DisplayWeekday(label string) string {
	if d, ok := ParseWeekday(label); ok {
		return RussianWeekday(d)
	}
	return label
}

// WeekdaysMondayFirst lists the days in the order the reminder keyboard shows them
func WeekdaysMondayFirst() []time.Weekday {
	return []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
}
