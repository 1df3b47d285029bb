package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day without a date
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts H:MM, HH:MM and HH:MM:SS
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid time of day %q", s)
	}

	values := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Clock{}, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = n
	}

	c := Clock{Hour: values[0], Minute: values[1], Second: values[2]}
	if c.Hour > 23 || c.Minute > 59 || c.Second > 59 {
		return Clock{}, fmt.Errorf("time of day %q out of range", s)
	}
	return c, nil
}

// ClockOf extracts the time of day of t in its own location
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// String formats the clock the way it is stored
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Short formats the clock as HH:MM for display
func (c Clock) Short() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// SameMinute compares two clocks at minute precision
func (c Clock) SameMinute(o Clock) bool {
	return c.Hour == o.Hour && c.Minute == o.Minute
}

// TruncateToMinute zeroes seconds and nanoseconds in t's own location.
// time.Truncate works on absolute time and misaligns in zones with second offsets.
func TruncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
