package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/pkg/models"
)

// zeroTime selects the whole history in summaries
var zeroTime time.Time

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// shortTime renders a stored HH:MM:SS value as HH:MM
func shortTime(stored string) string {
	c, err := calendar.ParseClock(stored)
	if err != nil {
		return stored
	}
	return c.Short()
}

// parseNumber accepts both "5.5" and "5,5". NaN and infinities are rejected.
func parseNumber(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("number %q is not finite", text)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSummary(s *models.WorkoutSummary) string {
	return fmt.Sprintf("🔢 Тренировок: %d\n⏱ Время: %s мин\n🔥 Калории: %s ккал\n📏 Дистанция: %s км",
		s.Count, formatNumber(s.TotalDuration), formatNumber(s.TotalCalories), formatNumber(s.TotalDistance))
}

func formatExercise(ex *models.Exercise) string {
	return fmt.Sprintf("Название: %s\nПодходы: %d\nПовторения: %d\nВес: %d кг", ex.Name, ex.Sets, ex.Reps, ex.Weight)
}

func formatWorkout(w *models.Workout, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s, %s\n", w.ID, workoutTypeLabel(w.Type), w.PerformedAt.In(loc).Format("02.01.2006 15:04"))
	fmt.Fprintf(&sb, "⏱ %s мин | 🔥 %s ккал", formatNumber(w.Duration), formatNumber(w.Calories))
	if w.Type.HasDistance() {
		fmt.Fprintf(&sb, " | 📏 %s км", formatNumber(w.Distance))
	}
	for _, ex := range w.Exercises {
		fmt.Fprintf(&sb, "\n  • %s: %d×%d, %d кг", ex.Name, ex.Sets, ex.Reps, ex.Weight)
	}
	if w.Notes != "" {
		fmt.Fprintf(&sb, "\n📝 %s", w.Notes)
	}
	return sb.String()
}

func formatReminder(r *models.Reminder) string {
	return fmt.Sprintf("🔔 %s в %s\n%s", calendar.DisplayWeekday(r.DayOfWeek), shortTime(r.TimeOfDay), r.Text)
}
