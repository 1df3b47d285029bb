package bot

import (
	"context"
	"time"

	"github.com/example/fitbot/pkg/models"
)

// Statistics periods
const (
	periodDay   = "day"
	periodWeek  = "week"
	periodMonth = "month"
	periodAll   = "all"
)

var periodTitles = map[string]string{
	periodDay:   "за сегодня",
	periodWeek:  "за неделю",
	periodMonth: "за месяц",
	periodAll:   "за всё время",
}

// periodStart returns the lower bound of a period; zero means no bound
func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case periodDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case periodWeek:
		return now.AddDate(0, 0, -7), true
	case periodMonth:
		return now.AddDate(0, -1, 0), true
	case periodAll:
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}

func (b *Bot) handleStats(chatID int64) error {
	b.reply(chatID, "📊 Выберите период:", createKeyboard(statsPeriodButtons()))
	return nil
}

func (b *Bot) handleStatsPeriod(ctx context.Context, user *models.User, chatID int64, period string) error {
	since, ok := periodStart(period, b.now())
	if !ok {
		return nil
	}
	summary, err := b.store.Statistics.Summary(ctx, user.ID, since)
	if err != nil {
		return err
	}
	if summary.Count == 0 {
		b.reply(chatID, "📊 Нет тренировок "+periodTitles[period]+".", nil)
		return nil
	}
	b.reply(chatID, "📊 Статистика "+periodTitles[period]+":\n\n"+formatSummary(summary), nil)
	return nil
}
