package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	minNameLength = 2
	maxNameLength = 64
)

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	from := message.From

	user, err := b.store.Users.GetByTelegramID(ctx, from.ID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// Создаем пользователя при первом взаимодействии
		user = &models.User{
			TelegramID: from.ID,
			Name:       displayName(from),
			IsAdmin:    b.config.IsBootstrapAdmin(from.ID),
		}
		if err := b.store.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		b.log.Info().Int64("telegram_id", from.ID).Bool("admin", user.IsAdmin).Msg("user registered")

		text := fmt.Sprintf("👋 Добро пожаловать, %s!\n\n"+
			"Я помогу вести дневник тренировок:\n"+
			"🔹 записывайте тренировки\n"+
			"🔹 смотрите статистику\n"+
			"🔹 создавайте напоминания\n\n"+
			"Используйте меню ниже или /help.", user.Name)
		b.showMainMenu(chatID, user, text)
		return nil
	case err != nil:
		return err
	}

	if user.IsBanned {
		b.reply(chatID, msgBanned, tgbotapi.NewRemoveKeyboard(true))
		return nil
	}
	if !user.IsAdmin && b.config.IsBootstrapAdmin(from.ID) {
		if err := b.store.Users.SetAdmin(ctx, from.ID, true); err != nil {
			return err
		}
		user.IsAdmin = true
	}

	b.states.clear(from.ID)
	b.showMainMenu(chatID, user, fmt.Sprintf("С возвращением, %s! 💪", user.Name))
	return nil
}

func displayName(from *tgbotapi.User) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	if name == "" {
		name = fmt.Sprintf("user%d", from.ID)
	}
	return truncate(name, maxNameLength)
}

func (b *Bot) handleHelp(chatID int64, user *models.User) error {
	text := "📖 Справка\n\n" +
		"🏋️ Тренировки:\n" +
		"/add - добавить тренировку\n" +
		"/workouts - список тренировок\n" +
		"/stats - статистика за период\n\n" +
		"🔔 Напоминания:\n" +
		"/remind - управление напоминаниями\n" +
		"/time - текущее время бота\n\n" +
		"👤 Профиль:\n" +
		"/profile - мой профиль\n" +
		"/rename - изменить имя\n" +
		"/deleteme - удалить аккаунт\n\n" +
		"/cancel - отменить текущее действие"
	if user.IsAdmin {
		text += "\n\n👑 Администратор:\n" +
			"/admin - админ-панель\n" +
			"/ban <id>, /unban <id>\n" +
			"/promote <id>, /demote <id>"
	}
	b.showMainMenu(chatID, user, text)
	return nil
}

// handleContactAdmin links to the first configured administrator
func (b *Bot) handleContactAdmin(chatID int64, user *models.User) error {
	admins := b.config.Telegram.AdminUserIDs
	if len(admins) == 0 {
		b.showMainMenu(chatID, user, "Администратор пока не назначен.")
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL("Написать администратору", fmt.Sprintf("tg://user?id=%d", admins[0])),
	))
	b.reply(chatID, "Вы можете связаться с администратором напрямую:", markup)
	return nil
}

func (b *Bot) handleProfile(ctx context.Context, user *models.User, chatID int64) error {
	summary, err := b.store.Statistics.Summary(ctx, user.ID, zeroTime)
	if err != nil {
		return err
	}
	ranking, err := b.store.Statistics.Ranking(ctx, user.ID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s\n", user.Name)
	fmt.Fprintf(&sb, "🆔 %d\n", user.TelegramID)
	fmt.Fprintf(&sb, "📅 С нами с %s\n", user.RegisteredAt.In(b.clock.Location()).Format("02.01.2006"))
	if user.IsAdmin {
		sb.WriteString("👑 Администратор\n")
	}
	sb.WriteString("\n")
	sb.WriteString(formatSummary(summary))
	fmt.Fprintf(&sb, "\n\n🏆 Место среди %d пользователей:\n", ranking.TotalUsers)
	fmt.Fprintf(&sb, "⏱ по времени: %d\n", ranking.ByDuration)
	fmt.Fprintf(&sb, "🔥 по калориям: %d\n", ranking.ByCalories)
	fmt.Fprintf(&sb, "🔢 по количеству: %d", ranking.ByCount)

	b.showMainMenu(chatID, user, sb.String())
	return nil
}

func (b *Bot) handleRename(user *models.User, chatID int64) error {
	b.states.set(user.TelegramID, UserState{Step: stepRename})
	b.reply(chatID, fmt.Sprintf("Текущее имя: %s\nВведите новое имя:", user.Name), cancelKeyboard())
	return nil
}

func (b *Bot) processRename(ctx context.Context, user *models.User, chatID int64, text string) error {
	n := utf8.RuneCountInString(text)
	if n < minNameLength || n > maxNameLength {
		b.reply(chatID, fmt.Sprintf("Имя должно содержать от %d до %d символов. Попробуйте ещё раз:", minNameLength, maxNameLength), cancelKeyboard())
		return nil
	}
	if err := b.store.Users.Rename(ctx, user.ID, text); err != nil {
		return err
	}
	b.states.clear(user.TelegramID)
	user.Name = text
	b.showMainMenu(chatID, user, fmt.Sprintf("✅ Имя изменено на %s", text))
	return nil
}

func (b *Bot) handleDeleteMe(chatID int64) error {
	b.reply(chatID, "⚠️ Удалить аккаунт вместе со всеми тренировками и напоминаниями? Это действие необратимо.",
		createKeyboard(confirmButtons(cbDeleteMeYes, cbDeleteMeNo)))
	return nil
}

func (b *Bot) handleDeleteMeConfirmed(ctx context.Context, user *models.User, chatID int64) error {
	if err := b.store.Users.Delete(ctx, user.ID); err != nil {
		return err
	}
	b.states.clear(user.TelegramID)
	b.log.Info().Int64("telegram_id", user.TelegramID).Msg("user deleted account")
	b.reply(chatID, "🗑 Аккаунт удалён. Чтобы начать заново, отправьте /start", tgbotapi.NewRemoveKeyboard(true))
	return nil
}

func (b *Bot) handleTime(chatID int64) error {
	now := b.now()
	b.reply(chatID, fmt.Sprintf("🕒 Время бота: %s, %s (%s)",
		now.Format("15:04:05"), calendar.RussianWeekday(now.Weekday()), b.clock.Location()), nil)
	return nil
}
