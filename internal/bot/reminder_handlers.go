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
)

const (
	maxReminderText     = 200
	msgReminderNotFound = "Напоминание не найдено."
	msgAskTime          = "🕒 Введите время в формате ЧЧ:ММ (например, 08:30):"
	msgAskDay           = "📅 Выберите день недели:"
)

// parseReminderTime accepts H:MM and HH:MM and returns the stored form
func parseReminderTime(text string) (string, bool) {
	if strings.Count(text, ":") != 1 {
		return "", false
	}
	c, err := calendar.ParseClock(text)
	if err != nil {
		return "", false
	}
	return c.String(), true
}

func (b *Bot) handleRemindersMenu(ctx context.Context, user *models.User, chatID int64) error {
	reminders, err := b.store.Reminders.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	text := "🔔 У вас пока нет напоминаний."
	if len(reminders) > 0 {
		text = fmt.Sprintf("🔔 Ваши напоминания (%d):", len(reminders))
	}
	b.reply(chatID, text, createKeyboard(remindersMenuButtons(reminders)))
	return nil
}

func (b *Bot) handleReminderCreate(user *models.User, chatID int64) error {
	b.states.set(user.TelegramID, UserState{Step: stepReminderDay, Reminder: models.Reminder{UserID: user.ID}})
	b.reply(chatID, msgAskDay, weekdaysKeyboard())
	return nil
}

// processReminderStep walks the create-reminder form: day, time, text
func (b *Bot) processReminderStep(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	switch st.Step {
	case stepReminderDay:
		day, ok := calendar.ParseWeekday(text)
		if !ok {
			b.reply(chatID, "Не знаю такого дня. "+msgAskDay, weekdaysKeyboard())
			return nil
		}
		st.Reminder.DayOfWeek = day.String()
		st.Step = stepReminderTime
		b.reply(chatID, msgAskTime, cancelKeyboard())

	case stepReminderTime:
		clock, ok := parseReminderTime(text)
		if !ok {
			b.reply(chatID, "Неверный формат. "+msgAskTime, cancelKeyboard())
			return nil
		}
		st.Reminder.TimeOfDay = clock
		st.Step = stepReminderText
		b.reply(chatID, "✏️ Введите текст напоминания:", cancelKeyboard())

	case stepReminderText:
		if text == "" || utf8.RuneCountInString(text) > maxReminderText {
			b.reply(chatID, fmt.Sprintf("Текст должен быть от 1 до %d символов:", maxReminderText), cancelKeyboard())
			return nil
		}
		rem := st.Reminder
		rem.UserID = user.ID
		rem.Text = text
		if err := b.store.Reminders.Create(ctx, &rem); err != nil {
			return err
		}
		b.states.clear(user.TelegramID)
		b.log.Info().Int64("user_id", user.ID).Int64("reminder_id", rem.ID).Msg("reminder created")
		b.showMainMenu(chatID, user, "✅ Напоминание создано!\n\n"+formatReminder(&rem))
		return nil
	}

	b.states.set(user.TelegramID, st)
	return nil
}

func (b *Bot) handleReminderView(ctx context.Context, user *models.User, chatID int64, id int64) error {
	rem, err := b.store.Reminders.GetByID(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgReminderNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(chatID, formatReminder(rem), createKeyboard(reminderButtons(rem.ID)))
	return nil
}

func (b *Bot) handleReminderEditStart(ctx context.Context, user *models.User, chatID int64, id int64, step string) error {
	if _, err := b.store.Reminders.GetByID(ctx, user.ID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			b.reply(chatID, msgReminderNotFound, nil)
			return nil
		}
		return err
	}

	b.states.set(user.TelegramID, UserState{Step: step, TargetID: id})
	switch step {
	case stepReminderEditText:
		b.reply(chatID, "✏️ Введите новый текст:", cancelKeyboard())
	case stepReminderEditTime:
		b.reply(chatID, msgAskTime, cancelKeyboard())
	case stepReminderEditDay:
		b.reply(chatID, msgAskDay, weekdaysKeyboard())
	}
	return nil
}

func (b *Bot) processReminderEdit(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	var err error
	switch st.Step {
	case stepReminderEditText:
		if text == "" || utf8.RuneCountInString(text) > maxReminderText {
			b.reply(chatID, fmt.Sprintf("Текст должен быть от 1 до %d символов:", maxReminderText), cancelKeyboard())
			return nil
		}
		err = b.store.Reminders.UpdateText(ctx, user.ID, st.TargetID, text)
	case stepReminderEditTime:
		clock, ok := parseReminderTime(text)
		if !ok {
			b.reply(chatID, "Неверный формат. "+msgAskTime, cancelKeyboard())
			return nil
		}
		err = b.store.Reminders.UpdateTime(ctx, user.ID, st.TargetID, clock)
	case stepReminderEditDay:
		if _, ok := calendar.ParseWeekday(text); !ok {
			b.reply(chatID, "Не знаю такого дня. "+msgAskDay, weekdaysKeyboard())
			return nil
		}
		err = b.store.Reminders.UpdateDay(ctx, user.ID, st.TargetID, text)
	}

	b.states.clear(user.TelegramID)
	if errors.Is(err, database.ErrNotFound) {
		b.showMainMenu(chatID, user, msgReminderNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	rem, err := b.store.Reminders.GetByID(ctx, user.ID, st.TargetID)
	if err != nil {
		return err
	}
	b.showMainMenu(chatID, user, "✅ Напоминание обновлено!\n\n"+formatReminder(rem))
	return nil
}

func (b *Bot) handleReminderDelete(ctx context.Context, user *models.User, chatID int64, id int64) error {
	err := b.store.Reminders.Delete(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgReminderNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(chatID, "🗑 Напоминание удалено.", nil)
	return b.handleRemindersMenu(ctx, user, chatID)
}

func (b *Bot) handleReminderDeleteAll(ctx context.Context, user *models.User, chatID int64) error {
	n, err := b.store.Reminders.DeleteAllByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	b.showMainMenu(chatID, user, fmt.Sprintf("🗑 Удалено напоминаний: %d", n))
	return nil
}
