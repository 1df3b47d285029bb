package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/pkg/models"
)

const usersPerPage = 20

const msgUserNotFound = "Пользователь не найден."

func parseTelegramID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (b *Bot) handleAdminPanel(chatID int64) error {
	b.reply(chatID, "👑 Админ-панель", createKeyboard(adminPanelButtons()))
	return nil
}

// handleAdminCommand handles /admin, /ban, /unban, /promote and /demote.
// The caller has already checked admin rights.
func (b *Bot) handleAdminCommand(ctx context.Context, user *models.User, chatID int64, command, args string) error {
	if command == "admin" {
		return b.handleAdminPanel(chatID)
	}
	if command == "ban" {
		return b.handleBanRequest(ctx, user, chatID, args)
	}

	target, ok := parseTelegramID(args)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Использование: /%s <telegram_id>", command), nil)
		return nil
	}
	if target == user.TelegramID {
		b.reply(chatID, "Нельзя изменить собственные права.", nil)
		return nil
	}

	var (
		err  error
		done string
	)
	switch command {
	case "unban":
		err = b.store.Users.SetBanned(ctx, target, false)
		done = "✅ Пользователь %d разблокирован."
	case "promote":
		err = b.store.Users.SetAdmin(ctx, target, true)
		done = "✅ Пользователь %d назначен администратором."
	case "demote":
		err = b.store.Users.SetAdmin(ctx, target, false)
		done = "✅ Пользователь %d больше не администратор."
	}
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgUserNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}

	b.log.Info().Int64("admin", user.TelegramID).Int64("target", target).Str("action", command).Msg("admin action")
	b.reply(chatID, fmt.Sprintf(done, target), nil)
	return nil
}

// handleBanRequest asks the admin to confirm a ban
func (b *Bot) handleBanRequest(ctx context.Context, user *models.User, chatID int64, text string) error {
	target, ok := parseTelegramID(text)
	if !ok {
		b.showMainMenu(chatID, user, "Некорректный Telegram ID.")
		return nil
	}
	if target == user.TelegramID {
		b.showMainMenu(chatID, user, "Нельзя заблокировать самого себя.")
		return nil
	}

	victim, err := b.store.Users.GetByTelegramID(ctx, target)
	if errors.Is(err, database.ErrNotFound) {
		b.showMainMenu(chatID, user, msgUserNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	b.reply(chatID, fmt.Sprintf("Заблокировать %s (%d)?", victim.Name, victim.TelegramID),
		createKeyboard(confirmButtons(fmt.Sprintf("%s%d", cbAdminBanYes, target), cbAdminBanNo)))
	return nil
}

func (b *Bot) handleAdminCallback(ctx context.Context, user *models.User, chatID int64, data string) error {
	switch {
	case data == cbAdminPanel:
		return b.handleAdminPanel(chatID)

	case data == cbAdminBan:
		b.states.set(user.TelegramID, UserState{Step: stepAdminBanID})
		b.reply(chatID, "Введите Telegram ID пользователя:", cancelKeyboard())
		return nil

	case strings.HasPrefix(data, cbAdminBanYes):
		target, ok := callbackID(data, cbAdminBanYes)
		if !ok {
			return nil
		}
		if target == user.TelegramID {
			b.reply(chatID, "Нельзя заблокировать самого себя.", nil)
			return nil
		}
		err := b.store.Users.SetBanned(ctx, target, true)
		if errors.Is(err, database.ErrNotFound) {
			b.reply(chatID, msgUserNotFound, nil)
			return nil
		}
		if err != nil {
			return err
		}
		b.states.clear(target)
		b.log.Info().Int64("admin", user.TelegramID).Int64("target", target).Str("action", "ban").Msg("admin action")
		b.reply(chatID, fmt.Sprintf("🛑 Пользователь %d заблокирован.", target), nil)
		return nil

	case data == cbAdminBanNo:
		b.reply(chatID, "Блокировка отменена.", nil)
		return nil

	case data == cbAdminStats:
		return b.handleAdminStats(ctx, chatID)

	case strings.HasPrefix(data, cbAdminUsers):
		page, ok := callbackID(data, cbAdminUsers)
		if !ok {
			return nil
		}
		return b.handleAdminUsers(ctx, chatID, int(page))
	}

	b.log.Warn().Str("data", data).Msg("unknown admin callback")
	return nil
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID int64) error {
	g, err := b.store.Statistics.Global(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("📊 Общая статистика\n\n"+
		"👥 Пользователей: %d\n"+
		"👑 Администраторов: %d\n"+
		"🛑 Заблокировано: %d\n"+
		"🏋️ Тренировок: %d\n"+
		"🔔 Напоминаний: %d",
		g.Users, g.Admins, g.Banned, g.Workouts, g.Reminders)
	b.reply(chatID, text, createKeyboard([][]MenuButton{{{Text: "← Назад", CallbackData: cbAdminPanel}}}))
	return nil
}

func (b *Bot) handleAdminUsers(ctx context.Context, chatID int64, page int) error {
	total, err := b.store.Users.Count(ctx)
	if err != nil {
		return err
	}
	pages := (total + usersPerPage - 1) / usersPerPage
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}

	users, err := b.store.Users.List(ctx, usersPerPage, page*usersPerPage)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Пользователи (%d, стр. %d/%d):\n", total, page+1, pages)
	for _, u := range users {
		mark := ""
		switch {
		case u.IsBanned:
			mark = " 🛑"
		case u.IsAdmin:
			mark = " 👑"
		}
		fmt.Fprintf(&sb, "\n%d - %s%s", u.TelegramID, u.Name, mark)
	}
	b.reply(chatID, sb.String(), createKeyboard(adminUsersButtons(page, pages)))
	return nil
}
