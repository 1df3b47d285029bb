package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/fitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes
const (
	cbCancel            = "cancel"
	cbWorkoutType       = "wk_type_"
	cbExerciseMore      = "wk_ex_more"
	cbExerciseDone      = "wk_ex_done"
	cbWorkoutPage       = "wk_page_"
	cbWorkoutEdit       = "wk_edit_"
	cbWorkoutField      = "wk_field_"
	cbWorkoutRetype     = "wk_settype_"
	cbExerciseSelect    = "wk_exsel_"
	cbExerciseField     = "wk_exf_"
	cbExerciseDelete    = "wk_exdel_"
	cbWorkoutDelete     = "wk_del_"
	cbWorkoutDeleteYes  = "wk_delyes_"
	cbWorkoutDeleteNo   = "wk_delno"
	cbStats             = "stats_"
	cbReminderMenu      = "rem_menu"
	cbReminderCreate    = "rem_create"
	cbReminderView      = "rem_view_"
	cbReminderEditText  = "rem_text_"
	cbReminderEditTime  = "rem_time_"
	cbReminderEditDay   = "rem_day_"
	cbReminderDelete    = "rem_del_"
	cbReminderDeleteAll = "rem_delall"
	cbReminderDelAllYes = "rem_delall_yes"
	cbReminderDelAllNo  = "rem_delall_no"
	cbDeleteMeYes       = "delme_yes"
	cbDeleteMeNo        = "delme_no"
	cbAdminPanel        = "adm_panel"
	cbAdminBan          = "adm_ban"
	cbAdminBanYes       = "adm_banyes_"
	cbAdminBanNo        = "adm_banno"
	cbAdminStats        = "adm_stats"
	cbAdminUsers        = "adm_users_"
)

// HandleMessage handles a text message or command
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return nil
	}
	chatID := message.Chat.ID

	if message.IsCommand() && message.Command() == "start" {
		return b.handleStart(ctx, message)
	}

	user, err := b.currentUser(ctx, chatID, message.From.ID)
	if err != nil || user == nil {
		return err
	}

	text := strings.TrimSpace(message.Text)
	if text == btnCancel || (message.IsCommand() && message.Command() == "cancel") {
		return b.handleCancel(chatID, user)
	}

	if message.IsCommand() {
		// команда прерывает незавершённую форму
		b.states.clear(user.TelegramID)
		return b.HandleCommand(ctx, user, chatID, message.Command(), strings.TrimSpace(message.CommandArguments()))
	}

	if st, ok := b.states.get(user.TelegramID); ok {
		return b.handleStep(ctx, user, chatID, st, text)
	}

	if cmd, ok := menuCommands[text]; ok {
		return b.HandleCommand(ctx, user, chatID, cmd, "")
	}

	b.showMainMenu(chatID, user, msgUnknown)
	return nil
}

// HandleCommand handles bot commands for a registered user
func (b *Bot) HandleCommand(ctx context.Context, user *models.User, chatID int64, command, args string) error {
	switch command {
	case "help":
		return b.handleHelp(chatID, user)
	case "contact":
		return b.handleContactAdmin(chatID, user)
	case "profile":
		return b.handleProfile(ctx, user, chatID)
	case "rename":
		return b.handleRename(user, chatID)
	case "deleteme":
		return b.handleDeleteMe(chatID)
	case "add":
		return b.handleAddWorkout(user, chatID)
	case "workouts":
		return b.handleWorkouts(ctx, user, chatID, 0)
	case "stats":
		return b.handleStats(chatID)
	case "remind":
		return b.handleRemindersMenu(ctx, user, chatID)
	case "time":
		return b.handleTime(chatID)
	case "admin", "ban", "unban", "promote", "demote":
		if !user.IsAdmin {
			b.reply(chatID, msgNotAdmin, nil)
			return nil
		}
		return b.handleAdminCommand(ctx, user, chatID, command, args)
	default:
		b.showMainMenu(chatID, user, msgUnknown)
		return nil
	}
}

// handleStep continues the pending form with the user's input
func (b *Bot) handleStep(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	switch st.Step {
	case stepRename:
		return b.processRename(ctx, user, chatID, text)
	case stepExerciseMore:
		b.reply(chatID, "Добавить ещё упражнение?", createKeyboard(moreExercisesButtons()))
		return nil
	case stepExerciseName, stepExerciseSets, stepExerciseReps, stepExerciseWeight,
		stepWorkoutDistance, stepWorkoutDuration, stepWorkoutCalories, stepWorkoutNotes:
		return b.processWorkoutStep(ctx, user, chatID, st, text)
	case stepWorkoutEditValue:
		return b.processWorkoutEdit(ctx, user, chatID, st, text)
	case stepExerciseEditValue:
		return b.processExerciseEdit(ctx, user, chatID, st, text)
	case stepReminderDay, stepReminderTime, stepReminderText:
		return b.processReminderStep(ctx, user, chatID, st, text)
	case stepReminderEditText, stepReminderEditTime, stepReminderEditDay:
		return b.processReminderEdit(ctx, user, chatID, st, text)
	case stepAdminBanID:
		b.states.clear(user.TelegramID)
		return b.handleBanRequest(ctx, user, chatID, text)
	default:
		b.states.clear(user.TelegramID)
		b.showMainMenu(chatID, user, msgUnknown)
		return nil
	}
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("failed to answer callback")
	}
	if callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return nil
	}
	chatID := callback.Message.Chat.ID

	user, err := b.currentUser(ctx, chatID, callback.From.ID)
	if err != nil || user == nil {
		return err
	}

	data := callback.Data
	switch {
	case data == cbCancel:
		return b.handleCancel(chatID, user)

	case strings.HasPrefix(data, cbWorkoutType):
		return b.handleWorkoutType(user, chatID, models.WorkoutType(strings.TrimPrefix(data, cbWorkoutType)))
	case data == cbExerciseMore:
		return b.handleMoreExercises(ctx, user, chatID, true)
	case data == cbExerciseDone:
		return b.handleMoreExercises(ctx, user, chatID, false)
	case strings.HasPrefix(data, cbWorkoutPage):
		if page, ok := callbackID(data, cbWorkoutPage); ok {
			return b.handleWorkouts(ctx, user, chatID, int(page))
		}
	case strings.HasPrefix(data, cbWorkoutEdit):
		if id, ok := callbackID(data, cbWorkoutEdit); ok {
			return b.handleWorkoutEditMenu(ctx, user, chatID, id)
		}
	case strings.HasPrefix(data, cbWorkoutField):
		return b.handleWorkoutFieldChoice(ctx, user, chatID, strings.TrimPrefix(data, cbWorkoutField))
	case strings.HasPrefix(data, cbWorkoutRetype):
		return b.handleWorkoutRetype(ctx, user, chatID, strings.TrimPrefix(data, cbWorkoutRetype))
	case strings.HasPrefix(data, cbExerciseSelect):
		if id, ok := callbackID(data, cbExerciseSelect); ok {
			return b.handleExerciseMenu(ctx, user, chatID, id)
		}
	case strings.HasPrefix(data, cbExerciseField):
		return b.handleExerciseFieldChoice(ctx, user, chatID, strings.TrimPrefix(data, cbExerciseField))
	case strings.HasPrefix(data, cbExerciseDelete):
		if id, ok := callbackID(data, cbExerciseDelete); ok {
			return b.handleExerciseDelete(ctx, user, chatID, id)
		}
	case strings.HasPrefix(data, cbWorkoutDeleteYes):
		if id, ok := callbackID(data, cbWorkoutDeleteYes); ok {
			return b.handleWorkoutDelete(ctx, user, chatID, id)
		}
	case data == cbWorkoutDeleteNo:
		b.reply(chatID, "Удаление отменено.", nil)
		return nil
	case strings.HasPrefix(data, cbWorkoutDelete):
		if id, ok := callbackID(data, cbWorkoutDelete); ok {
			return b.handleWorkoutDeleteConfirm(ctx, user, chatID, id)
		}

	case strings.HasPrefix(data, cbStats):
		return b.handleStatsPeriod(ctx, user, chatID, strings.TrimPrefix(data, cbStats))

	case data == cbReminderMenu:
		return b.handleRemindersMenu(ctx, user, chatID)
	case data == cbReminderCreate:
		return b.handleReminderCreate(user, chatID)
	case data == cbReminderDelAllYes:
		return b.handleReminderDeleteAll(ctx, user, chatID)
	case data == cbReminderDelAllNo:
		b.reply(chatID, "Удаление отменено.", nil)
		return nil
	case data == cbReminderDeleteAll:
		b.reply(chatID, "Удалить все напоминания?", createKeyboard(confirmButtons(cbReminderDelAllYes, cbReminderDelAllNo)))
		return nil
	case strings.HasPrefix(data, cbReminderView):
		if id, ok := callbackID(data, cbReminderView); ok {
			return b.handleReminderView(ctx, user, chatID, id)
		}
	case strings.HasPrefix(data, cbReminderEditText):
		if id, ok := callbackID(data, cbReminderEditText); ok {
			return b.handleReminderEditStart(ctx, user, chatID, id, stepReminderEditText)
		}
	case strings.HasPrefix(data, cbReminderEditTime):
		if id, ok := callbackID(data, cbReminderEditTime); ok {
			return b.handleReminderEditStart(ctx, user, chatID, id, stepReminderEditTime)
		}
	case strings.HasPrefix(data, cbReminderEditDay):
		if id, ok := callbackID(data, cbReminderEditDay); ok {
			return b.handleReminderEditStart(ctx, user, chatID, id, stepReminderEditDay)
		}
	case strings.HasPrefix(data, cbReminderDelete):
		if id, ok := callbackID(data, cbReminderDelete); ok {
			return b.handleReminderDelete(ctx, user, chatID, id)
		}

	case data == cbDeleteMeYes:
		return b.handleDeleteMeConfirmed(ctx, user, chatID)
	case data == cbDeleteMeNo:
		b.showMainMenu(chatID, user, "Хорошо, аккаунт остаётся.")
		return nil

	case strings.HasPrefix(data, "adm_"):
		if !user.IsAdmin {
			b.reply(chatID, msgNotAdmin, nil)
			return nil
		}
		return b.handleAdminCallback(ctx, user, chatID, data)
	}

	b.log.Warn().Str("data", data).Msg("unknown callback")
	return nil
}

func (b *Bot) handleCancel(chatID int64, user *models.User) error {
	if b.states.clear(user.TelegramID) {
		b.showMainMenu(chatID, user, "Действие отменено.")
		return nil
	}
	b.showMainMenu(chatID, user, "Нечего отменять.")
	return nil
}

// callbackID parses the numeric suffix of callback data
func callbackID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
