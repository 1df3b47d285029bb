package bot

import (
	"fmt"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply keyboard labels
const (
	btnAddWorkout   = "➕ Добавить тренировку"
	btnWorkouts     = "📋 Мои тренировки"
	btnStats        = "📊 Моя статистика"
	btnProfile      = "👤 Мой профиль"
	btnReminders    = "🔔 Мои напоминания"
	btnHelp         = "ℹ️ Помощь"
	btnContactAdmin = "📨 Связаться с админом"
	btnAdmin        = "👑 Админ-панель"
	btnCancel       = "❌ Отмена"
)

// menuCommands maps main menu buttons to the commands they stand for
var menuCommands = map[string]string{
	btnAddWorkout:   "add",
	btnWorkouts:     "workouts",
	btnStats:        "stats",
	btnProfile:      "profile",
	btnReminders:    "remind",
	btnHelp:         "help",
	btnContactAdmin: "contact",
	btnAdmin:        "admin",
}

// MenuButton represents a button in an inline menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates an inline keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// mainMenu is the persistent reply keyboard; admins get the panel button
func mainMenu(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddWorkout),
			tgbotapi.NewKeyboardButton(btnWorkouts),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStats),
			tgbotapi.NewKeyboardButton(btnProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnReminders),
			tgbotapi.NewKeyboardButton(btnHelp),
		),
	}
	last := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnContactAdmin))
	if isAdmin {
		last = append(last, tgbotapi.NewKeyboardButton(btnAdmin))
	}
	rows = append(rows, last)
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.InputFieldPlaceholder = "Выберите действие..."
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)))
}

func weekdaysKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, d := range calendar.WeekdaysMondayFirst() {
		row = append(row, tgbotapi.NewKeyboardButton(calendar.RussianWeekday(d)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	row = append(row, tgbotapi.NewKeyboardButton(btnCancel))
	rows = append(rows, row)
	return tgbotapi.NewReplyKeyboard(rows...)
}

var workoutTypeLabels = map[models.WorkoutType]string{
	models.WorkoutStrength:    "🏋️ Силовая",
	models.WorkoutRunning:     "🏃 Бег",
	models.WorkoutCycling:     "🚴 Велосипед",
	models.WorkoutYoga:        "🧘 Йога",
	models.WorkoutSwimming:    "🏊 Плавание",
	models.WorkoutJumpingRope: "🤸 Скакалка",
}

func workoutTypeLabel(t models.WorkoutType) string {
	if label, ok := workoutTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// typeRows lays the workout types out two per row
func typeRows(data func(t models.WorkoutType) string) [][]MenuButton {
	var rows [][]MenuButton
	for i := 0; i < len(models.WorkoutTypes); i += 2 {
		var row []MenuButton
		for _, t := range models.WorkoutTypes[i:min(i+2, len(models.WorkoutTypes))] {
			row = append(row, MenuButton{Text: workoutTypeLabel(t), CallbackData: data(t)})
		}
		rows = append(rows, row)
	}
	return append(rows, []MenuButton{{Text: btnCancel, CallbackData: cbCancel}})
}

func workoutTypeButtons() [][]MenuButton {
	return typeRows(func(t models.WorkoutType) string { return cbWorkoutType + string(t) })
}

func workoutRetypeButtons(id int64) [][]MenuButton {
	return typeRows(func(t models.WorkoutType) string { return fmt.Sprintf("%s%s_%d", cbWorkoutRetype, t, id) })
}

func moreExercisesButtons() [][]MenuButton {
	return [][]MenuButton{{
		{Text: "➕ Ещё упражнение", CallbackData: cbExerciseMore},
		{Text: "✅ Готово", CallbackData: cbExerciseDone},
	}}
}

func workoutListButtons(workouts []models.Workout, page, pages int) [][]MenuButton {
	var rows [][]MenuButton
	for _, w := range workouts {
		rows = append(rows, []MenuButton{
			{Text: fmt.Sprintf("✏️ #%d", w.ID), CallbackData: fmt.Sprintf("%s%d", cbWorkoutEdit, w.ID)},
			{Text: fmt.Sprintf("🗑 #%d", w.ID), CallbackData: fmt.Sprintf("%s%d", cbWorkoutDelete, w.ID)},
		})
	}
	var nav []MenuButton
	if page > 0 {
		nav = append(nav, MenuButton{Text: "⬅️ Назад", CallbackData: fmt.Sprintf("%s%d", cbWorkoutPage, page-1)})
	}
	if page+1 < pages {
		nav = append(nav, MenuButton{Text: "➡️ Вперед", CallbackData: fmt.Sprintf("%s%d", cbWorkoutPage, page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

func confirmButtons(yes, no string) [][]MenuButton {
	return [][]MenuButton{{
		{Text: "✅ Да", CallbackData: yes},
		{Text: "❌ Нет", CallbackData: no},
	}}
}

func workoutFieldButtons(w *models.Workout) [][]MenuButton {
	field := func(text string, f database.WorkoutField) MenuButton {
		return MenuButton{Text: text, CallbackData: fmt.Sprintf("%s%s_%d", cbWorkoutField, f, w.ID)}
	}
	rows := [][]MenuButton{
		{field("🏷 Тип тренировки", fieldType), field("📅 Дата и время", fieldDate)},
		{field("⏱ Длительность", fieldDuration), field("🔥 Калории", fieldCalories)},
		{field("📝 Заметки", fieldNotes)},
	}
	if w.Type.HasDistance() {
		rows[2] = append(rows[2], field("📏 Дистанция", fieldDistance))
	}
	if w.Type.HasExercises() {
		rows = append(rows, []MenuButton{field("🏋️ Упражнения", fieldExercises)})
	}
	return rows
}

func exerciseListButtons(exercises []models.Exercise) [][]MenuButton {
	var rows [][]MenuButton
	for i, ex := range exercises {
		rows = append(rows, []MenuButton{{
			Text:         truncate(fmt.Sprintf("🏋️ Упражнение %d: %s", i+1, ex.Name), 60),
			CallbackData: fmt.Sprintf("%s%d", cbExerciseSelect, ex.ID),
		}})
	}
	return append(rows, []MenuButton{{Text: btnCancel, CallbackData: cbCancel}})
}

func exerciseFieldButtons(ex *models.Exercise) [][]MenuButton {
	field := func(text string, f database.ExerciseField) MenuButton {
		return MenuButton{Text: text, CallbackData: fmt.Sprintf("%s%s_%d", cbExerciseField, f, ex.ID)}
	}
	return [][]MenuButton{
		{field("Название", database.ExerciseName), field("Подходы", database.ExerciseSets)},
		{field("Повторения", database.ExerciseReps), field("Вес", database.ExerciseWeight)},
		{{Text: "🗑️ Удалить упражнение", CallbackData: fmt.Sprintf("%s%d", cbExerciseDelete, ex.ID)}},
		{{Text: "← Назад", CallbackData: fmt.Sprintf("%s%s_%d", cbWorkoutField, fieldExercises, ex.WorkoutID)}},
	}
}

func statsPeriodButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📅 День", CallbackData: cbStats + periodDay},
			{Text: "🗓 Неделя", CallbackData: cbStats + periodWeek},
		},
		{
			{Text: "📆 Месяц", CallbackData: cbStats + periodMonth},
			{Text: "♾ Всё время", CallbackData: cbStats + periodAll},
		},
	}
}

func remindersMenuButtons(reminders []models.Reminder) [][]MenuButton {
	rows := [][]MenuButton{{{Text: "➕ Создать напоминание", CallbackData: cbReminderCreate}}}
	for _, r := range reminders {
		rows = append(rows, []MenuButton{{
			Text:         truncate(fmt.Sprintf("%s в %s - %s", calendar.DisplayWeekday(r.DayOfWeek), shortTime(r.TimeOfDay), r.Text), 60),
			CallbackData: fmt.Sprintf("%s%d", cbReminderView, r.ID),
		}})
	}
	if len(reminders) > 0 {
		rows = append(rows, []MenuButton{{Text: "🗑 Удалить все", CallbackData: cbReminderDeleteAll}})
	}
	return rows
}

func reminderButtons(id int64) [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "✏️ Текст", CallbackData: fmt.Sprintf("%s%d", cbReminderEditText, id)},
			{Text: "🕒 Время", CallbackData: fmt.Sprintf("%s%d", cbReminderEditTime, id)},
			{Text: "📅 День", CallbackData: fmt.Sprintf("%s%d", cbReminderEditDay, id)},
		},
		{
			{Text: "❌ Удалить", CallbackData: fmt.Sprintf("%s%d", cbReminderDelete, id)},
			{Text: "← Назад", CallbackData: cbReminderMenu},
		},
	}
}

func adminPanelButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "🛑 Забанить пользователя", CallbackData: cbAdminBan}},
		{
			{Text: "📊 Статистика всех", CallbackData: cbAdminStats},
			{Text: "👥 Список пользователей", CallbackData: cbAdminUsers + "0"},
		},
	}
}

func adminUsersButtons(page, pages int) [][]MenuButton {
	var nav []MenuButton
	if page > 0 {
		nav = append(nav, MenuButton{Text: "⬅️", CallbackData: fmt.Sprintf("%s%d", cbAdminUsers, page-1)})
	}
	if page+1 < pages {
		nav = append(nav, MenuButton{Text: "➡️", CallbackData: fmt.Sprintf("%s%d", cbAdminUsers, page+1)})
	}
	rows := [][]MenuButton{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, []MenuButton{{Text: "← Назад", CallbackData: cbAdminPanel}})
}
