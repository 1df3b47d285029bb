package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/fitbot/internal/database"
	"github.com/example/fitbot/pkg/models"
)

const workoutsPerPage = 5

const (
	fieldDuration = database.FieldDuration
	fieldDistance = database.FieldDistance
	fieldCalories = database.FieldCalories
	fieldNotes    = database.FieldNotes
	fieldDate     = database.FieldDate

	// fieldType and fieldExercises open sub-menus instead of a text prompt
	fieldType      database.WorkoutField = "type"
	fieldExercises database.WorkoutField = "exercises"
)

// dateLayout is how users type a workout date
const dateLayout = "02.01.2006 15:04"

const (
	msgWorkoutNotFound  = "Тренировка не найдена."
	msgExerciseNotFound = "Упражнение не найдено."
	msgWorkoutUpdated   = "✅ Тренировка обновлена."
	msgPositiveInt      = "Введите целое число больше 0."
)

func (b *Bot) handleAddWorkout(user *models.User, chatID int64) error {
	b.states.clear(user.TelegramID)
	b.reply(chatID, "🏋️ Выберите тип тренировки:", createKeyboard(workoutTypeButtons()))
	return nil
}

func (b *Bot) handleWorkoutType(user *models.User, chatID int64, t models.WorkoutType) error {
	if !t.Valid() {
		b.reply(chatID, "Неизвестный тип тренировки.", nil)
		return nil
	}

	st := UserState{Workout: models.Workout{UserID: user.ID, Type: t}}
	switch {
	case t.HasExercises():
		st.Step = stepExerciseName
		b.reply(chatID, "Введите название упражнения:", cancelKeyboard())
	case t.HasDistance():
		st.Step = stepWorkoutDistance
		b.reply(chatID, "📏 Введите дистанцию в километрах:", cancelKeyboard())
	default:
		st.Step = stepWorkoutDuration
		b.reply(chatID, "⏱ Введите длительность в минутах:", cancelKeyboard())
	}
	b.states.set(user.TelegramID, st)
	return nil
}

// processWorkoutStep walks the add-workout form one answer at a time
func (b *Bot) processWorkoutStep(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	switch st.Step {
	case stepExerciseName:
		if text == "" || utf8.RuneCountInString(text) > 64 {
			b.reply(chatID, "Название должно быть от 1 до 64 символов:", cancelKeyboard())
			return nil
		}
		st.Exercise = models.Exercise{Name: text}
		st.Step = stepExerciseSets
		b.reply(chatID, "Количество подходов:", cancelKeyboard())

	case stepExerciseSets:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(chatID, "Введите целое число больше 0:", cancelKeyboard())
			return nil
		}
		st.Exercise.Sets = n
		st.Step = stepExerciseReps
		b.reply(chatID, "Количество повторений:", cancelKeyboard())

	case stepExerciseReps:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(chatID, "Введите целое число больше 0:", cancelKeyboard())
			return nil
		}
		st.Exercise.Reps = n
		st.Step = stepExerciseWeight
		b.reply(chatID, "Вес в кг (0 - без веса):", cancelKeyboard())

	case stepExerciseWeight:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			b.reply(chatID, "Введите целое число, 0 или больше:", cancelKeyboard())
			return nil
		}
		st.Exercise.Weight = n
		st.Workout.Exercises = append(st.Workout.Exercises, st.Exercise)
		st.Exercise = models.Exercise{}
		st.Step = stepExerciseMore
		b.reply(chatID, fmt.Sprintf("✅ Упражнение добавлено (%d). Добавить ещё?", len(st.Workout.Exercises)),
			createKeyboard(moreExercisesButtons()))

	case stepWorkoutDistance:
		v, err := parseNumber(text)
		if err != nil || v < 0 {
			b.reply(chatID, "Введите число, 0 или больше:", cancelKeyboard())
			return nil
		}
		st.Workout.Distance = v
		st.Step = stepWorkoutDuration
		b.reply(chatID, "⏱ Введите длительность в минутах:", cancelKeyboard())

	case stepWorkoutDuration:
		v, err := parseNumber(text)
		if err != nil || v <= 0 {
			b.reply(chatID, "Длительность должна быть больше 0:", cancelKeyboard())
			return nil
		}
		st.Workout.Duration = v
		st.Step = stepWorkoutCalories
		b.reply(chatID, "🔥 Сколько калорий сожжено?", cancelKeyboard())

	case stepWorkoutCalories:
		v, err := parseNumber(text)
		if err != nil || v < 0 {
			b.reply(chatID, "Введите число, 0 или больше:", cancelKeyboard())
			return nil
		}
		st.Workout.Calories = v
		st.Step = stepWorkoutNotes
		b.reply(chatID, "📝 Заметки (или \"-\" без заметок):", cancelKeyboard())

	case stepWorkoutNotes:
		if text != "-" {
			st.Workout.Notes = truncate(text, 500)
		}
		return b.saveWorkout(ctx, user, chatID, st.Workout)
	}

	b.states.set(user.TelegramID, st)
	return nil
}

func (b *Bot) handleMoreExercises(ctx context.Context, user *models.User, chatID int64, more bool) error {
	st, ok := b.states.get(user.TelegramID)
	if !ok || st.Step != stepExerciseMore {
		b.showMainMenu(chatID, user, "Форма устарела, начните заново: /add")
		return nil
	}
	if more {
		st.Step = stepExerciseName
		b.reply(chatID, "Введите название упражнения:", cancelKeyboard())
	} else {
		st.Step = stepWorkoutDuration
		b.reply(chatID, "⏱ Введите длительность тренировки в минутах:", cancelKeyboard())
	}
	b.states.set(user.TelegramID, st)
	return nil
}

func (b *Bot) saveWorkout(ctx context.Context, user *models.User, chatID int64, w models.Workout) error {
	w.PerformedAt = b.now().UTC()
	if err := b.store.Workouts.Create(ctx, &w); err != nil {
		return err
	}
	b.states.clear(user.TelegramID)
	b.log.Info().Int64("user_id", user.ID).Int64("workout_id", w.ID).Str("type", string(w.Type)).Msg("workout saved")
	b.showMainMenu(chatID, user, "✅ Тренировка сохранена!\n\n"+formatWorkout(&w, b.clock.Location()))
	return nil
}

func (b *Bot) handleWorkouts(ctx context.Context, user *models.User, chatID int64, page int) error {
	total, err := b.store.Workouts.CountByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if total == 0 {
		b.showMainMenu(chatID, user, "У вас пока нет тренировок. Добавьте первую: /add")
		return nil
	}

	pages := (total + workoutsPerPage - 1) / workoutsPerPage
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	workouts, err := b.store.Workouts.ListByUser(ctx, user.ID, workoutsPerPage, page*workoutsPerPage)
	if err != nil {
		return err
	}

	parts := []string{fmt.Sprintf("📋 Ваши тренировки (стр. %d/%d):", page+1, pages)}
	for i := range workouts {
		parts = append(parts, formatWorkout(&workouts[i], b.clock.Location()))
	}
	b.reply(chatID, strings.Join(parts, "\n\n"), createKeyboard(workoutListButtons(workouts, page, pages)))
	return nil
}

func (b *Bot) handleWorkoutDeleteConfirm(ctx context.Context, user *models.User, chatID int64, id int64) error {
	w, err := b.store.Workouts.GetByID(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgWorkoutNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(chatID, "Удалить тренировку?\n\n"+formatWorkout(w, b.clock.Location()),
		createKeyboard(confirmButtons(fmt.Sprintf("%s%d", cbWorkoutDeleteYes, id), cbWorkoutDeleteNo)))
	return nil
}

func (b *Bot) handleWorkoutDelete(ctx context.Context, user *models.User, chatID int64, id int64) error {
	err := b.store.Workouts.Delete(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgWorkoutNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.showMainMenu(chatID, user, "🗑 Тренировка удалена.")
	return nil
}

func (b *Bot) handleWorkoutEditMenu(ctx context.Context, user *models.User, chatID int64, id int64) error {
	w, err := b.store.Workouts.GetByID(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgWorkoutNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(chatID, "Что изменить?\n\n"+formatWorkout(w, b.clock.Location()), createKeyboard(workoutFieldButtons(w)))
	return nil
}

// splitFieldID parses callback data of the form "<field>_<id>"
func splitFieldID(data string) (string, int64, bool) {
	i := strings.LastIndex(data, "_")
	if i <= 0 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(data[i+1:], 10, 64)
	if err != nil || id < 0 {
		return "", 0, false
	}
	return data[:i], id, true
}

// handleWorkoutFieldChoice asks for the new value of the chosen field
func (b *Bot) handleWorkoutFieldChoice(ctx context.Context, user *models.User, chatID int64, data string) error {
	name, id, ok := splitFieldID(data)
	if !ok {
		return nil
	}
	field := database.WorkoutField(name)

	var prompt string
	switch field {
	case fieldType:
		b.reply(chatID, "Выберите новый тип тренировки:", createKeyboard(workoutRetypeButtons(id)))
		return nil
	case fieldExercises:
		return b.handleExerciseList(ctx, user, chatID, id)
	case fieldDate:
		prompt = "Введите новую дату и время (ДД.ММ.ГГГГ ЧЧ:ММ):"
	case fieldDuration:
		prompt = "Новая длительность в минутах:"
	case fieldDistance:
		prompt = "Новая дистанция в км:"
	case fieldCalories:
		prompt = "Новое количество калорий:"
	case fieldNotes:
		prompt = "Новые заметки (или \"-\" чтобы очистить):"
	default:
		return nil
	}

	b.states.set(user.TelegramID, UserState{Step: stepWorkoutEditValue, TargetID: id, Field: string(field)})
	b.reply(chatID, prompt, cancelKeyboard())
	return nil
}

func (b *Bot) processWorkoutEdit(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	field := database.WorkoutField(st.Field)

	var value interface{}
	switch field {
	case fieldNotes:
		if text == "-" {
			text = ""
		}
		value = truncate(text, 500)
	case fieldDate:
		at, err := time.ParseInLocation(dateLayout, text, b.clock.Location())
		if err != nil {
			b.reply(chatID, "Неверный формат даты. Используйте ДД.ММ.ГГГГ ЧЧ:ММ", cancelKeyboard())
			return nil
		}
		value = at.UTC()
	case fieldDuration:
		v, err := parseNumber(text)
		if err != nil || v <= 0 {
			b.reply(chatID, "Длительность должна быть больше 0:", cancelKeyboard())
			return nil
		}
		value = v
	default:
		v, err := parseNumber(text)
		if err != nil || v < 0 {
			b.reply(chatID, "Введите число, 0 или больше:", cancelKeyboard())
			return nil
		}
		value = v
	}

	b.states.clear(user.TelegramID)
	err := b.store.Workouts.UpdateField(ctx, user.ID, st.TargetID, field, value)
	if errors.Is(err, database.ErrNotFound) {
		b.showMainMenu(chatID, user, msgWorkoutNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	b.showMainMenu(chatID, user, msgWorkoutUpdated)
	return nil
}

// handleWorkoutRetype applies a type picked from the edit menu, data is "<type>_<id>"
func (b *Bot) handleWorkoutRetype(ctx context.Context, user *models.User, chatID int64, data string) error {
	name, id, ok := splitFieldID(data)
	if !ok {
		return nil
	}
	t := models.WorkoutType(name)
	if !t.Valid() {
		b.reply(chatID, "Пожалуйста, выберите тип из списка.", nil)
		return nil
	}

	err := b.store.Workouts.UpdateType(ctx, user.ID, id, t)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgWorkoutNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.log.Info().Int64("user_id", user.ID).Int64("workout_id", id).Str("type", string(t)).Msg("workout type changed")
	b.showMainMenu(chatID, user, msgWorkoutUpdated)
	return nil
}

// handleExerciseList shows the exercises of a strength workout in the order they were logged
func (b *Bot) handleExerciseList(ctx context.Context, user *models.User, chatID int64, workoutID int64) error {
	w, err := b.store.Workouts.GetByID(ctx, user.ID, workoutID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgWorkoutNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if len(w.Exercises) == 0 {
		b.reply(chatID, "В этой тренировке нет упражнений.", nil)
		return nil
	}
	b.reply(chatID, "Выберите упражнение для редактирования:", createKeyboard(exerciseListButtons(w.Exercises)))
	return nil
}

func (b *Bot) handleExerciseMenu(ctx context.Context, user *models.User, chatID int64, exerciseID int64) error {
	ex, err := b.store.Workouts.GetExercise(ctx, user.ID, exerciseID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgExerciseNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(chatID, "Что изменить?\n\n"+formatExercise(ex), createKeyboard(exerciseFieldButtons(ex)))
	return nil
}

// handleExerciseFieldChoice asks for a new exercise value, data is "<field>_<exerciseID>"
func (b *Bot) handleExerciseFieldChoice(ctx context.Context, user *models.User, chatID int64, data string) error {
	name, id, ok := splitFieldID(data)
	if !ok {
		return nil
	}
	field := database.ExerciseField(name)

	var prompt string
	switch field {
	case database.ExerciseName:
		prompt = "Введите новое название упражнения:"
	case database.ExerciseSets:
		prompt = "Введите новое количество подходов:"
	case database.ExerciseReps:
		prompt = "Введите новое количество повторений:"
	case database.ExerciseWeight:
		prompt = "Введите новый вес (кг):"
	default:
		return nil
	}
	if _, err := b.store.Workouts.GetExercise(ctx, user.ID, id); errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgExerciseNotFound, nil)
		return nil
	} else if err != nil {
		return err
	}

	b.states.set(user.TelegramID, UserState{Step: stepExerciseEditValue, TargetID: id, Field: string(field)})
	b.reply(chatID, prompt, cancelKeyboard())
	return nil
}

func (b *Bot) processExerciseEdit(ctx context.Context, user *models.User, chatID int64, st UserState, text string) error {
	field := database.ExerciseField(st.Field)

	var value interface{}
	switch field {
	case database.ExerciseName:
		if text == "" || utf8.RuneCountInString(text) > 64 {
			b.reply(chatID, "Название должно быть от 1 до 64 символов:", cancelKeyboard())
			return nil
		}
		value = text
	case database.ExerciseWeight:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			b.reply(chatID, "Введите целое число, 0 или больше:", cancelKeyboard())
			return nil
		}
		value = n
	default:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(chatID, msgPositiveInt, cancelKeyboard())
			return nil
		}
		value = n
	}

	b.states.clear(user.TelegramID)
	err := b.store.Workouts.UpdateExercise(ctx, user.ID, st.TargetID, field, value)
	if errors.Is(err, database.ErrNotFound) {
		b.showMainMenu(chatID, user, msgExerciseNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	b.showMainMenu(chatID, user, "✅ Изменения сохранены!")
	return b.handleExerciseMenu(ctx, user, chatID, st.TargetID)
}

func (b *Bot) handleExerciseDelete(ctx context.Context, user *models.User, chatID int64, exerciseID int64) error {
	ex, err := b.store.Workouts.GetExercise(ctx, user.ID, exerciseID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, msgExerciseNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.store.Workouts.DeleteExercise(ctx, user.ID, exerciseID); err != nil {
		return err
	}
	b.reply(chatID, "✅ Упражнение удалено!", nil)

	w, err := b.store.Workouts.GetByID(ctx, user.ID, ex.WorkoutID)
	if err != nil {
		return err
	}
	if len(w.Exercises) == 0 {
		b.showMainMenu(chatID, user, "В тренировке больше нет упражнений.")
		return nil
	}
	b.reply(chatID, "Выберите упражнение для редактирования:", createKeyboard(exerciseListButtons(w.Exercises)))
	return nil
}
