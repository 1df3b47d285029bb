package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/fitbot/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	store := NewStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, s *Store, telegramID int64, name string) *models.User {
	t.Helper()
	u := &models.User{TelegramID: telegramID, Name: name}
	if err := s.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("Users.Create() error = %v", err)
	}
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := createUser(t, s, 1001, "Alice")
	if u.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := s.Users.GetByTelegramID(ctx, 1001)
	if err != nil {
		t.Fatalf("GetByTelegramID() error = %v", err)
	}
	if got.Name != "Alice" || got.IsAdmin || got.IsBanned {
		t.Errorf("unexpected user %+v", got)
	}

	if _, err := s.Users.GetByTelegramID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByTelegramID(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Users.Rename(ctx, u.ID, "Alicia"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if err := s.Users.SetBanned(ctx, 1001, true); err != nil {
		t.Fatalf("SetBanned() error = %v", err)
	}
	if err := s.Users.SetAdmin(ctx, 1001, true); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	got, err = s.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Alicia" || !got.IsBanned || !got.IsAdmin {
		t.Errorf("unexpected user after updates %+v", got)
	}

	if err := s.Users.SetBanned(ctx, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetBanned(missing) error = %v, want ErrNotFound", err)
	}

	createUser(t, s, 1002, "Bob")
	n, err := s.Users.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
	page, err := s.Users.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("List(limit 1) returned %d users", len(page))
	}
}

func TestUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")

	w := &models.Workout{
		UserID:   u.ID,
		Type:     models.WorkoutStrength,
		Duration: 45,
		Exercises: []models.Exercise{
			{Name: "Жим лёжа", Sets: 3, Reps: 10, Weight: 60},
		},
	}
	if err := s.Workouts.Create(ctx, w); err != nil {
		t.Fatalf("Workouts.Create() error = %v", err)
	}
	rem := &models.Reminder{UserID: u.ID, Text: "Тренировка", TimeOfDay: "08:00", DayOfWeek: "Monday"}
	if err := s.Reminders.Create(ctx, rem); err != nil {
		t.Fatalf("Reminders.Create() error = %v", err)
	}

	if err := s.Users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for table, want := range map[string]int{"workouts": 0, "exercises": 0, "reminders": 0} {
		var n int
		if err := s.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Errorf("%s rows = %d, want %d", table, n, want)
		}
	}
}

func TestWorkoutRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")
	other := createUser(t, s, 1002, "Bob")

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	strength := &models.Workout{
		UserID:      u.ID,
		PerformedAt: base,
		Type:        models.WorkoutStrength,
		Duration:    60,
		Calories:    400,
		Exercises: []models.Exercise{
			{Name: "Присед", Sets: 5, Reps: 5, Weight: 100},
			{Name: "Тяга", Sets: 3, Reps: 8, Weight: 80},
		},
	}
	run := &models.Workout{
		UserID:      u.ID,
		PerformedAt: base.Add(24 * time.Hour),
		Type:        models.WorkoutRunning,
		Duration:    30,
		Distance:    5.5,
		Calories:    300,
		Notes:       "парк",
		Exercises:   []models.Exercise{{Name: "ignored"}},
	}
	for _, w := range []*models.Workout{strength, run} {
		if err := s.Workouts.Create(ctx, w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if run.Exercises != nil {
		t.Error("exercises must be dropped for non-strength workouts")
	}

	got, err := s.Workouts.GetByID(ctx, u.ID, strength.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Exercises) != 2 || got.Exercises[0].Name != "Присед" {
		t.Errorf("unexpected exercises %+v", got.Exercises)
	}

	if _, err := s.Workouts.GetByID(ctx, other.ID, strength.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(other owner) error = %v, want ErrNotFound", err)
	}

	list, err := s.Workouts.ListByUser(ctx, u.ID, 5, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != run.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if len(list[1].Exercises) != 2 {
		t.Errorf("list did not load exercises: %+v", list[1])
	}

	n, err := s.Workouts.CountByUser(ctx, u.ID)
	if err != nil || n != 2 {
		t.Errorf("CountByUser() = %d, %v; want 2", n, err)
	}

	if err := s.Workouts.UpdateField(ctx, u.ID, run.ID, FieldNotes, "стадион"); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	if err := s.Workouts.UpdateField(ctx, u.ID, run.ID, WorkoutField("type"), "yoga"); err == nil {
		t.Error("UpdateField(type) should be rejected")
	}
	if err := s.Workouts.UpdateField(ctx, other.ID, run.ID, FieldNotes, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateField(other owner) error = %v, want ErrNotFound", err)
	}

	if err := s.Workouts.Delete(ctx, u.ID, strength.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Workouts.Delete(ctx, u.ID, strength.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestWorkoutTypeAndDateEdit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")
	other := createUser(t, s, 1002, "Bob")

	w := &models.Workout{
		UserID:    u.ID,
		Type:      models.WorkoutStrength,
		Duration:  40,
		Exercises: []models.Exercise{{Name: "Присед", Sets: 5, Reps: 5, Weight: 100}},
	}
	if err := s.Workouts.Create(ctx, w); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Workouts.UpdateType(ctx, u.ID, w.ID, "pilates"); err == nil {
		t.Error("UpdateType(unknown) should fail")
	}
	if err := s.Workouts.UpdateType(ctx, other.ID, w.ID, models.WorkoutRunning); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateType(other owner) error = %v, want ErrNotFound", err)
	}

	if err := s.Workouts.UpdateType(ctx, u.ID, w.ID, models.WorkoutRunning); err != nil {
		t.Fatalf("UpdateType(running) error = %v", err)
	}
	if err := s.Workouts.UpdateField(ctx, u.ID, w.ID, FieldDistance, 7.0); err != nil {
		t.Fatalf("UpdateField(distance) error = %v", err)
	}
	got, err := s.Workouts.GetByID(ctx, u.ID, w.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Type != models.WorkoutRunning || got.Distance != 7 {
		t.Errorf("after type change = %+v", got)
	}
	if _, err := s.Workouts.GetExercise(ctx, u.ID, w.Exercises[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("exercise kept after leaving strength: %v", err)
	}

	if err := s.Workouts.UpdateType(ctx, u.ID, w.ID, models.WorkoutYoga); err != nil {
		t.Fatalf("UpdateType(yoga) error = %v", err)
	}
	if got, _ = s.Workouts.GetByID(ctx, u.ID, w.ID); got.Distance != 0 {
		t.Errorf("distance = %v after switching to yoga, want 0", got.Distance)
	}

	at := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	if err := s.Workouts.UpdateField(ctx, u.ID, w.ID, FieldDate, at); err != nil {
		t.Fatalf("UpdateField(date) error = %v", err)
	}
	if got, _ = s.Workouts.GetByID(ctx, u.ID, w.ID); !got.PerformedAt.Equal(at) {
		t.Errorf("PerformedAt = %v, want %v", got.PerformedAt, at)
	}
}

func TestExerciseEdit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")
	other := createUser(t, s, 1002, "Bob")

	w := &models.Workout{
		UserID:   u.ID,
		Type:     models.WorkoutStrength,
		Duration: 40,
		Exercises: []models.Exercise{
			{Name: "Присед", Sets: 5, Reps: 5, Weight: 100},
			{Name: "Тяга", Sets: 3, Reps: 8, Weight: 80},
		},
	}
	if err := s.Workouts.Create(ctx, w); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	first, second := w.Exercises[0].ID, w.Exercises[1].ID

	tests := []struct {
		field ExerciseField
		value interface{}
	}{
		{ExerciseName, "Фронтальный присед"},
		{ExerciseSets, 4},
		{ExerciseReps, 6},
		{ExerciseWeight, 90},
	}
	for _, tt := range tests {
		if err := s.Workouts.UpdateExercise(ctx, u.ID, first, tt.field, tt.value); err != nil {
			t.Fatalf("UpdateExercise(%s) error = %v", tt.field, err)
		}
	}
	ex, err := s.Workouts.GetExercise(ctx, u.ID, first)
	if err != nil {
		t.Fatalf("GetExercise() error = %v", err)
	}
	if ex.Name != "Фронтальный присед" || ex.Sets != 4 || ex.Reps != 6 || ex.Weight != 90 || ex.WorkoutID != w.ID {
		t.Errorf("edited exercise = %+v", ex)
	}

	if err := s.Workouts.UpdateExercise(ctx, u.ID, first, ExerciseField("workout_id"), 1); err == nil {
		t.Error("UpdateExercise(workout_id) should be rejected")
	}
	if err := s.Workouts.UpdateExercise(ctx, other.ID, first, ExerciseSets, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateExercise(other owner) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Workouts.GetExercise(ctx, other.ID, first); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExercise(other owner) error = %v, want ErrNotFound", err)
	}
	if err := s.Workouts.DeleteExercise(ctx, other.ID, second); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteExercise(other owner) error = %v, want ErrNotFound", err)
	}

	if err := s.Workouts.DeleteExercise(ctx, u.ID, second); err != nil {
		t.Fatalf("DeleteExercise() error = %v", err)
	}
	got, err := s.Workouts.GetByID(ctx, u.ID, w.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Exercises) != 1 || got.Exercises[0].ID != first {
		t.Errorf("exercises after delete = %+v", got.Exercises)
	}
}

func TestWorkoutCreateRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")
	w := &models.Workout{UserID: u.ID, Type: "pilates", Duration: 10}
	if err := s.Workouts.Create(context.Background(), w); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestReminderRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")

	rem := &models.Reminder{UserID: u.ID, Text: "Пробежка", TimeOfDay: "7:30", DayOfWeek: "понедельник"}
	if err := s.Reminders.Create(ctx, rem); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rem.DayOfWeek != "Monday" || rem.TimeOfDay != "07:30:00" {
		t.Errorf("schedule not normalized: %q %q", rem.DayOfWeek, rem.TimeOfDay)
	}

	bad := &models.Reminder{UserID: u.ID, Text: "x", TimeOfDay: "25:00", DayOfWeek: "Monday"}
	if err := s.Reminders.Create(ctx, bad); err == nil {
		t.Error("expected error for invalid time")
	}
	bad = &models.Reminder{UserID: u.ID, Text: "x", TimeOfDay: "08:00", DayOfWeek: "Someday"}
	if err := s.Reminders.Create(ctx, bad); err == nil {
		t.Error("expected error for invalid day")
	}

	if err := s.Reminders.UpdateText(ctx, u.ID, rem.ID, "Бег"); err != nil {
		t.Fatalf("UpdateText() error = %v", err)
	}
	if err := s.Reminders.UpdateTime(ctx, u.ID, rem.ID, "18:45"); err != nil {
		t.Fatalf("UpdateTime() error = %v", err)
	}
	if err := s.Reminders.UpdateDay(ctx, u.ID, rem.ID, "Пятница"); err != nil {
		t.Fatalf("UpdateDay() error = %v", err)
	}

	got, err := s.Reminders.GetByID(ctx, u.ID, rem.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := models.Reminder{ID: rem.ID, UserID: u.ID, Text: "Бег", TimeOfDay: "18:45:00", DayOfWeek: "Friday"}
	if *got != want {
		t.Errorf("GetByID() = %+v, want %+v", *got, want)
	}

	second := &models.Reminder{UserID: u.ID, Text: "Йога", TimeOfDay: "20:00", DayOfWeek: "Sunday"}
	if err := s.Reminders.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	list, err := s.Reminders.ListByUser(ctx, u.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByUser() = %d, %v; want 2", len(list), err)
	}

	if err := s.Reminders.Delete(ctx, u.ID+1, rem.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(other owner) error = %v, want ErrNotFound", err)
	}
	deleted, err := s.Reminders.DeleteAllByUser(ctx, u.ID)
	if err != nil || deleted != 2 {
		t.Errorf("DeleteAllByUser() = %d, %v; want 2", deleted, err)
	}
}

func TestListScheduledSkipsBannedUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	active := createUser(t, s, 1001, "Alice")
	banned := createUser(t, s, 1002, "Bob")

	for _, uid := range []int64{active.ID, banned.ID} {
		rem := &models.Reminder{UserID: uid, Text: "Тренировка", TimeOfDay: "08:00", DayOfWeek: "Monday"}
		if err := s.Reminders.Create(ctx, rem); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := s.Users.SetBanned(ctx, 1002, true); err != nil {
		t.Fatalf("SetBanned() error = %v", err)
	}

	scheduled, err := s.Reminders.ListScheduled(ctx)
	if err != nil {
		t.Fatalf("ListScheduled() error = %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("ListScheduled() returned %d rows, want 1", len(scheduled))
	}
	if scheduled[0].TelegramID != 1001 || scheduled[0].IsBanned || scheduled[0].UserID != active.ID {
		t.Errorf("unexpected row %+v", scheduled[0])
	}
}

func TestStatisticsRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, 1001, "Alice")
	bob := createUser(t, s, 1002, "Bob")
	createUser(t, s, 1003, "Carol")

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	workouts := []*models.Workout{
		{UserID: alice.ID, PerformedAt: now.Add(-48 * time.Hour), Type: models.WorkoutRunning, Duration: 30, Distance: 5, Calories: 300},
		{UserID: alice.ID, PerformedAt: now.Add(-40 * 24 * time.Hour), Type: models.WorkoutYoga, Duration: 60, Calories: 150},
		{UserID: bob.ID, PerformedAt: now, Type: models.WorkoutCycling, Duration: 120, Distance: 40, Calories: 900},
	}
	for _, w := range workouts {
		if err := s.Workouts.Create(ctx, w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := s.Statistics.Summary(ctx, alice.ID, time.Time{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if all.Count != 2 || all.TotalDuration != 90 || all.TotalCalories != 450 || all.TotalDistance != 5 {
		t.Errorf("Summary(all) = %+v", all)
	}

	week, err := s.Statistics.Summary(ctx, alice.ID, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if week.Count != 1 || week.TotalDuration != 30 {
		t.Errorf("Summary(week) = %+v", week)
	}

	ranking, err := s.Statistics.Ranking(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Ranking() error = %v", err)
	}
	want := models.Ranking{ByDuration: 2, ByCalories: 2, ByCount: 1, TotalUsers: 3}
	if *ranking != want {
		t.Errorf("Ranking() = %+v, want %+v", *ranking, want)
	}

	if err := s.Users.SetBanned(ctx, 1003, true); err != nil {
		t.Fatalf("SetBanned() error = %v", err)
	}
	global, err := s.Statistics.Global(ctx)
	if err != nil {
		t.Fatalf("Global() error = %v", err)
	}
	wantGlobal := models.GlobalStats{Users: 3, Banned: 1, Admins: 0, Workouts: 3, Reminders: 0}
	if *global != wantGlobal {
		t.Errorf("Global() = %+v, want %+v", *global, wantGlobal)
	}
}

func TestDeliveryRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, 1001, "Alice")
	rem := &models.Reminder{UserID: u.ID, Text: "x", TimeOfDay: "08:00", DayOfWeek: "Monday"}
	if err := s.Reminders.Create(ctx, rem); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	slot := at.Format("2006-01-02T15:04")

	ok, err := s.Deliveries.Claim(ctx, rem.ID, slot, at)
	if err != nil || !ok {
		t.Fatalf("first Claim() = %v, %v; want true", ok, err)
	}
	ok, err = s.Deliveries.Claim(ctx, rem.ID, slot, at.Add(30*time.Second))
	if err != nil || ok {
		t.Fatalf("second Claim() = %v, %v; want false", ok, err)
	}

	if err := s.Deliveries.Release(ctx, rem.ID, slot); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	ok, err = s.Deliveries.Claim(ctx, rem.ID, slot, at)
	if err != nil || !ok {
		t.Fatalf("Claim() after release = %v, %v; want true", ok, err)
	}

	pruned, err := s.Deliveries.Prune(ctx, at.Add(time.Hour))
	if err != nil || pruned != 1 {
		t.Errorf("Prune() = %d, %v; want 1", pruned, err)
	}
}
