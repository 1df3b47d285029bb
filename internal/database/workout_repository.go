package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/fitbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

const workoutColumns = "id, user_id, performed_at, type, duration, distance, calories, notes"

// WorkoutField names a column that can be edited after logging
type WorkoutField string

const (
	FieldDuration WorkoutField = "duration"
	FieldDistance WorkoutField = "distance"
	FieldCalories WorkoutField = "calories"
	FieldNotes    WorkoutField = "notes"
	FieldDate     WorkoutField = "performed_at"
)

// ExerciseField names an editable column of an exercise
type ExerciseField string

const (
	ExerciseName   ExerciseField = "name"
	ExerciseSets   ExerciseField = "sets"
	ExerciseReps   ExerciseField = "reps"
	ExerciseWeight ExerciseField = "weight"
)

// ownedExercise matches an exercise whose workout belongs to the user
const ownedExercise = "id = ? AND workout_id IN (SELECT id FROM workouts WHERE user_id = ?)"

// WorkoutRepository handles database operations for workouts and their exercises
type WorkoutRepository struct {
	db *sqlx.DB
}

// NewWorkoutRepository creates a new repository instance
func NewWorkoutRepository(db *sqlx.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// Create inserts the workout together with its exercises in one transaction
func (r *WorkoutRepository) Create(ctx context.Context, w *models.Workout) error {
	if !w.Type.Valid() {
		return fmt.Errorf("unknown workout type %q", w.Type)
	}
	if w.PerformedAt.IsZero() {
		w.PerformedAt = time.Now().UTC()
	}
	if !w.Type.HasDistance() {
		w.Distance = 0
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO workouts (user_id, performed_at, type, duration, distance, calories, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), w.UserID, w.PerformedAt, w.Type, w.Duration, w.Distance, w.Calories, w.Notes).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}

	// Exercises only carry meaning for strength workouts
	if w.Type.HasExercises() {
		for i := range w.Exercises {
			ex := &w.Exercises[i]
			ex.WorkoutID = w.ID
			err = tx.QueryRowxContext(ctx, tx.Rebind(`
				INSERT INTO exercises (workout_id, name, sets, reps, weight)
				VALUES (?, ?, ?, ?, ?)
				RETURNING id
			`), ex.WorkoutID, ex.Name, ex.Sets, ex.Reps, ex.Weight).Scan(&ex.ID)
			if err != nil {
				return fmt.Errorf("failed to create exercise: %w", err)
			}
		}
	} else {
		w.Exercises = nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID returns one of the user's workouts with its exercises
func (r *WorkoutRepository) GetByID(ctx context.Context, userID, id int64) (*models.Workout, error) {
	var w models.Workout
	query := r.db.Rebind("SELECT " + workoutColumns + " FROM workouts WHERE id = ? AND user_id = ?")
	err := r.db.GetContext(ctx, &w, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}

	workouts := []models.Workout{w}
	if err := r.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}
	return &workouts[0], nil
}

// ListByUser returns a page of workouts, newest first
func (r *WorkoutRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Workout, error) {
	query := r.db.Rebind(`SELECT ` + workoutColumns + ` FROM workouts
		WHERE user_id = ?
		ORDER BY performed_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	var workouts []models.Workout
	if err := r.db.SelectContext(ctx, &workouts, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	if err := r.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// attachExercises loads exercises for the strength workouts in the slice
func (r *WorkoutRepository) attachExercises(ctx context.Context, workouts []models.Workout) error {
	var ids []int64
	index := make(map[int64]int)
	for i, w := range workouts {
		if w.Type.HasExercises() {
			ids = append(ids, w.ID)
			index[w.ID] = i
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`SELECT id, workout_id, name, sets, reps, weight
		FROM exercises WHERE workout_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to build exercises query: %w", err)
	}

	var exercises []models.Exercise
	if err := r.db.SelectContext(ctx, &exercises, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load exercises: %w", err)
	}
	for _, ex := range exercises {
		i := index[ex.WorkoutID]
		workouts[i].Exercises = append(workouts[i].Exercises, ex)
	}
	return nil
}

// CountByUser returns the number of workouts the user logged
func (r *WorkoutRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM workouts WHERE user_id = ?"), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return n, nil
}

// UpdateField changes a single editable field of the user's workout
func (r *WorkoutRepository) UpdateField(ctx context.Context, userID, id int64, field WorkoutField, value interface{}) error {
	switch field {
	case FieldDuration, FieldDistance, FieldCalories, FieldNotes, FieldDate:
	default:
		return fmt.Errorf("field %q is not editable", field)
	}
	// field is whitelisted above
	query := "UPDATE workouts SET " + string(field) + " = ? WHERE id = ? AND user_id = ?"
	return execOne(ctx, r.db, query, value, id, userID)
}

// UpdateType changes the workout type. Distance is reset for types that do
// not track it and exercises are removed when leaving strength.
func (r *WorkoutRepository) UpdateType(ctx context.Context, userID, id int64, t models.WorkoutType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown workout type %q", t)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "UPDATE workouts SET type = ? WHERE id = ? AND user_id = ?"
	if !t.HasDistance() {
		query = "UPDATE workouts SET type = ?, distance = 0 WHERE id = ? AND user_id = ?"
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), t, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update workout type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if !t.HasExercises() {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM exercises WHERE workout_id = ?"), id); err != nil {
			return fmt.Errorf("failed to drop exercises: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExercise returns an exercise from one of the user's workouts
func (r *WorkoutRepository) GetExercise(ctx context.Context, userID, exerciseID int64) (*models.Exercise, error) {
	var ex models.Exercise
	query := r.db.Rebind("SELECT id, workout_id, name, sets, reps, weight FROM exercises WHERE " + ownedExercise)
	err := r.db.GetContext(ctx, &ex, query, exerciseID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return &ex, nil
}

// UpdateExercise changes a single field of an exercise in the user's workout
func (r *WorkoutRepository) UpdateExercise(ctx context.Context, userID, exerciseID int64, field ExerciseField, value interface{}) error {
	switch field {
	case ExerciseName, ExerciseSets, ExerciseReps, ExerciseWeight:
	default:
		return fmt.Errorf("exercise field %q is not editable", field)
	}
	query := "UPDATE exercises SET " + string(field) + " = ? WHERE " + ownedExercise
	return execOne(ctx, r.db, query, value, exerciseID, userID)
}

// DeleteExercise removes an exercise from the user's workout
func (r *WorkoutRepository) DeleteExercise(ctx context.Context, userID, exerciseID int64) error {
	return execOne(ctx, r.db, "DELETE FROM exercises WHERE "+ownedExercise, exerciseID, userID)
}

// Delete removes the user's workout and its exercises
func (r *WorkoutRepository) Delete(ctx context.Context, userID, id int64) error {
	return execOne(ctx, r.db, "DELETE FROM workouts WHERE id = ? AND user_id = ?", id, userID)
}
