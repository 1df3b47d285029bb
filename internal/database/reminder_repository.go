package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/fitbot/internal/calendar"
	"github.com/example/fitbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

const reminderColumns = "id, user_id, text, time_of_day, day_of_week"

// ReminderRepository handles database operations for reminders
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new repository instance
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create stores a reminder. Day and time are normalized before insert:
// the day becomes its English name and the time HH:MM:SS.
func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder) error {
	day, clock, err := normalizeSchedule(rem.DayOfWeek, rem.TimeOfDay)
	if err != nil {
		return err
	}
	rem.DayOfWeek = day
	rem.TimeOfDay = clock

	query := r.db.Rebind(`
		INSERT INTO reminders (user_id, text, time_of_day, day_of_week)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err = r.db.QueryRowxContext(ctx, query, rem.UserID, rem.Text, rem.TimeOfDay, rem.DayOfWeek).Scan(&rem.ID)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func normalizeSchedule(day, timeOfDay string) (string, string, error) {
	canonical, err := calendar.CanonicalWeekday(day)
	if err != nil {
		return "", "", err
	}
	clock, err := calendar.ParseClock(timeOfDay)
	if err != nil {
		return "", "", err
	}
	return canonical, clock.String(), nil
}

// GetByID returns one of the user's reminders
func (r *ReminderRepository) GetByID(ctx context.Context, userID, id int64) (*models.Reminder, error) {
	var rem models.Reminder
	query := r.db.Rebind("SELECT " + reminderColumns + " FROM reminders WHERE id = ? AND user_id = ?")
	err := r.db.GetContext(ctx, &rem, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &rem, nil
}

// ListByUser returns the user's reminders in creation order
func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	query := r.db.Rebind("SELECT " + reminderColumns + " FROM reminders WHERE user_id = ? ORDER BY id")

	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// ListScheduled returns every reminder owned by a user who is not banned,
// joined with the owner's chat id. Rows are returned as stored; the
// matcher decides which of them are well formed.
func (r *ReminderRepository) ListScheduled(ctx context.Context) ([]models.ScheduledReminder, error) {
	query := r.db.Rebind(`
		SELECT r.id, r.user_id, r.text, r.time_of_day, r.day_of_week,
		       u.telegram_id, u.is_banned
		FROM reminders r
		JOIN users u ON u.id = r.user_id
		WHERE u.is_banned = ?
		ORDER BY r.id
	`)

	var reminders []models.ScheduledReminder
	if err := r.db.SelectContext(ctx, &reminders, query, false); err != nil {
		return nil, fmt.Errorf("failed to list scheduled reminders: %w", err)
	}
	return reminders, nil
}

// CountAll returns the number of reminders across all users
func (r *ReminderRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM reminders"); err != nil {
		return 0, fmt.Errorf("failed to count reminders: %w", err)
	}
	return n, nil
}

// UpdateText replaces the notification text
func (r *ReminderRepository) UpdateText(ctx context.Context, userID, id int64, text string) error {
	return execOne(ctx, r.db, "UPDATE reminders SET text = ? WHERE id = ? AND user_id = ?", text, id, userID)
}

// UpdateTime moves the reminder to another time of day
func (r *ReminderRepository) UpdateTime(ctx context.Context, userID, id int64, timeOfDay string) error {
	clock, err := calendar.ParseClock(timeOfDay)
	if err != nil {
		return err
	}
	return execOne(ctx, r.db, "UPDATE reminders SET time_of_day = ? WHERE id = ? AND user_id = ?", clock.String(), id, userID)
}

// UpdateDay moves the reminder to another day of the week
func (r *ReminderRepository) UpdateDay(ctx context.Context, userID, id int64, day string) error {
	canonical, err := calendar.CanonicalWeekday(day)
	if err != nil {
		return err
	}
	return execOne(ctx, r.db, "UPDATE reminders SET day_of_week = ? WHERE id = ? AND user_id = ?", canonical, id, userID)
}

// Delete removes one of the user's reminders
func (r *ReminderRepository) Delete(ctx context.Context, userID, id int64) error {
	return execOne(ctx, r.db, "DELETE FROM reminders WHERE id = ? AND user_id = ?", id, userID)
}

// DeleteAllByUser removes every reminder of the user and returns how many were deleted
func (r *ReminderRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM reminders WHERE user_id = ?"), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reminders: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
