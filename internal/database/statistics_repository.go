package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/fitbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StatisticsRepository aggregates workout data for reports
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Summary totals the user's workouts performed at or after since.
// A zero since covers the whole history.
func (r *StatisticsRepository) Summary(ctx context.Context, userID int64, since time.Time) (*models.WorkoutSummary, error) {
	query := `
		SELECT COUNT(*) AS workouts_count,
		       COALESCE(SUM(duration), 0) AS total_duration,
		       COALESCE(SUM(calories), 0) AS total_calories,
		       COALESCE(SUM(distance), 0) AS total_distance
		FROM workouts
		WHERE user_id = ?`
	args := []interface{}{userID}
	if !since.IsZero() {
		query += " AND performed_at >= ?"
		args = append(args, since.UTC())
	}

	var summary models.WorkoutSummary
	if err := r.db.GetContext(ctx, &summary, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get workout summary: %w", err)
	}
	return &summary, nil
}

type userTotals struct {
	UserID   int64   `db:"user_id"`
	Count    int     `db:"workouts_count"`
	Duration float64 `db:"total_duration"`
	Calories float64 `db:"total_calories"`
}

// Ranking places the user among everyone registered by total duration,
// total calories and workout count. Ties share the better place.
func (r *StatisticsRepository) Ranking(ctx context.Context, userID int64) (*models.Ranking, error) {
	var totals []userTotals
	err := r.db.SelectContext(ctx, &totals, `
		SELECT u.id AS user_id,
		       COUNT(w.id) AS workouts_count,
		       COALESCE(SUM(w.duration), 0) AS total_duration,
		       COALESCE(SUM(w.calories), 0) AS total_calories
		FROM users u
		LEFT JOIN workouts w ON w.user_id = u.id
		GROUP BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get user totals: %w", err)
	}

	var me *userTotals
	for i := range totals {
		if totals[i].UserID == userID {
			me = &totals[i]
			break
		}
	}
	if me == nil {
		return nil, ErrNotFound
	}

	ranking := &models.Ranking{ByDuration: 1, ByCalories: 1, ByCount: 1, TotalUsers: len(totals)}
	for _, t := range totals {
		if t.Duration > me.Duration {
			ranking.ByDuration++
		}
		if t.Calories > me.Calories {
			ranking.ByCalories++
		}
		if t.Count > me.Count {
			ranking.ByCount++
		}
	}
	return ranking, nil
}

// Global returns counters for the admin panel
func (r *StatisticsRepository) Global(ctx context.Context) (*models.GlobalStats, error) {
	var stats models.GlobalStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE is_banned) AS banned,
			(SELECT COUNT(*) FROM users WHERE is_admin) AS admins,
			(SELECT COUNT(*) FROM workouts) AS workouts,
			(SELECT COUNT(*) FROM reminders) AS reminders
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get global statistics: %w", err)
	}
	return &stats, nil
}
