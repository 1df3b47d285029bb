package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Store groups the repositories that share one connection pool
type Store struct {
	db *sqlx.DB

	Users      *UserRepository
	Workouts   *WorkoutRepository
	Reminders  *ReminderRepository
	Statistics *StatisticsRepository
	Deliveries *DeliveryRepository
}

// NewStore wires every repository to db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Workouts:   NewWorkoutRepository(db),
		Reminders:  NewReminderRepository(db),
		Statistics: NewStatisticsRepository(db),
		Deliveries: NewDeliveryRepository(db),
	}
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
