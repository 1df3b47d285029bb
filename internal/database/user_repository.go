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

const userColumns = "id, telegram_id, name, registered_at, is_admin, is_banned"

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by internal ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByTelegramID returns a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE telegram_id = ?", telegramID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Create inserts a new user and fills in the generated ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO users (telegram_id, name, registered_at, is_admin, is_banned)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		user.TelegramID,
		user.Name,
		user.RegisteredAt,
		user.IsAdmin,
		user.IsBanned,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Rename updates the display name
func (r *UserRepository) Rename(ctx context.Context, id int64, name string) error {
	return r.exec(ctx, "UPDATE users SET name = ? WHERE id = ?", name, id)
}

// SetBanned bans or unbans the user with the given Telegram ID
func (r *UserRepository) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	return r.exec(ctx, "UPDATE users SET is_banned = ? WHERE telegram_id = ?", banned, telegramID)
}

// SetAdmin grants or revokes admin rights for the user with the given Telegram ID
func (r *UserRepository) SetAdmin(ctx context.Context, telegramID int64, admin bool) error {
	return r.exec(ctx, "UPDATE users SET is_admin = ? WHERE telegram_id = ?", admin, telegramID)
}

// Delete removes a user; workouts, exercises and reminders go with it
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, "DELETE FROM users WHERE id = ?", id)
}

// List returns users ordered by registration, newest first
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := r.db.Rebind("SELECT " + userColumns + " FROM users ORDER BY registered_at DESC, id DESC LIMIT ? OFFSET ?")

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// exec runs a single-row mutation and maps zero affected rows to ErrNotFound
func (r *UserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	return execOne(ctx, r.db, query, args...)
}

func execOne(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to execute %q: %w", firstWord(query), err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func firstWord(query string) string {
	for i, c := range query {
		if c == ' ' {
			return query[:i]
		}
	}
	return query
}
