package models

import "time"

// User represents a Telegram user registered with the bot
type User struct {
	ID           int64     `json:"id" db:"id"`
	TelegramID   int64     `json:"telegram_id" db:"telegram_id"`
	Name         string    `json:"name" db:"name"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsBanned     bool      `json:"is_banned" db:"is_banned"`
}
