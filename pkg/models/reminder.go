package models

// Reminder is a recurring weekly notification rule
type Reminder struct {
	ID        int64  `json:"id" db:"id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	Text      string `json:"text" db:"text"`
	TimeOfDay string `json:"time_of_day" db:"time_of_day"` // HH:MM:SS
	DayOfWeek string `json:"day_of_week" db:"day_of_week"`
}

// ScheduledReminder is a reminder joined with the owner fields the scheduler needs
type ScheduledReminder struct {
	Reminder
	TelegramID int64 `json:"telegram_id" db:"telegram_id"`
	IsBanned   bool  `json:"is_banned" db:"is_banned"`
}
