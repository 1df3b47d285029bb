package models

// WorkoutSummary aggregates workouts over a period
type WorkoutSummary struct {
	Count         int     `json:"count" db:"workouts_count"`
	TotalDuration float64 `json:"total_duration" db:"total_duration"`
	TotalCalories float64 `json:"total_calories" db:"total_calories"`
	TotalDistance float64 `json:"total_distance" db:"total_distance"`
}

// Ranking is a user's position among all users, 1-based
type Ranking struct {
	ByDuration int `json:"by_duration"`
	ByCalories int `json:"by_calories"`
	ByCount    int `json:"by_count"`
	TotalUsers int `json:"total_users"`
}

// GlobalStats is the admin overview across all users
type GlobalStats struct {
	Users     int `json:"users" db:"users"`
	Banned    int `json:"banned" db:"banned"`
	Admins    int `json:"admins" db:"admins"`
	Workouts  int `json:"workouts" db:"workouts"`
	Reminders int `json:"reminders" db:"reminders"`
}
