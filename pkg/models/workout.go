package models

import "time"

// WorkoutType is one of the supported training kinds
type WorkoutType string

const (
	WorkoutStrength    WorkoutType = "strength"
	WorkoutRunning     WorkoutType = "running"
	WorkoutCycling     WorkoutType = "cycling"
	WorkoutYoga        WorkoutType = "yoga"
	WorkoutSwimming    WorkoutType = "swimming"
	WorkoutJumpingRope WorkoutType = "jumping_rope"
)

// WorkoutTypes lists every type in menu order
var WorkoutTypes = []WorkoutType{
	WorkoutStrength,
	WorkoutRunning,
	WorkoutCycling,
	WorkoutYoga,
	WorkoutSwimming,
	WorkoutJumpingRope,
}

// Valid reports whether t belongs to the enumeration
func (t WorkoutType) Valid() bool {
	for _, known := range WorkoutTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasDistance reports whether distance is meaningful for this type
func (t WorkoutType) HasDistance() bool {
	return t == WorkoutRunning || t == WorkoutCycling || t == WorkoutSwimming
}

// HasExercises reports whether exercises are tracked for this type
func (t WorkoutType) HasExercises() bool {
	return t == WorkoutStrength
}

// Workout represents one exercise session
type Workout struct {
	ID          int64       `json:"id" db:"id"`
	UserID      int64       `json:"user_id" db:"user_id"`
	PerformedAt time.Time   `json:"performed_at" db:"performed_at"`
	Type        WorkoutType `json:"type" db:"type"`
	Duration    float64     `json:"duration" db:"duration"` // minutes
	Distance    float64     `json:"distance" db:"distance"` // km
	Calories    float64     `json:"calories" db:"calories"`
	Notes       string      `json:"notes" db:"notes"`
	Exercises   []Exercise  `json:"exercises,omitempty" db:"-"`
}
