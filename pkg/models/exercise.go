package models

// Exercise is a single strength movement inside a workout
type Exercise struct {
	ID        int64  `json:"id" db:"id"`
	WorkoutID int64  `json:"workout_id" db:"workout_id"`
	Name      string `json:"name" db:"name"`
	Sets      int    `json:"sets" db:"sets"`
	Reps      int    `json:"reps" db:"reps"`
	Weight    int    `json:"weight" db:"weight"` // kg
}
