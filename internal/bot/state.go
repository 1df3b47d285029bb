package bot

import (
	"sync"
	"time"

	"github.com/example/fitbot/pkg/models"
)

// Conversation steps
const (
	stepExerciseName      = "exercise_name"
	stepExerciseSets      = "exercise_sets"
	stepExerciseReps      = "exercise_reps"
	stepExerciseWeight    = "exercise_weight"
	stepExerciseMore      = "exercise_more"
	stepWorkoutDistance   = "workout_distance"
	stepWorkoutDuration   = "workout_duration"
	stepWorkoutCalories   = "workout_calories"
	stepWorkoutNotes      = "workout_notes"
	stepWorkoutEditValue  = "workout_edit_value"
	stepExerciseEditValue = "exercise_edit_value"
	stepReminderDay       = "reminder_day"
	stepReminderTime      = "reminder_time"
	stepReminderText      = "reminder_text"
	stepReminderEditText  = "reminder_edit_text"
	stepReminderEditTime  = "reminder_edit_time"
	stepReminderEditDay   = "reminder_edit_day"
	stepRename            = "rename"
	stepAdminBanID        = "admin_ban_id"
)

// stateTTL drops forms the user abandoned
const stateTTL = time.Hour

// UserState is the pending form of one user
type UserState struct {
	Step      string
	Workout   models.Workout
	Exercise  models.Exercise
	Reminder  models.Reminder
	TargetID  int64
	Field     string
	Timestamp time.Time
}

// stateStore keeps conversation state in memory, keyed by Telegram user ID
type stateStore struct {
	mu     sync.Mutex
	states map[int64]UserState
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[int64]UserState), now: time.Now}
}

func (s *stateStore) get(userID int64) (UserState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return UserState{}, false
	}
	if s.now().Sub(st.Timestamp) > stateTTL {
		delete(s.states, userID)
		return UserState{}, false
	}
	return st, true
}

func (s *stateStore) set(userID int64, st UserState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Timestamp = s.now()
	s.states[userID] = st
}

func (s *stateStore) clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.states[userID]
	delete(s.states, userID)
	return ok
}

// userLocks serializes the handling of updates sent by the same user
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

// lock blocks until the user's previous updates are handled and returns the unlock func
func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
