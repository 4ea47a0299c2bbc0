package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Habit is a named recurring goal tracked per user.
type Habit struct {
	ID          uuid.UUID `json:"id"`
	Owner       string    `json:"username"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Purpose     string    `json:"purpose"`
	Order       int       `json:"order"` // display rank, 1..N after a reorder
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HabitInput holds the mutable fields of a Habit.
type HabitInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// HabitCheck is a single day's completion record for one habit.
// At most one exists per (owner, habit, day).
type HabitCheck struct {
	ID        uuid.UUID `json:"id"`
	HabitID   uuid.UUID `json:"habitId"`
	Owner     string    `json:"username"`
	Day       Day       `json:"date"`
	Completed bool      `json:"completed"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
