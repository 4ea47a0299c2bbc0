package repository

import (
	"context"
	"time"

	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
)

// HabitRepository provides access to habits.
type HabitRepository interface {
	// Create inserts a new habit.
	Create(ctx context.Context, h *model.Habit) error
	// Get loads a habit by id regardless of owner.
	Get(ctx context.Context, id uuid.UUID) (*model.Habit, error)
	// ListByOwner returns owner's habits ordered by their display order.
	ListByOwner(ctx context.Context, owner string) ([]model.Habit, error)
	// MaxOrder returns the largest order among owner's habits, 0 if none.
	MaxOrder(ctx context.Context, owner string) (int, error)
	// Update locks the habit, lets fn modify it and stores name, description, purpose and updated_at.
	Update(ctx context.Context, id uuid.UUID, fn func(h *model.Habit) error) (*model.Habit, error)
	// Delete removes every check of the habit and then the habit itself, in one transaction.
	// authorize runs on the locked habit before anything is removed.
	Delete(ctx context.Context, id uuid.UUID, authorize func(h model.Habit) error) error
	// Reorder sets order=i+1 for ids[i] in one transaction. authorize runs on every
	// locked habit before the first write; any failure leaves all orders unchanged.
	Reorder(ctx context.Context, ids []uuid.UUID, authorize func(h model.Habit) error, at time.Time) error
}

// CheckRepository provides access to daily habit checks.
type CheckRepository interface {
	// Find returns the check of owner for habitID on day.
	Find(ctx context.Context, owner string, habitID uuid.UUID, day model.Day) (*model.HabitCheck, error)
	// Between returns owner's checks with from <= day <= to, ordered by day.
	Between(ctx context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error)
	// Save inserts the check or, if one exists for (owner, habit, day), updates
	// completed, comment and updated_at. The stored record is returned.
	Save(ctx context.Context, c *model.HabitCheck) (*model.HabitCheck, error)
}
