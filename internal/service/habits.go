package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/ownership"
	"github.com/danek0100/External-Observer/internal/report"
	"github.com/danek0100/External-Observer/internal/repository"
)

// DefaultMaxPeriodDays bounds period queries when no limit is configured.
const DefaultMaxPeriodDays = 366

// HabitService defines habit CRUD, ordering and daily checks.
type HabitService interface {
	// ListHabits returns owner's habits ordered by display order.
	ListHabits(ctx context.Context, owner string) ([]model.Habit, error)
	// CreateHabit places the new habit after all existing ones.
	CreateHabit(ctx context.Context, owner string, in model.HabitInput) (*model.Habit, error)
	// UpdateHabit changes name, description and purpose only.
	UpdateHabit(ctx context.Context, owner string, id uuid.UUID, in model.HabitInput) (*model.Habit, error)
	// DeleteHabit removes the habit and all of its checks.
	DeleteHabit(ctx context.Context, owner string, id uuid.UUID) error
	// ReorderHabits sets order=i+1 for ids[i], all or nothing.
	ReorderHabits(ctx context.Context, owner string, ids []uuid.UUID) error
	// ChecksForDay returns owner's checks of a single day.
	ChecksForDay(ctx context.Context, owner string, day model.Day) ([]model.HabitCheck, error)
	// ChecksForPeriod returns owner's checks with from <= day <= to, by day ascending.
	ChecksForPeriod(ctx context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error)
	// UpsertCheck records completion of a habit on a day, creating or updating the single check.
	UpsertCheck(ctx context.Context, owner string, habitID uuid.UUID, day model.Day, completed bool, comment string) (*model.HabitCheck, error)
	// Period aggregates habits and checks of [from, to] into a grid.
	Period(ctx context.Context, owner string, from, to model.Day) (*report.Grid, error)
}

type HabitServiceImpl struct {
	habits    repository.HabitRepository
	checks    repository.CheckRepository
	policy    ownership.Policy
	maxPeriod int
	now       func() time.Time
}

// NewHabitService constructs HabitService. maxPeriodDays <= 0 selects DefaultMaxPeriodDays.
func NewHabitService(habits repository.HabitRepository, checks repository.CheckRepository, policy ownership.Policy, maxPeriodDays int) *HabitServiceImpl {
	if maxPeriodDays <= 0 {
		maxPeriodDays = DefaultMaxPeriodDays
	}
	return &HabitServiceImpl{habits: habits, checks: checks, policy: policy, maxPeriod: maxPeriodDays, now: time.Now}
}

func (s *HabitServiceImpl) clock() time.Time { return s.now().UTC() }

func validateHabit(in *model.HabitInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	return nil
}

func (s *HabitServiceImpl) ListHabits(ctx context.Context, owner string) ([]model.Habit, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	return s.habits.ListByOwner(ctx, owner)
}

func (s *HabitServiceImpl) CreateHabit(ctx context.Context, owner string, in model.HabitInput) (*model.Habit, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if err := validateHabit(&in); err != nil {
		return nil, err
	}
	max, err := s.habits.MaxOrder(ctx, owner)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.clock()
	h := &model.Habit{
		ID:          id,
		Owner:       owner,
		Name:        in.Name,
		Description: in.Description,
		Purpose:     in.Purpose,
		Order:       max + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.habits.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HabitServiceImpl) UpdateHabit(ctx context.Context, owner string, id uuid.UUID, in model.HabitInput) (*model.Habit, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if err := validateHabit(&in); err != nil {
		return nil, err
	}
	now := s.clock()
	h, err := s.habits.Update(ctx, id, func(h *model.Habit) error {
		if err := s.policy.Authorize(owner, h.Owner); err != nil {
			return err
		}
		h.Name, h.Description, h.Purpose, h.UpdatedAt = in.Name, in.Description, in.Purpose, now
		return nil
	})
	return h, s.missing(err)
}

func (s *HabitServiceImpl) DeleteHabit(ctx context.Context, owner string, id uuid.UUID) error {
	if owner == "" {
		return errs.ErrUnauthorized
	}
	err := s.habits.Delete(ctx, id, func(h model.Habit) error {
		return s.policy.Authorize(owner, h.Owner)
	})
	return s.missing(err)
}

// ReorderHabits rejects repeated ids; an unknown or foreign id fails the whole batch.
func (s *HabitServiceImpl) ReorderHabits(ctx context.Context, owner string, ids []uuid.UUID) error {
	if owner == "" {
		return errs.ErrUnauthorized
	}
	if len(ids) == 0 {
		return nil
	}
	seen := mapset.NewThreadUnsafeSetWithSize[uuid.UUID](len(ids))
	for i, id := range ids {
		if id == uuid.Nil {
			return fmt.Errorf("%w: ids[%d] is empty", errs.ErrValidation, i)
		}
		if !seen.Add(id) {
			return fmt.Errorf("%w: habit %s listed twice", errs.ErrValidation, id)
		}
	}
	err := s.habits.Reorder(ctx, ids, func(h model.Habit) error {
		return s.policy.Authorize(owner, h.Owner)
	}, s.clock())
	return s.missing(err)
}

func (s *HabitServiceImpl) ChecksForDay(ctx context.Context, owner string, day model.Day) ([]model.HabitCheck, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	return s.checks.Between(ctx, owner, day, day)
}

func (s *HabitServiceImpl) ChecksForPeriod(ctx context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if err := s.validatePeriod(from, to); err != nil {
		return nil, err
	}
	return s.checks.Between(ctx, owner, from, to)
}

// UpsertCheck keeps createdAt of an existing check and advances updatedAt.
func (s *HabitServiceImpl) UpsertCheck(ctx context.Context, owner string, habitID uuid.UUID, day model.Day, completed bool, comment string) (*model.HabitCheck, error) {
	if owner == "" {
		return nil, errs.ErrUnauthorized
	}
	if day.IsZero() {
		return nil, fmt.Errorf("%w: date is required", errs.ErrValidation)
	}
	h, err := s.habits.Get(ctx, habitID)
	if err != nil {
		return nil, s.missing(err)
	}
	if err := s.policy.Authorize(owner, h.Owner); err != nil {
		return nil, err
	}

	now := s.clock()
	c, err := s.checks.Find(ctx, owner, habitID, day)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		c = &model.HabitCheck{ID: id, HabitID: habitID, Owner: owner, Day: day, CreatedAt: now}
	case err != nil:
		return nil, err
	}
	c.Completed = completed
	c.Comment = strings.TrimSpace(comment)
	c.UpdatedAt = now
	return s.checks.Save(ctx, c)
}

func (s *HabitServiceImpl) Period(ctx context.Context, owner string, from, to model.Day) (*report.Grid, error) {
	checks, err := s.ChecksForPeriod(ctx, owner, from, to)
	if err != nil {
		return nil, err
	}
	habits, err := s.habits.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return report.Aggregate(habits, checks, from, to), nil
}

func (s *HabitServiceImpl) validatePeriod(from, to model.Day) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", errs.ErrValidation)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: end date %s before start date %s", errs.ErrValidation, to, from)
	}
	if n := from.DaysUntil(to) + 1; n > s.maxPeriod {
		return fmt.Errorf("%w: period of %d days exceeds %d", errs.ErrValidation, n, s.maxPeriod)
	}
	return nil
}

// missing maps a repository miss to the policy's signal for absent resources.
func (s *HabitServiceImpl) missing(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return s.policy.Missing()
	}
	return err
}
