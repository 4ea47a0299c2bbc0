package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

const habitColumns = `id, owner, name, description, purpose, sort_order, created_at, updated_at`

// HabitRepo implements HabitRepository using PostgreSQL.
type HabitRepo struct{ db *DB }

var _ repository.HabitRepository = (*HabitRepo)(nil)

// NewHabitRepo constructs a habit repository.
func NewHabitRepo(db *DB) *HabitRepo { return &HabitRepo{db: db} }

// Create inserts a new habit row.
func (r *HabitRepo) Create(ctx context.Context, h *model.Habit) error {
	const q = `INSERT INTO habits (` + habitColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Pool.Exec(ctx, q, h.ID, h.Owner, h.Name, h.Description, h.Purpose, h.Order, h.CreatedAt, h.UpdatedAt)
	return err
}

// Get selects a habit by id.
func (r *HabitRepo) Get(ctx context.Context, id uuid.UUID) (*model.Habit, error) {
	const q = `SELECT ` + habitColumns + ` FROM habits WHERE id=$1`
	h, err := scanHabit(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListByOwner returns habits ordered by sort_order.
func (r *HabitRepo) ListByOwner(ctx context.Context, owner string) ([]model.Habit, error) {
	const q = `SELECT ` + habitColumns + ` FROM habits WHERE owner=$1 ORDER BY sort_order ASC, created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// MaxOrder returns the current maximum sort_order for owner.
func (r *HabitRepo) MaxOrder(ctx context.Context, owner string) (int, error) {
	const q = `SELECT COALESCE(MAX(sort_order),0) FROM habits WHERE owner=$1`
	var v int
	if err := r.db.Pool.QueryRow(ctx, q, owner).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Update locks the habit row and stores the fields fn may change.
func (r *HabitRepo) Update(ctx context.Context, id uuid.UUID, fn func(h *model.Habit) error) (*model.Habit, error) {
	var out *model.Habit
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		h, err := lockHabit(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = fn(h); err != nil {
			return err
		}
		const upd = `UPDATE habits SET name=$2, description=$3, purpose=$4, updated_at=$5 WHERE id=$1`
		if _, err = tx.Exec(ctx, upd, h.ID, h.Name, h.Description, h.Purpose, h.UpdatedAt); err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the habit's checks and then the habit.
func (r *HabitRepo) Delete(ctx context.Context, id uuid.UUID, authorize func(h model.Habit) error) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		h, err := lockHabit(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = authorize(*h); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, `DELETE FROM habit_checks WHERE owner=$1 AND habit_id=$2`, h.Owner, h.ID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM habits WHERE id=$1`, h.ID)
		return err
	})
}

// Reorder validates every habit before writing any new order.
func (r *HabitRepo) Reorder(ctx context.Context, ids []uuid.UUID, authorize func(h model.Habit) error, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const sel = `SELECT ` + habitColumns + ` FROM habits WHERE id = ANY($1::uuid[]) FOR UPDATE`
		rows, err := tx.Query(ctx, sel, keys)
		if err != nil {
			return err
		}
		locked := make(map[uuid.UUID]model.Habit, len(ids))
		for rows.Next() {
			h, err := scanHabit(rows)
			if err != nil {
				rows.Close()
				return err
			}
			locked[h.ID] = *h
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			h, ok := locked[id]
			if !ok {
				return errs.ErrNotFound
			}
			if err = authorize(h); err != nil {
				return err
			}
		}

		const upd = `UPDATE habits SET sort_order=$2, updated_at=$3 WHERE id=$1`
		for i, id := range ids {
			if _, err = tx.Exec(ctx, upd, id, i+1, at); err != nil {
				return err
			}
		}
		return nil
	})
}

func lockHabit(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Habit, error) {
	const sel = `SELECT ` + habitColumns + ` FROM habits WHERE id=$1 FOR UPDATE`
	h, err := scanHabit(tx.QueryRow(ctx, sel, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func scanHabit(row scanner) (*model.Habit, error) {
	var h model.Habit
	if err := row.Scan(&h.ID, &h.Owner, &h.Name, &h.Description, &h.Purpose, &h.Order, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
