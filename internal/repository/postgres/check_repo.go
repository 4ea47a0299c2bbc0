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

const checkColumns = `id, habit_id, owner, day, completed, comment, created_at, updated_at`

// CheckRepo implements CheckRepository using PostgreSQL.
type CheckRepo struct{ db *DB }

var _ repository.CheckRepository = (*CheckRepo)(nil)

// NewCheckRepo constructs a habit check repository.
func NewCheckRepo(db *DB) *CheckRepo { return &CheckRepo{db: db} }

// Find selects the check for (owner, habit, day).
func (r *CheckRepo) Find(ctx context.Context, owner string, habitID uuid.UUID, day model.Day) (*model.HabitCheck, error) {
	const q = `SELECT ` + checkColumns + ` FROM habit_checks WHERE owner=$1 AND habit_id=$2 AND day=$3`
	c, err := scanCheck(r.db.Pool.QueryRow(ctx, q, owner, habitID, day.Time))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Between returns checks in the inclusive day range.
func (r *CheckRepo) Between(ctx context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error) {
	const q = `SELECT ` + checkColumns + ` FROM habit_checks WHERE owner=$1 AND day BETWEEN $2 AND $3 ORDER BY day ASC, created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, owner, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HabitCheck{}
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Save upserts on the (owner, habit_id, day) unique key; created_at and id of
// an existing row are kept.
func (r *CheckRepo) Save(ctx context.Context, c *model.HabitCheck) (*model.HabitCheck, error) {
	const q = `
INSERT INTO habit_checks (` + checkColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (owner, habit_id, day)
DO UPDATE SET completed=EXCLUDED.completed, comment=EXCLUDED.comment, updated_at=EXCLUDED.updated_at
RETURNING ` + checkColumns
	return scanCheck(r.db.Pool.QueryRow(ctx, q,
		c.ID, c.HabitID, c.Owner, c.Day.Time, c.Completed, c.Comment, c.CreatedAt, c.UpdatedAt))
}

func scanCheck(row scanner) (*model.HabitCheck, error) {
	var (
		c   model.HabitCheck
		day time.Time
	)
	if err := row.Scan(&c.ID, &c.HabitID, &c.Owner, &day, &c.Completed, &c.Comment, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Day = model.DayOf(day)
	return &c, nil
}
