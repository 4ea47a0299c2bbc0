package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Settings tune the sliding window and lockout.
type Settings struct {
	Window   time.Duration // failures older than this restart the count
	MaxFails int           // failures within Window that trigger a block
	BlockFor time.Duration
}

// DefaultSettings allow five failures per 15 minutes, then block for 15 minutes.
var DefaultSettings = Settings{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Querier is the subset of pgxpool.Pool used by PG.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a PostgreSQL-backed limiter implementation with sliding window and lockout.
// State lives in auth_limiter keyed by (username, ip_hash).
type PG struct {
	q   Querier
	set Settings
	now func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, set Settings) *PG {
	return &PG{q: q, set: set, now: time.Now}
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE username=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, username, ipHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for (username, ip).
func (l *PG) Success(ctx context.Context, username string, ipHash []byte) error {
	const q = `
INSERT INTO auth_limiter (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', $3)
ON CONFLICT (username, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=EXCLUDED.updated_at`
	_, err := l.q.Exec(ctx, q, username, ipHash, l.now())
	return err
}

// Failure records a failed attempt; may set a block until a future time.
func (l *PG) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	now := l.now()

	const q = `
INSERT INTO auth_limiter (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', $3)
ON CONFLICT (username, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - auth_limiter.updated_at > $4::interval THEN 1 ELSE auth_limiter.fail_count + 1 END,
  updated_at = EXCLUDED.updated_at
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, username, ipHash, now, l.set.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.set.MaxFails {
		return false, 0, nil
	}
	const upd = `UPDATE auth_limiter SET blocked_until=$3 WHERE username=$1 AND ip_hash=$2`
	if _, err := l.q.Exec(ctx, upd, username, ipHash, now.Add(l.set.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.set.BlockFor, nil
}

// Purge removes rows that are neither blocked nor inside the counting window.
func (l *PG) Purge(ctx context.Context) (int64, error) {
	now := l.now()
	const q = `DELETE FROM auth_limiter WHERE blocked_until < $1 AND updated_at < $2`
	tag, err := l.q.Exec(ctx, q, now, now.Add(-l.set.Window))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
