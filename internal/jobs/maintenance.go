package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RevisionPruner drops old document revisions.
type RevisionPruner interface {
	PruneRevisions(ctx context.Context, keep int) (int64, error)
}

// Purger removes stale rows.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

func every(d time.Duration) string { return "@every " + d.String() }

// PruneRevisions keeps the newest Keep revisions of every document.
type PruneRevisions struct {
	Store RevisionPruner
	Keep  int
	Every time.Duration
	Log   *zap.Logger
}

func (j *PruneRevisions) Name() string     { return "prune_revisions" }
func (j *PruneRevisions) Schedule() string { return every(j.Every) }

func (j *PruneRevisions) Run(ctx context.Context) error {
	n, err := j.Store.PruneRevisions(ctx, j.Keep)
	if err != nil {
		return err
	}
	if n > 0 {
		j.Log.Info("revisions pruned", zap.Int64("removed", n), zap.Int("keep", j.Keep))
	}
	return nil
}

// PurgeLimiter forgets login-limiter entries that no longer block anyone.
type PurgeLimiter struct {
	Limiter Purger
	Every   time.Duration
	Log     *zap.Logger
}

func (j *PurgeLimiter) Name() string     { return "purge_login_limiter" }
func (j *PurgeLimiter) Schedule() string { return every(j.Every) }

func (j *PurgeLimiter) Run(ctx context.Context) error {
	n, err := j.Limiter.Purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.Log.Info("limiter entries purged", zap.Int64("removed", n))
	}
	return nil
}
