// Package jobs schedules periodic maintenance on a cron.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"go.uber.org/zap"
)

// CronJob is a named unit of work run on a cron schedule.
type CronJob interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Runner executes CronJobs, never running two instances of the same job at once.
type Runner struct {
	cron *cron.Cron
	jobs []CronJob
	log  *zap.Logger

	mu      sync.Mutex
	running mapset.Set[string]
	ctx     context.Context
}

// NewRunner prepares a runner for jobs. Nothing runs until Start.
func NewRunner(log *zap.Logger, jobs ...CronJob) *Runner {
	return &Runner{
		cron:    cron.New(),
		jobs:    jobs,
		log:     log,
		running: mapset.NewThreadUnsafeSet[string](),
		ctx:     context.Background(),
	}
}

// Start registers every job and starts the cron. ctx is handed to job runs.
func (r *Runner) Start(ctx context.Context) error {
	r.ctx = ctx
	for _, job := range r.jobs {
		job := job
		if err := r.cron.AddFunc(job.Schedule(), func() { r.RunOnce(job) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name(), job.Schedule(), err)
		}
	}
	r.cron.Start()
	return nil
}

// Stop stops scheduling new runs. Runs in progress are not interrupted.
func (r *Runner) Stop() { r.cron.Stop() }

// RunOnce runs job now unless an earlier run of it is still in progress.
// It reports whether the job was started.
func (r *Runner) RunOnce(job CronJob) bool {
	r.mu.Lock()
	if !r.running.Add(job.Name()) {
		r.mu.Unlock()
		r.log.Warn("job is already running", zap.String("job", job.Name()))
		return false
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running.Remove(job.Name())
		r.mu.Unlock()
	}()

	start := time.Now()
	if err := job.Run(r.ctx); err != nil {
		r.log.Error("job failed", zap.String("job", job.Name()), zap.Duration("dur", time.Since(start)), zap.Error(err))
		return true
	}
	r.log.Info("job done", zap.String("job", job.Name()), zap.Duration("dur", time.Since(start)))
	return true
}
