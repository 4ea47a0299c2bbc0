package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type blockingJob struct {
	name     string
	schedule string
	release  chan struct{}
	started  chan struct{}
	runs     atomic.Int32
	err      error
}

func (j *blockingJob) Name() string     { return j.name }
func (j *blockingJob) Schedule() string { return j.schedule }
func (j *blockingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.release != nil {
		<-j.release
	}
	return j.err
}

func TestRunner_RunOnce_SkipsOverlap(t *testing.T) {
	job := &blockingJob{name: "slow", release: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewRunner(zaptest.NewLogger(t), job)

	done := make(chan bool)
	go func() { done <- r.RunOnce(job) }()
	<-job.started

	require.False(t, r.RunOnce(job), "second run must be skipped while the first is in progress")
	close(job.release)
	require.True(t, <-done)
	require.EqualValues(t, 1, job.runs.Load())

	// once finished it can run again
	job.release, job.started = nil, nil
	require.True(t, r.RunOnce(job))
	require.EqualValues(t, 2, job.runs.Load())
}

func TestRunner_RunOnce_ErrorIsLogged(t *testing.T) {
	job := &blockingJob{name: "bad", err: errors.New("boom")}
	r := NewRunner(zaptest.NewLogger(t))
	require.True(t, r.RunOnce(job))
}

func TestRunner_Start_BadSchedule(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t), &blockingJob{name: "x", schedule: "whenever"})
	require.ErrorContains(t, r.Start(context.Background()), "schedule x")
}

func TestRunner_Start_RunsOnSchedule(t *testing.T) {
	job := &blockingJob{name: "tick", schedule: "@every 1s", started: make(chan struct{}, 4)}
	r := NewRunner(zaptest.NewLogger(t), job)
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	select {
	case <-job.started:
	case <-time.After(3 * time.Second):
		t.Fatal("job was not run by the cron")
	}
}
