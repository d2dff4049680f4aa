package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	ran  chan struct{}
}

func newCountingJob(name string) *countingJob {
	return &countingJob{name: name, ran: make(chan struct{}, 16)}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts its own runs" }

func (j *countingJob) Run(_ context.Context) error {
	j.runs.Add(1)
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func fastScheduler() *Scheduler {
	cfg := DefaultSchedulerConfig()
	cfg.TickInterval = 5 * time.Millisecond
	return NewScheduler(cfg)
}

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	s := fastScheduler()
	job := newCountingJob("render_retry")
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	assert.GreaterOrEqual(t, job.runs.Load(), int64(1))
}

func TestSchedulerRejectsDuplicateJob(t *testing.T) {
	s := fastScheduler()
	require.NoError(t, s.Register(newCountingJob("render_retry"), NewIntervalSchedule(time.Minute)))

	err := s.Register(newCountingJob("render_retry"), NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestSchedulerRejectsNilInputs(t *testing.T) {
	s := fastScheduler()
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(newCountingJob("j"), nil), ErrNilSchedule)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := fastScheduler()
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(10 * time.Minute)
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(10*time.Minute), sched.Next(at))
	assert.Equal(t, "@every 10m0s", sched.String())
}
