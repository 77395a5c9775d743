package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv650s/springboard/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	calls    int32
	errs     []error
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if int(n) <= len(j.errs) {
		return j.errs[n-1]
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond).WithTimeout(time.Second)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 18 * * 1-5"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	next, err := s.NextRun("a")
	require.NoError(t, err)
	assert.True(t, next.IsZero(), "entries have no next run before Start")
}

func TestAddJob_Duplicate(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "stats-refresh", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "stats-refresh", schedule: "@daily"}))
}

func TestAddJob_BadSchedule(t *testing.T) {
	s := newTestScheduler()

	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"}))
	assert.Empty(t, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.RunJob("a")
	assert.Error(t, err)
}

func TestRunJob_Success(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "a", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)

	history, err := s.GetJobHistory("a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunJob_RetriesTransientErrors(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "a", schedule: "@daily", errs: []error{errors.New("timeout"), errors.New("timeout")}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
}

func TestRunJob_GivesUp(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("upstream down")
	job := &fakeJob{name: "a", schedule: "@daily", errs: []error{boom, boom, boom, boom}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "upstream down", result.Error)

	stats := s.GetJobStats()["a"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_PermanentErrorNotRetried(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "a", schedule: "@daily", errs: []error{Permanent(errors.New("missing column"))}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
}

func TestPermanent(t *testing.T) {
	base := errors.New("no data")

	assert.Nil(t, Permanent(nil))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.ErrorIs(t, Permanent(base), base)
	assert.False(t, IsPermanent(base))
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.False(t, next.IsZero())
	s.Stop()
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "a", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)

	latest := h.GetLatestResults(1)
	latest[0].JobName = "mutated"
	assert.Equal(t, "a", h.Results[len(h.Results)-1].JobName)
}
