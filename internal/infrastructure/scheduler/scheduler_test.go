package scheduler

import (
	"context"
	"errors"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/infrastructure/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        10 * time.Millisecond,
		QueueSize:         4,
	}
}

func startScheduler(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	s := NewScheduler(cfg, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
	})
	return s
}

type countingTask struct {
	name  string
	calls atomic.Int32
	fail  int32 // number of leading calls that fail
	done  chan struct{}
	once  sync.Once
}

func newCountingTask(name string, fail int32) *countingTask {
	return &countingTask{name: name, fail: fail, done: make(chan struct{})}
}

func (c *countingTask) Name() string { return c.name }

func (c *countingTask) Run(context.Context) error {
	n := c.calls.Add(1)
	if n <= c.fail {
		return errors.New("transient")
	}
	c.once.Do(func() { close(c.done) })
	return nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob(TaskFunc{TaskName: "x"}, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.PrepareRetry()
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("again")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestSchedulerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSchedulerConfig().Validate())

	cfg := DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	s := NewScheduler(cfg, nil)
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
	assert.False(t, s.IsRunning())
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(testConfig(), nil)
	_, err := s.Submit(TaskFunc{TaskName: "x", Fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RunsTask(t *testing.T) {
	s := startScheduler(t, testConfig())
	task := newCountingTask("ok", 0)

	_, err := s.Submit(task)
	require.NoError(t, err)

	waitFor(t, task.done)
	assert.Equal(t, int32(1), task.calls.Load())
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	s := startScheduler(t, testConfig())
	task := newCountingTask("flaky", 2)

	_, err := s.Submit(task)
	require.NoError(t, err)

	waitFor(t, task.done)
	assert.Equal(t, int32(3), task.calls.Load())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts = 0
	s := startScheduler(t, cfg)

	_, err := s.Submit(TaskFunc{TaskName: "panicky", Fn: func(context.Context) error { panic("boom") }})
	require.NoError(t, err)

	task := newCountingTask("after", 0)
	_, err = s.Submit(task)
	require.NoError(t, err)
	waitFor(t, task.done)
}

func TestScheduler_LabelsProfilesWithTaskName(t *testing.T) {
	s := startScheduler(t, testConfig())

	got := make(chan string, 1)
	_, err := s.Submit(TaskFunc{TaskName: "summary-sync", Fn: func(ctx context.Context) error {
		v, _ := pprof.Label(ctx, telemetry.ProfilingLabelJob)
		got <- v
		return nil
	}})
	require.NoError(t, err)

	select {
	case v := <-got:
		assert.Equal(t, "summary-sync", v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentJobs = 1
	cfg.QueueSize = 1
	s := startScheduler(t, cfg)

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := TaskFunc{TaskName: "blocking", Fn: func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	_, err := s.Submit(blocking)
	require.NoError(t, err)
	waitFor(t, started)

	noop := TaskFunc{TaskName: "noop", Fn: func(context.Context) error { return nil }}
	_, err = s.Submit(noop)
	require.NoError(t, err)
	_, err = s.Submit(noop)
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
}

func TestTrigger_SubmitsDueTasks(t *testing.T) {
	s := startScheduler(t, testConfig())
	tr := NewTrigger(TriggerConfig{CheckInterval: 5 * time.Millisecond, RunOnStart: true}, s, nil)

	task := newCountingTask("steam", 0)
	tr.Every(time.Hour, task).Every(0, newCountingTask("disabled", 0))
	assert.Equal(t, []string{"steam"}, tr.Tasks())

	require.NoError(t, tr.Start(context.Background()))
	waitFor(t, task.done)

	// the interval has not elapsed again
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, tr.Stop(context.Background()))
	assert.Equal(t, int32(1), task.calls.Load())
}

func TestTrigger_WaitsWhenNotRunOnStart(t *testing.T) {
	s := startScheduler(t, testConfig())
	tr := NewTrigger(TriggerConfig{CheckInterval: 5 * time.Millisecond}, s, nil)

	base := time.Now()
	var offset atomic.Int64
	tr.now = func() time.Time { return base.Add(time.Duration(offset.Load())) }

	task := newCountingTask("sync", 0)
	tr.Every(time.Hour, task)
	require.NoError(t, tr.Start(context.Background()))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), task.calls.Load())

	offset.Store(int64(time.Hour))
	waitFor(t, task.done)
	require.NoError(t, tr.Stop(context.Background()))
}

func TestTrigger_RunNow(t *testing.T) {
	s := startScheduler(t, testConfig())
	tr := NewTrigger(DefaultTriggerConfig(), s, nil)
	task := newCountingTask("manual", 0)
	tr.Every(time.Hour, task)

	_, err := tr.RunNow("missing")
	assert.ErrorIs(t, err, ErrUnknownTask)

	job, err := tr.RunNow("manual")
	require.NoError(t, err)
	assert.Equal(t, "manual", job.Task.Name())
	waitFor(t, task.done)
}

type stubRefresher struct{ err error }

func (s stubRefresher) RefreshIfStale(context.Context) error { return s.err }

func TestSteamRefreshTask(t *testing.T) {
	task := NewSteamRefreshTask(stubRefresher{err: shared.NewDomainError("NOT_CONFIGURED", "Steam API Key 未配置")})
	assert.Equal(t, TaskSteamRefresh, task.Name())
	assert.NoError(t, task.Run(context.Background()))

	boom := errors.New("steam down")
	task = NewSteamRefreshTask(stubRefresher{err: boom})
	assert.ErrorIs(t, task.Run(context.Background()), boom)
}

type stubSyncer struct {
	err    error
	waited bool
}

func (s *stubSyncer) SyncAll(context.Context) error { return s.err }
func (s *stubSyncer) Wait()                         { s.waited = true }

func TestSummarySyncTask(t *testing.T) {
	syncer := &stubSyncer{}
	task := NewSummarySyncTask(syncer, nil)
	assert.Equal(t, TaskSummarySync, task.Name())
	require.NoError(t, task.Run(context.Background()))
	assert.True(t, syncer.waited)

	busy := &stubSyncer{err: shared.NewDomainError("INVALID_STATE", "摘要同步正在进行中")}
	require.NoError(t, NewSummarySyncTask(busy, nil).Run(context.Background()))
	assert.False(t, busy.waited)

	failing := &stubSyncer{err: errors.New("db down")}
	assert.Error(t, NewSummarySyncTask(failing, nil).Run(context.Background()))
}
