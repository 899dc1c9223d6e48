// Package scheduler runs background maintenance tasks such as the Steam
// library refresh and the bulk summary sync on a bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/infrastructure/telemetry"
)

type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	QueueSize         int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
		QueueSize:         16,
	}
}

// Validate rejects a pool without workers, a non-positive job timeout and
// negative retry settings.
func (c SchedulerConfig) Validate() error {
	switch {
	case c.MaxConcurrentJobs <= 0, c.JobTimeout <= 0:
		return ErrInvalidConfig
	case c.RetryAttempts < 0, c.RetryDelay < 0:
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler runs submitted jobs on MaxConcurrentJobs workers. Failed jobs
// are re-queued after RetryDelay until their attempts run out.
type Scheduler struct {
	cfg    SchedulerConfig
	logger *zap.Logger
	queue  chan *Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	workers sync.WaitGroup
	pending sync.WaitGroup // delayed retries
}

func NewScheduler(cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultSchedulerConfig().QueueSize
	}
	return &Scheduler{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan *Job, cfg.QueueSize),
	}
}

// Start launches the workers. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.workers.Add(s.cfg.MaxConcurrentJobs)
	for id := range s.cfg.MaxConcurrentJobs {
		go s.work(ctx, id)
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.cfg.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.cfg.JobTimeout))
	return nil
}

// Stop cancels in-flight jobs and waits for workers and pending retries to
// exit, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pending.Wait()
		s.workers.Wait()
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Submit queues task without blocking. It fails with ErrJobQueueFull when
// every queue slot is taken.
func (s *Scheduler) Submit(task Task) (*Job, error) {
	job := NewJob(task, s.cfg.RetryAttempts)
	if err := s.enqueue(job); err != nil {
		return nil, err
	}
	s.logger.Debug("Job queued", jobFields(job)...)
	return job, nil
}

func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrSchedulerNotRunning
	}
	select {
	case s.queue <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job, s.logger.With(zap.Int("worker_id", id)))
		}
	}
}

func (s *Scheduler) process(ctx context.Context, job *Job, log *zap.Logger) {
	log = log.With(jobFields(job)...)
	job.Start()
	log.Info("Running job", zap.Int("attempt", job.RetryCount+1))

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	err := s.run(runCtx, job)
	cancel()

	if err == nil {
		job.Complete()
		log.Info("Job succeeded", zap.Duration("took", job.CompletedAt.Sub(*job.StartedAt)))
		return
	}
	job.Fail(err.Error())
	log.Error("Job failed", zap.Error(err))

	// no retries once the scheduler is shutting down
	if ctx.Err() != nil || !job.ShouldRetry() {
		return
	}
	job.PrepareRetry()
	log.Info("Retrying job",
		zap.Int("retry", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.cfg.RetryDelay))
	s.retryLater(ctx, job, log)
}

func (s *Scheduler) retryLater(ctx context.Context, job *Job, log *zap.Logger) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RetryDelay):
		}
		if err := s.enqueue(job); err != nil {
			log.Warn("Dropping job retry", zap.Error(err))
		}
	}()
}

// run executes one attempt under a job profiling label. A panic in the
// task comes back as *PanicError.
func (s *Scheduler) run(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: job.Task.Name(), Value: r}
		}
	}()
	labels := map[string]string{telemetry.ProfilingLabelJob: job.Task.Name()}
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		err = job.Task.Run(ctx)
	})
	return err
}

func jobFields(job *Job) []zap.Field {
	return []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("task", job.Task.Name()),
	}
}
