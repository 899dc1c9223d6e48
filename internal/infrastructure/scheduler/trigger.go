package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TriggerConfig holds configuration for the interval trigger
type TriggerConfig struct {
	// CheckInterval is how often due tasks are looked for
	CheckInterval time.Duration
	// RunOnStart submits every task on the first check instead of waiting a full interval
	RunOnStart bool
}

// DefaultTriggerConfig returns default trigger configuration
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		CheckInterval: time.Minute,
		RunOnStart:    true,
	}
}

type entry struct {
	task     Task
	interval time.Duration
	lastRun  time.Time
}

// Trigger submits registered tasks to the scheduler once their interval has elapsed
type Trigger struct {
	config    TriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewTrigger creates a new trigger
func NewTrigger(config TriggerConfig, scheduler *Scheduler, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultTriggerConfig().CheckInterval
	}
	return &Trigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
}

// Every registers task to run each interval. Non-positive intervals are ignored.
func (t *Trigger) Every(interval time.Duration, task Task) *Trigger {
	if interval <= 0 {
		t.logger.Info("Task disabled", zap.String("task", task.Name()))
		return t
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[task.Name()]; !ok {
		t.order = append(t.order, task.Name())
	}
	t.entries[task.Name()] = &entry{task: task, interval: interval}
	return t
}

// Tasks returns the registered task names in registration order
func (t *Trigger) Tasks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Start starts the check loop
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	if !t.config.RunOnStart {
		now := t.now()
		for _, e := range t.entries {
			e.lastRun = now
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Task trigger started",
		zap.Strings("tasks", t.order),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the check loop
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Task trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow submits the named task immediately
func (t *Trigger) RunNow(name string) (*Job, error) {
	t.mu.Lock()
	e, ok := t.entries[name]
	if ok {
		e.lastRun = t.now()
	}
	t.mu.Unlock()
	if !ok {
		return nil, ErrUnknownTask
	}
	return t.scheduler.Submit(e.task)
}

func (t *Trigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	t.checkAndTrigger()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits every task whose interval has elapsed
func (t *Trigger) checkAndTrigger() {
	now := t.now()

	t.mu.Lock()
	var due []*entry
	for _, name := range t.order {
		e := t.entries[name]
		if e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval {
			due = append(due, e)
		}
	}
	t.mu.Unlock()

	for _, e := range due {
		if _, err := t.scheduler.Submit(e.task); err != nil {
			t.logger.Warn("Failed to submit task",
				zap.String("task", e.task.Name()),
				zap.Error(err),
			)
			continue
		}
		t.mu.Lock()
		e.lastRun = now
		t.mu.Unlock()
	}
}
