package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is a unit of background work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc turns a plain function into a Task
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string                  { return t.TaskName }
func (t TaskFunc) Run(ctx context.Context) error { return t.Fn(ctx) }

// Job tracks one submission of a task across its attempts. A job is only
// touched by the worker currently running it.
type Job struct {
	ID          uuid.UUID
	Task        Task
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

func NewJob(task Task, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Task:       task,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the beginning of an attempt
func (j *Job) Start() {
	now := time.Now()
	j.StartedAt = &now
	j.Status = JobStatusRunning
	j.Error = ""
}

func (j *Job) Complete() { j.finish(JobStatusSuccess, "") }

func (j *Job) Fail(msg string) { j.finish(JobStatusFailed, msg) }

func (j *Job) finish(status JobStatus, msg string) {
	now := time.Now()
	j.CompletedAt = &now
	j.Status = status
	j.Error = msg
}

// ShouldRetry is true for a failed job with attempts left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// PrepareRetry counts the failed attempt and puts the job back to pending
func (j *Job) PrepareRetry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Error = ""
}
