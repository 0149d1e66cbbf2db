package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// JobTypeExecuteAction is the job type carrying one scheduled rule action
const JobTypeExecuteAction = "execute_action"

// Job represents a background job to be processed
type Job struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
	RunAt     time.Time              `json:"run_at"`
	Attempts  int                    `json:"attempts"`
}

// Queue defines the interface for job queue operations
type Queue interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload map[string]interface{}) error

	// EnqueueWithDelay adds a job to be processed after a delay
	EnqueueWithDelay(ctx context.Context, jobType string, payload map[string]interface{}, delay time.Duration) error

	// Dequeue retrieves the next due job from the queue
	// Returns nil if no jobs are due
	Dequeue(ctx context.Context) (*Job, error)

	// Complete marks a job as successfully completed
	Complete(ctx context.Context, jobID int64) error

	// Retry reschedules a job for retry with a delay
	Retry(ctx context.Context, jobID int64, delay time.Duration) error

	// Fail marks a job as permanently failed
	Fail(ctx context.Context, jobID int64, errorMsg string) error

	// HealthCheck verifies the queue is operational
	HealthCheck(ctx context.Context) error

	// Close closes the queue connection
	Close() error
}

// ScheduleActions enqueues every scheduled action as an execute_action job,
// delayed until its ExecuteAt relative to now. It stops at the first error.
func ScheduleActions(ctx context.Context, q Queue, actions []models.ScheduledAction, now time.Time) (int, error) {
	for i, action := range actions {
		delay := action.ExecuteAt.Sub(now)
		if delay < 0 {
			delay = 0
		}
		if err := q.EnqueueWithDelay(ctx, JobTypeExecuteAction, action.ToJobPayload(), delay); err != nil {
			return i, fmt.Errorf("failed to schedule %s for execution %s: %w", action.ActionType, action.ExecutionID, err)
		}
	}
	return len(actions), nil
}

// GetScheduledAction decodes the action carried by an execute_action job
func GetScheduledAction(job *Job) (models.ScheduledAction, error) {
	if job == nil {
		return models.ScheduledAction{}, ErrInvalidPayload
	}
	if job.Type != JobTypeExecuteAction {
		return models.ScheduledAction{}, fmt.Errorf("%w %q", ErrUnknownJobType, job.Type)
	}
	action, err := models.ScheduledActionFromJob(job.Payload)
	if err != nil {
		return models.ScheduledAction{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return action, nil
}
