package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/checkfox/lead_engage/internal/client"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/queue"
	"github.com/checkfox/lead_engage/internal/repository"
)

// maxBackoff caps the delay between dispatch retries
const maxBackoff = time.Hour

// Dispatcher hands a scheduled action to the delivery provider
type Dispatcher interface {
	Dispatch(ctx context.Context, action models.ScheduledAction) (*client.DispatchResponse, error)
}

// Processor drains execute_action jobs and dispatches them to the delivery provider
type Processor struct {
	queue        queue.Queue
	dispatchRepo repository.DispatchAttemptRepository
	dispatcher   Dispatcher
	pollInterval time.Duration
	concurrency  int
	maxAttempts  int
	backoffBase  time.Duration
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// ProcessorConfig holds configuration for the worker processor
type ProcessorConfig struct {
	Queue        queue.Queue
	DispatchRepo repository.DispatchAttemptRepository // optional; attempts are only logged when nil
	Dispatcher   Dispatcher
	PollInterval time.Duration
	Concurrency  int
	MaxAttempts  int
	BackoffBase  time.Duration
}

// NewProcessor creates a new worker processor
func NewProcessor(config ProcessorConfig) *Processor {
	if config.PollInterval == 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.BackoffBase == 0 {
		config.BackoffBase = 30 * time.Second
	}

	return &Processor{
		queue:        config.Queue,
		dispatchRepo: config.DispatchRepo,
		dispatcher:   config.Dispatcher,
		pollInterval: config.PollInterval,
		concurrency:  config.Concurrency,
		maxAttempts:  config.MaxAttempts,
		backoffBase:  config.BackoffBase,
		shutdownChan: make(chan struct{}),
	}
}

// Start begins the worker polling loop and blocks until shutdown
func (p *Processor) Start(ctx context.Context) error {
	logger.Info(ctx, "Starting worker processor",
		"poll_interval", p.pollInterval.String(),
		"concurrency", p.concurrency,
		"max_attempts", p.maxAttempts)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context cancelled, shutting down gracefully")
			return ctx.Err()

		case <-sigChan:
			logger.Info(ctx, "Received shutdown signal, shutting down gracefully")
			return nil

		case <-p.shutdownChan:
			logger.Info(ctx, "Shutdown requested, shutting down gracefully")
			return nil

		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				logger.LogError(ctx, "Error polling and processing jobs", err)
			}
		}
	}
}

// Shutdown signals the worker to stop gracefully. Safe to call more than once.
func (p *Processor) Shutdown() {
	p.shutdownOnce.Do(func() { close(p.shutdownChan) })
}

// PollOnce claims up to concurrency due jobs and processes them in parallel.
// It returns the number of jobs claimed.
func (p *Processor) PollOnce(ctx context.Context) (int, error) {
	var jobs []*queue.Job
	for len(jobs) < p.concurrency {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if len(jobs) == 0 {
				return 0, fmt.Errorf("poll: %w", err)
			}
			logger.LogError(ctx, "Dequeue failed, processing claimed jobs", err, "claimed", len(jobs))
			break
		}
		if job == nil {
			break
		}
		jobs = append(jobs, job)
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job *queue.Job) {
			defer wg.Done()
			p.processJob(ctx, job)
		}(job)
	}
	wg.Wait()

	return len(jobs), nil
}

// processJob settles one job: complete, retry later, or fail permanently
func (p *Processor) processJob(ctx context.Context, job *queue.Job) {
	startTime := time.Now()
	logger.Info(ctx, "Processing job", "job_id", job.ID, "job_type", job.Type, "attempt", job.Attempts)

	action, err := queue.GetScheduledAction(job)
	if err != nil {
		logger.LogError(ctx, "Job payload is not a scheduled action", err, "job_id", job.ID)
		p.fail(ctx, job, err.Error())
		return
	}

	ctx = context.WithValue(ctx, logger.ExecutionIDKey, action.ExecutionID)
	dispatchErr := p.dispatch(ctx, job, action)
	logger.LogSlowOperation(ctx, "dispatch_action", time.Since(startTime))

	if dispatchErr == nil {
		if err := p.queue.Complete(ctx, job.ID); err != nil {
			logger.LogError(ctx, "Failed to mark job as completed", err, "job_id", job.ID)
			return
		}
		logger.Info(ctx, "Action dispatched", "job_id", job.ID, "action_type", action.ActionType)
		return
	}

	if isRetriable(dispatchErr) && job.Attempts < p.maxAttempts {
		delay := BackoffDelay(p.backoffBase, job.Attempts)
		logger.Warn(ctx, "Dispatch failed, scheduling retry",
			"job_id", job.ID,
			"action_type", action.ActionType,
			"attempt", job.Attempts,
			"retry_in", delay.String(),
			"error", dispatchErr.Error())
		if err := p.queue.Retry(ctx, job.ID, delay); err != nil {
			logger.LogError(ctx, "Failed to reschedule job", err, "job_id", job.ID)
		}
		return
	}

	logger.LogError(ctx, "Dispatch failed permanently", dispatchErr,
		"job_id", job.ID,
		"action_type", action.ActionType,
		"attempt", job.Attempts)
	p.fail(ctx, job, dispatchErr.Error())
}

// dispatch sends the action and records the attempt
func (p *Processor) dispatch(ctx context.Context, job *queue.Job, action models.ScheduledAction) error {
	attempt := models.NewDispatchAttempt(action, job.Attempts)

	response, dispatchErr := p.dispatcher.Dispatch(ctx, action)
	switch {
	case dispatchErr != nil:
		var statusCode *int
		var delErr *models.DeliveryError
		if errors.As(dispatchErr, &delErr) && delErr.StatusCode != 0 {
			code := delErr.StatusCode
			statusCode = &code
		}
		attempt.MarkFailure(statusCode, dispatchErr.Error())
	case response == nil || !response.Success:
		dispatchErr = models.NewDeliveryError(0, fmt.Sprintf("unexpected response: %+v", response), true, nil)
		attempt.MarkFailure(nil, dispatchErr.Error())
	default:
		attempt.MarkSuccess(response.StatusCode, response.Body)
	}

	if p.dispatchRepo != nil {
		if err := p.dispatchRepo.Create(ctx, attempt); err != nil {
			logger.LogError(ctx, "Failed to record dispatch attempt", err,
				"job_id", job.ID,
				"action_index", action.ActionIndex,
				"action_type", action.ActionType)
		}
	}

	return dispatchErr
}

func (p *Processor) fail(ctx context.Context, job *queue.Job, reason string) {
	if err := p.queue.Fail(ctx, job.ID, reason); err != nil {
		logger.LogError(ctx, "Failed to mark job as failed", err, "job_id", job.ID)
	}
}

// isRetriable treats unknown errors as transient
func isRetriable(err error) bool {
	var delErr *models.DeliveryError
	if errors.As(err, &delErr) {
		return delErr.IsRetriable()
	}
	return true
}

// BackoffDelay returns base * 2^(attempt-1), capped at one hour
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff || delay <= 0 {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
