package worker

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/checkfox/lead_engage/internal/client"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/queue"
)

// fakeQueue is an in-memory queue.Queue that records how jobs were settled
type fakeQueue struct {
	mu        sync.Mutex
	pending   []*queue.Job
	completed []int64
	retried   map[int64]time.Duration
	failed    map[int64]string
	nextID    int64
}

func newFakeQueue(jobs ...*queue.Job) *fakeQueue {
	return &fakeQueue{
		pending: jobs,
		retried: make(map[int64]time.Duration),
		failed:  make(map[int64]string),
		nextID:  int64(len(jobs)),
	}
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobType string, payload map[string]interface{}) error {
	return q.EnqueueWithDelay(ctx, jobType, payload, 0)
}

func (q *fakeQueue) EnqueueWithDelay(_ context.Context, jobType string, payload map[string]interface{}, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.pending = append(q.pending, &queue.Job{ID: q.nextID, Type: jobType, Payload: payload, RunAt: time.Now().Add(delay)})
	return nil
}

func (q *fakeQueue) Dequeue(context.Context) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	job.Attempts++
	return job, nil
}

func (q *fakeQueue) Complete(_ context.Context, jobID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, jobID)
	return nil
}

func (q *fakeQueue) Retry(_ context.Context, jobID int64, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retried[jobID] = delay
	return nil
}

func (q *fakeQueue) Fail(_ context.Context, jobID int64, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[jobID] = errorMsg
	return nil
}

func (q *fakeQueue) HealthCheck(context.Context) error { return nil }
func (q *fakeQueue) Close() error                      { return nil }

// fakeDispatcher returns a scripted result and counts calls
type fakeDispatcher struct {
	mu       sync.Mutex
	calls    []models.ScheduledAction
	response *client.DispatchResponse
	err      error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, action models.ScheduledAction) (*client.DispatchResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, action)
	return d.response, d.err
}

// fakeAttemptRepo keeps dispatch attempts in memory
type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*models.DispatchAttempt
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt *models.DispatchAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt.ID = int64(len(r.attempts) + 1)
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeAttemptRepo) CreateTx(ctx context.Context, _ *sql.Tx, attempt *models.DispatchAttempt) error {
	return r.Create(ctx, attempt)
}

func (r *fakeAttemptRepo) ListByExecution(_ context.Context, executionID string) ([]*models.DispatchAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DispatchAttempt
	for _, a := range r.attempts {
		if a.ExecutionID == executionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountByExecutionAction(_ context.Context, executionID string, actionIndex int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.attempts {
		if a.ExecutionID == executionID && a.ActionIndex == actionIndex {
			count++
		}
	}
	return count, nil
}

func actionJob(id int64, executionID, actionType string) *queue.Job {
	action := models.ScheduledAction{
		ExecutionID: executionID,
		RuleName:    "missed_call_recovery",
		ActionType:  actionType,
		Payload:     map[string]interface{}{"recipient": "+15550001111"},
		ExecuteAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	return &queue.Job{ID: id, Type: queue.JobTypeExecuteAction, Payload: action.ToJobPayload()}
}
