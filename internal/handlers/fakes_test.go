package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/queue"
	"github.com/checkfox/lead_engage/internal/repository"
)

var errDatabaseDown = errors.New("connection refused")

type fakeExecutionRepo struct {
	mu         sync.Mutex
	executions map[string]*models.WorkflowExecution
	order      []string
	err        error
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{executions: make(map[string]*models.WorkflowExecution)}
}

func (r *fakeExecutionRepo) Create(_ context.Context, exec *models.WorkflowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	copied := *exec
	r.executions[exec.ID] = &copied
	r.order = append(r.order, exec.ID)
	return nil
}

func (r *fakeExecutionRepo) CreateTx(ctx context.Context, _ *sql.Tx, exec *models.WorkflowExecution) error {
	return r.Create(ctx, exec)
}

func (r *fakeExecutionRepo) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	exec, ok := r.executions[id]
	if !ok {
		return nil, fmt.Errorf("%w: execution %s", repository.ErrNotFound, id)
	}
	return exec, nil
}

func (r *fakeExecutionRepo) ListRecent(_ context.Context, limit int) ([]*models.WorkflowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.WorkflowExecution
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.executions[r.order[i]])
	}
	return out, nil
}

func (r *fakeExecutionRepo) CountByStatus(context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	counts := make(map[string]int)
	for _, exec := range r.executions {
		counts[string(exec.Status)]++
	}
	return counts, nil
}

func (r *fakeExecutionRepo) BeginTx(context.Context) (*sql.Tx, error) {
	return nil, errors.New("transactions are not supported by the fake")
}

type fakeAttemptRepo struct {
	attempts []*models.DispatchAttempt
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt *models.DispatchAttempt) error {
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeAttemptRepo) CreateTx(ctx context.Context, _ *sql.Tx, attempt *models.DispatchAttempt) error {
	return r.Create(ctx, attempt)
}

func (r *fakeAttemptRepo) ListByExecution(_ context.Context, executionID string) ([]*models.DispatchAttempt, error) {
	var out []*models.DispatchAttempt
	for _, a := range r.attempts {
		if a.ExecutionID == executionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountByExecutionAction(_ context.Context, executionID string, actionIndex int) (int, error) {
	count := 0
	for _, a := range r.attempts {
		if a.ExecutionID == executionID && a.ActionIndex == actionIndex {
			count++
		}
	}
	return count, nil
}

type fakeRuleRepo struct {
	rules map[string]models.AutomationRule
	err   error
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[string]models.AutomationRule)}
}

func (r *fakeRuleRepo) Save(_ context.Context, rule models.AutomationRule) error {
	if r.err != nil {
		return r.err
	}
	if _, exists := r.rules[rule.Name]; exists {
		return fmt.Errorf("%w: %s", models.ErrRuleExists, rule.Name)
	}
	r.rules[rule.Name] = rule
	return nil
}

func (r *fakeRuleRepo) List(context.Context) ([]models.AutomationRule, error) {
	var out []models.AutomationRule
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

type enqueuedJob struct {
	jobType string
	payload map[string]interface{}
	delay   time.Duration
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobType string, payload map[string]interface{}) error {
	return q.EnqueueWithDelay(ctx, jobType, payload, 0)
}

func (q *fakeQueue) EnqueueWithDelay(_ context.Context, jobType string, payload map[string]interface{}, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, enqueuedJob{jobType: jobType, payload: payload, delay: delay})
	return nil
}

func (q *fakeQueue) Dequeue(context.Context) (*queue.Job, error)       { return nil, nil }
func (q *fakeQueue) Complete(context.Context, int64) error             { return nil }
func (q *fakeQueue) Retry(context.Context, int64, time.Duration) error { return nil }
func (q *fakeQueue) Fail(context.Context, int64, string) error         { return nil }
func (q *fakeQueue) HealthCheck(context.Context) error                 { return nil }
func (q *fakeQueue) Close() error                                      { return nil }
