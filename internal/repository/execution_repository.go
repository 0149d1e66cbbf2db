package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/checkfox/lead_engage/internal/models"
)

// ExecutionRepository defines persistence operations for workflow executions
type ExecutionRepository interface {
	// Create stores a finished workflow execution
	Create(ctx context.Context, exec *models.WorkflowExecution) error

	// CreateTx stores a workflow execution within a transaction
	CreateTx(ctx context.Context, tx *sql.Tx, exec *models.WorkflowExecution) error

	// GetByID retrieves an execution by ID; returns ErrNotFound when absent
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)

	// ListRecent returns up to limit executions, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.WorkflowExecution, error)

	// CountByStatus returns the number of executions per status
	CountByStatus(ctx context.Context) (map[string]int, error)

	// BeginTx starts a new database transaction
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

type executionRepository struct {
	db *sql.DB
}

// NewExecutionRepository creates a new ExecutionRepository instance
func NewExecutionRepository(db *sql.DB) ExecutionRepository {
	return &executionRepository{
		db: db,
	}
}

const insertExecutionQuery = `
	INSERT INTO workflow_execution (
		id, rule_name, trigger_name, priority, status,
		started_at, completed_at, actions, event_payload
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const selectExecutionColumns = `
	SELECT id, rule_name, trigger_name, priority, status,
		started_at, completed_at, actions, event_payload
	FROM workflow_execution
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertExecution(ctx context.Context, db execer, exec *models.WorkflowExecution) error {
	actions, err := exec.ActionsJSON()
	if err != nil {
		return fmt.Errorf("failed to encode execution actions: %w", err)
	}

	var completedAt sql.NullTime
	if !exec.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: exec.CompletedAt, Valid: true}
	}

	_, err = db.ExecContext(
		ctx,
		insertExecutionQuery,
		exec.ID,
		exec.RuleName,
		exec.Trigger,
		exec.Priority,
		exec.Status,
		exec.StartedAt,
		completedAt,
		actions,
		exec.EventPayload,
	)
	return err
}

// Create stores a finished workflow execution
func (r *executionRepository) Create(ctx context.Context, exec *models.WorkflowExecution) error {
	if err := insertExecution(ctx, r.db, exec); err != nil {
		return fmt.Errorf("failed to create workflow execution: %w", err)
	}
	return nil
}

// CreateTx stores a workflow execution within a transaction
func (r *executionRepository) CreateTx(ctx context.Context, tx *sql.Tx, exec *models.WorkflowExecution) error {
	if err := insertExecution(ctx, tx, exec); err != nil {
		return fmt.Errorf("failed to create workflow execution in transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	exec := &models.WorkflowExecution{}
	var completedAt sql.NullTime
	var actions []byte

	err := row.Scan(
		&exec.ID,
		&exec.RuleName,
		&exec.Trigger,
		&exec.Priority,
		&exec.Status,
		&exec.StartedAt,
		&completedAt,
		&actions,
		&exec.EventPayload,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		exec.CompletedAt = completedAt.Time
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &exec.Actions); err != nil {
			return nil, fmt.Errorf("failed to decode execution actions: %w", err)
		}
	}
	return exec, nil
}

// GetByID retrieves an execution by ID
func (r *executionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	exec, err := scanExecution(r.db.QueryRowContext(ctx, selectExecutionColumns+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: execution %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow execution: %w", err)
	}
	return exec, nil
}

// ListRecent returns up to limit executions, newest first
func (r *executionRepository) ListRecent(ctx context.Context, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, selectExecutionColumns+" ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*models.WorkflowExecution, 0, limit)
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow execution: %w", err)
		}
		executions = append(executions, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflow executions: %w", err)
	}

	return executions, nil
}

// CountByStatus returns the number of executions per status
func (r *executionRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) as count
		FROM workflow_execution
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// BeginTx starts a new database transaction
func (r *executionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}
