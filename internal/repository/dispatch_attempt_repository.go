package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// DispatchAttemptRepository defines persistence operations for delivery provider attempts
type DispatchAttemptRepository interface {
	// Create records one dispatch attempt
	Create(ctx context.Context, attempt *models.DispatchAttempt) error

	// CreateTx records one dispatch attempt within a transaction
	CreateTx(ctx context.Context, tx *sql.Tx, attempt *models.DispatchAttempt) error

	// ListByExecution returns every attempt for an execution ordered by action index then attempt number
	ListByExecution(ctx context.Context, executionID string) ([]*models.DispatchAttempt, error)

	// CountByExecutionAction returns the number of attempts made for the action at actionIndex
	CountByExecutionAction(ctx context.Context, executionID string, actionIndex int) (int, error)
}

type dispatchAttemptRepository struct {
	db *sql.DB
}

// NewDispatchAttemptRepository creates a new DispatchAttemptRepository instance
func NewDispatchAttemptRepository(db *sql.DB) DispatchAttemptRepository {
	return &dispatchAttemptRepository{
		db: db,
	}
}

const insertDispatchAttemptQuery = `
	INSERT INTO dispatch_attempt (
		execution_id, action_index, action_type, attempt_no, requested_at,
		response_status, response_body, error_message, success, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func insertDispatchAttempt(ctx context.Context, db queryRower, attempt *models.DispatchAttempt) error {
	now := time.Now()
	if attempt.RequestedAt.IsZero() {
		attempt.RequestedAt = now
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}

	return db.QueryRowContext(
		ctx,
		insertDispatchAttemptQuery,
		attempt.ExecutionID,
		attempt.ActionIndex,
		attempt.ActionType,
		attempt.AttemptNo,
		attempt.RequestedAt,
		attempt.ResponseStatus,
		attempt.ResponseBody,
		attempt.ErrorMessage,
		attempt.Success,
		attempt.CreatedAt,
	).Scan(&attempt.ID)
}

// Create records one dispatch attempt
func (r *dispatchAttemptRepository) Create(ctx context.Context, attempt *models.DispatchAttempt) error {
	if err := insertDispatchAttempt(ctx, r.db, attempt); err != nil {
		return fmt.Errorf("failed to create dispatch attempt: %w", err)
	}
	return nil
}

// CreateTx records one dispatch attempt within a transaction
func (r *dispatchAttemptRepository) CreateTx(ctx context.Context, tx *sql.Tx, attempt *models.DispatchAttempt) error {
	if err := insertDispatchAttempt(ctx, tx, attempt); err != nil {
		return fmt.Errorf("failed to create dispatch attempt in transaction: %w", err)
	}
	return nil
}

// ListByExecution returns every attempt for an execution
func (r *dispatchAttemptRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.DispatchAttempt, error) {
	query := `
		SELECT
			id, execution_id, action_index, action_type, attempt_no, requested_at,
			response_status, response_body, error_message, success, created_at
		FROM dispatch_attempt
		WHERE execution_id = $1
		ORDER BY action_index ASC, attempt_no ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*models.DispatchAttempt
	for rows.Next() {
		attempt := &models.DispatchAttempt{}
		err := rows.Scan(
			&attempt.ID,
			&attempt.ExecutionID,
			&attempt.ActionIndex,
			&attempt.ActionType,
			&attempt.AttemptNo,
			&attempt.RequestedAt,
			&attempt.ResponseStatus,
			&attempt.ResponseBody,
			&attempt.ErrorMessage,
			&attempt.Success,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatch attempts: %w", err)
	}

	return attempts, nil
}

// CountByExecutionAction returns the number of attempts made for the action at actionIndex
func (r *dispatchAttemptRepository) CountByExecutionAction(ctx context.Context, executionID string, actionIndex int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM dispatch_attempt
		WHERE execution_id = $1 AND action_index = $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, executionID, actionIndex).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dispatch attempts: %w", err)
	}

	return count, nil
}
