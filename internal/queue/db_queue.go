package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DBQueue implements Queue on the action_jobs PostgreSQL table
type DBQueue struct {
	db *sql.DB
}

// NewDBQueue creates a new database-backed queue.
// The action_jobs table is created by the migrations.
func NewDBQueue(db *sql.DB) (*DBQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBQueue{db: db}, nil
}

// Enqueue adds a job that is due immediately
func (q *DBQueue) Enqueue(ctx context.Context, jobType string, payload map[string]interface{}) error {
	return q.EnqueueWithDelay(ctx, jobType, payload, 0)
}

// EnqueueWithDelay adds a job that becomes due after delay
func (q *DBQueue) EnqueueWithDelay(ctx context.Context, jobType string, payload map[string]interface{}, delay time.Duration) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	query := `
		INSERT INTO action_jobs (job_type, payload, run_at)
		VALUES ($1, $2, $3)
	`

	if _, err := q.db.ExecContext(ctx, query, jobType, payloadJSON, time.Now().Add(delay)); err != nil {
		return classify("enqueue", err)
	}

	return nil
}

// Dequeue claims the oldest due job. Concurrent workers never claim the same row.
func (q *DBQueue) Dequeue(ctx context.Context) (*Job, error) {
	query := `
		UPDATE action_jobs
		SET status = 'processing', attempts = attempts + 1
		WHERE id = (
			SELECT id FROM action_jobs
			WHERE status = 'pending' AND run_at <= NOW()
			ORDER BY run_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, job_type, payload, created_at, run_at, attempts
	`

	var job Job
	var payloadJSON []byte

	err := q.db.QueryRowContext(ctx, query).Scan(
		&job.ID,
		&job.Type,
		&payloadJSON,
		&job.CreatedAt,
		&job.RunAt,
		&job.Attempts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("dequeue", err)
	}

	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &job, nil
}

// Complete marks a job as successfully completed
func (q *DBQueue) Complete(ctx context.Context, jobID int64) error {
	return q.update(ctx, "complete", `
		UPDATE action_jobs
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1
	`, jobID)
}

// Retry puts a job back into the pending set after delay
func (q *DBQueue) Retry(ctx context.Context, jobID int64, delay time.Duration) error {
	return q.update(ctx, "retry", `
		UPDATE action_jobs
		SET status = 'pending', run_at = $2
		WHERE id = $1
	`, jobID, time.Now().Add(delay))
}

// Fail marks a job as permanently failed
func (q *DBQueue) Fail(ctx context.Context, jobID int64, errorMsg string) error {
	return q.update(ctx, "fail", `
		UPDATE action_jobs
		SET status = 'failed', last_error = $2, failed_at = NOW()
		WHERE id = $1
	`, jobID, errorMsg)
}

func (q *DBQueue) update(ctx context.Context, op, query string, jobID int64, args ...interface{}) error {
	result, err := q.db.ExecContext(ctx, query, append([]interface{}{jobID}, args...)...)
	if err != nil {
		return classify(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
	}
	return nil
}

// CountByStatus returns the number of jobs per status
func (q *DBQueue) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM action_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// HealthCheck verifies the queue is operational
func (q *DBQueue) HealthCheck(ctx context.Context) error {
	var result int
	if err := q.db.QueryRowContext(ctx, `SELECT 1`).Scan(&result); err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}

// Close is a no-op; the queue does not own the database connection
func (q *DBQueue) Close() error {
	return nil
}
