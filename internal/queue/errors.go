package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrQueueUnavailable is returned when the backing store cannot be reached
	ErrQueueUnavailable = errors.New("action queue unavailable")

	// ErrJobNotFound is returned by Complete, Retry and Fail for an unknown job ID
	ErrJobNotFound = errors.New("action job not found")

	// ErrInvalidPayload is returned for jobs that do not carry a decodable scheduled action
	ErrInvalidPayload = errors.New("invalid action job payload")

	// ErrUnknownJobType marks a job of a type this queue does not dispatch
	ErrUnknownJobType = fmt.Errorf("%w: unknown job type", ErrInvalidPayload)
)

// IsUnavailableError reports whether err means the queue could not be reached
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrQueueUnavailable)
}

// classify wraps a store error for op; connection-level failures become ErrQueueUnavailable
func classify(op string, err error) error {
	if isDatabaseUnavailable(err) {
		return fmt.Errorf("%w: %s: %v", ErrQueueUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s job: %w", op, err)
}

func isDatabaseUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08 is connection_exception, 53300 is too_many_connections, 57P0x is shutdown
		return pqErr.Code.Class() == "08" || pqErr.Code == "53300" || pqErr.Code.Class() == "57"
	}

	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "timeout", "database is closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
