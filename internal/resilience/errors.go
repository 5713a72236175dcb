package resilience

import (
	"errors"
	"strings"
)

// TransientError wraps an error that is safe to retry, e.g. SQLite lock
// contention or an EINTR'd filesystem call during batch staging.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient returns true if err (or any error in its chain) is a
// TransientError, or matches the SQLite busy/locked conditions that
// InsertBatch's per-batch transaction commit (spec.md §4.4) can hit when
// the other side's insert loop writes concurrently, despite busy_timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"database is locked",
		"sqlite_busy",
		"sqlite_locked",
		"database table is locked",
		"disk i/o error",
		"interrupted system call",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
