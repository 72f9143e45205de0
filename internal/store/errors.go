package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDriver indicates the configured backend driver is not supported
	ErrUnknownDriver = errors.New("unknown backend driver")

	// ErrUnknownTotal indicates the backend did not report an exact row count
	ErrUnknownTotal = errors.New("backend did not report a row count")
)

// QueryError is a failed read against the backend. Its message is the
// backend's own message, unmodified.
type QueryError struct {
	Relation string
	Status   int
	Code     string
	Message  string
	Cause    error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Detail describes the failure with its context for logs
func (e *QueryError) Detail() string {
	return fmt.Sprintf("query on %s failed (status: %d, code: %s): %s",
		e.Relation, e.Status, e.Code, e.Message)
}

// NewQueryError creates a new query error
func NewQueryError(cause error, relation string, status int, code, message string) *QueryError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &QueryError{
		Cause:    cause,
		Relation: relation,
		Status:   status,
		Code:     code,
		Message:  message,
	}
}

// IsQueryError checks if an error is a backend query error
func IsQueryError(err error) bool {
	var queryErr *QueryError
	return errors.As(err, &queryErr)
}
