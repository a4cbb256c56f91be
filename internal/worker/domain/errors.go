package domain

import "errors"

var (
	// ErrJobGone is returned when the record behind a message was deleted
	// before the worker got to it. Not an error worth retrying.
	ErrJobGone = errors.New("scraped job no longer exists")

	// ErrInvalidMessage is returned when a RabbitMQ message body cannot be
	// parsed into a JobMessage.
	ErrInvalidMessage = errors.New("invalid pipeline message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
