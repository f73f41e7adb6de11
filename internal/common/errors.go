// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Session errors.
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotFound               = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RemoteError represents a failure reported by (or while reaching) the remote
// API: a network error, a non-2xx status, or a message extracted from the
// error body. It is surfaced to the user as inline text, never as a crash.
type RemoteError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote error: %s", e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError creates a RemoteError with a user-facing message.
func NewRemoteError(statusCode int, message string, err error) error {
	return &RemoteError{StatusCode: statusCode, Message: message, Err: err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// FormatUserError renders an error for the terminal, preferring the short
// user-facing message when one is carried.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	if errors.Is(err, ErrAuthenticationRequired) {
		return "not logged in: run `fincontrol login` first"
	}
	return err.Error()
}

// RetryableError wraps an error with an explicit retry decision.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
