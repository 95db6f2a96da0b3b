// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy for calls against the analysis backend.
var (
	// Transport errors.
	ErrNetwork  = errors.New("network error")
	ErrTimeout  = errors.New("request timeout")
	ErrHTTP     = errors.New("http error")
	ErrProtocol = errors.New("protocol error")

	// Local invariant violations.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrEmptyResponse is the cause of a protocol error when the backend
	// answers successfully but returns no reports.
	ErrEmptyResponse = errors.New("no analysis data received")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// APIError is the normalized failure shape produced by the transport and
// domain service layers. Kind is one of the taxonomy sentinels above.
type APIError struct {
	Kind    error
	Err     error
	Details any
	Message string
	Status  int
}

// Error returns the message as received. The status code is available
// through StatusOf.
func (e *APIError) Error() string {
	return e.Message
}

// Is reports whether target is the taxonomy kind of this error.
func (e *APIError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a connection-level failure.
func NewNetworkError(err error) error {
	msg := "network request failed"
	if err != nil {
		msg = err.Error()
	}
	return &APIError{Kind: ErrNetwork, Message: msg, Err: err}
}

// NewTimeoutError reports a call aborted by its deadline.
func NewTimeoutError(err error) error {
	return &APIError{Kind: ErrTimeout, Message: "Request timeout", Err: err, Details: err}
}

// NewHTTPError reports a non-success status code.
func NewHTTPError(status int, message string, details any) error {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &APIError{Kind: ErrHTTP, Status: status, Message: message, Details: details}
}

// NewProtocolError reports a malformed or unexpected response.
func NewProtocolError(message string, err error) error {
	return &APIError{Kind: ErrProtocol, Message: message, Err: err}
}

// NewPreconditionError reports a caller violating a local invariant.
func NewPreconditionError(message string) error {
	return &APIError{Kind: ErrPreconditionFailed, Message: message}
}

// KindOf returns a short name for the taxonomy kind of err, or "unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrHTTP):
		return "http"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition"
	default:
		return "unknown"
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
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

// IsRetryable determines if an error should trigger a retry.
// Only connection failures and timeouts qualify; HTTP errors never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
