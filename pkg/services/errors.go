// Package services implements the deployment and execution use cases on top
// of the persistence layer and the graph executor.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrGraphRequired        = errors.New("workflow graph is required")
	ErrInvalidInputs        = errors.New("inputs do not match the workflow schema")

	// Conflict errors (409 Conflict).
	ErrSlugTaken = errors.New("slug is already taken")

	// Authentication errors (401/403).
	ErrMissingAPIKey    = errors.New("missing API key")
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrWorkflowInactive = errors.New("workflow is inactive")

	// Lookup errors (404 Not Found).
	ErrWorkflowNotFound = errors.New("workflow not found")

	// Execution errors.
	ErrExecutionTimeout = errors.New("execution timed out")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrGraphRequired) ||
		errors.Is(err, ErrInvalidInputs)
}

// IsAuthError checks if an error is an authentication or authorization
// failure that should return HTTP 401 or 403.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingAPIKey) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrWorkflowInactive)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should
// return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSlugTaken)
}

// IsTimeoutError checks if an error marks an execution that exceeded its
// wall-clock bound.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrExecutionTimeout)
}
