// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDeploymentNotFound indicates no deployment matched the identifier or slug.
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrDeploymentInactive indicates the deployment exists but was deleted.
	ErrDeploymentInactive = errors.New("deployment is inactive")

	// ErrSlugTaken indicates the requested slug is already in use.
	ErrSlugTaken = errors.New("slug already taken")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution record not found")
)

// DeploymentError wraps deployment-related errors with operation context.
type DeploymentError struct {
	Op           string // Operation being performed (e.g., "SaveDeployment", "DeploymentBySlug")
	DeploymentID string // Deployment id or slug if applicable
	Err          error  // Underlying error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("%s operation failed for deployment %s: %v", e.Op, e.DeploymentID, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for deployment errors.
func (e *DeploymentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDeploymentError creates a new deployment error with context.
func NewDeploymentError(op, deploymentID string, err error) *DeploymentError {
	return &DeploymentError{
		Op:           op,
		DeploymentID: deploymentID,
		Err:          err,
	}
}

// ExecutionError wraps execution-record errors with operation context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsDeploymentNotFound checks if an error indicates a missing deployment.
func IsDeploymentNotFound(err error) bool {
	return errors.Is(err, ErrDeploymentNotFound)
}

// IsDeploymentInactive checks if an error indicates a deactivated deployment.
func IsDeploymentInactive(err error) bool {
	return errors.Is(err, ErrDeploymentInactive)
}

// IsSlugTaken checks if an error indicates a slug collision.
func IsSlugTaken(err error) bool {
	return errors.Is(err, ErrSlugTaken)
}
