// Package events defines event types for deployment and execution lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "fluxion.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionTimeoutEvent   EventType = "execution.timeout"

	// Deployment lifecycle events.
	WorkflowDeployedEvent    EventType = "workflow.deployed"
	WorkflowKeyRotatedEvent  EventType = "workflow.key_rotated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowSlug string         `json:"workflow_slug"`
	Inputs       map[string]any `json:"inputs,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	DurationMs  int64          `json:"duration_ms"`
	Outputs     map[string]any `json:"outputs,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	DurationMs  int64  `json:"duration_ms"`
	NodeID      string `json:"node_id,omitempty"`
	Error       string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionTimeout struct {
	BaseEvent

	ExecutionID    string `json:"execution_id"`
	DurationMs     int64  `json:"duration_ms"`
	TimeoutLimitMs int64  `json:"timeout_limit_ms"`
}

func (e ExecutionTimeout) GetType() EventType {
	return ExecutionTimeoutEvent
}

type WorkflowDeployed struct {
	BaseEvent

	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (e WorkflowDeployed) GetType() EventType {
	return WorkflowDeployedEvent
}

type WorkflowKeyRotated struct {
	BaseEvent

	Slug string `json:"slug"`
}

func (e WorkflowKeyRotated) GetType() EventType {
	return WorkflowKeyRotatedEvent
}

type WorkflowDeactivated struct {
	BaseEvent

	Slug string `json:"slug"`
}

func (e WorkflowDeactivated) GetType() EventType {
	return WorkflowDeactivatedEvent
}
