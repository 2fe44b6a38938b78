package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

// ExecutionRepository handles execution-record database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Record inserts the execution record and bumps the owning workflow's
// counters inside one transaction. Each execution commits independently; no
// lock is held across node invocations.
func (r *ExecutionRepository) Record(ctx context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return &persistence.ExecutionError{Op: "Record", Err: err}
		}

		record.ID = id.String()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	inputsJSON, err := json.Marshal(record.Inputs)
	if err != nil {
		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	outputsJSON, err := json.Marshal(record.Outputs)
	if err != nil {
		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO execution_records (
			id, workflow_id, inputs, outputs, status, error_message, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		record.ID, record.WorkflowID, inputsJSON, outputsJSON,
		string(record.Status), record.ErrorMessage, record.DurationMs, record.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()

		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE deployed_workflows
		SET execution_count = execution_count + 1,
		    last_executed_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, record.WorkflowID, record.CreatedAt)
	if err != nil {
		_ = tx.Rollback()

		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	err = tx.Commit()
	if err != nil {
		return &persistence.ExecutionError{Op: "Record", ExecutionID: record.ID, Err: err}
	}

	return nil
}

// List returns a workflow's execution records, newest first.
func (r *ExecutionRepository) List(ctx context.Context, workflowID string, opts persistence.ListOptions) ([]*models.ExecutionRecord, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , inputs
		  , outputs
		  , status
		  , error_message
		  , duration_ms
		  , created_at
		FROM execution_records
		WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT CASE WHEN $2 > 0 THEN $2 ELSE NULL END
		OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution records: %w", err)
	}

	return records, nil
}

func (r *ExecutionRepository) scanRecord(rows *sql.Rows) (*models.ExecutionRecord, error) {
	var (
		record      models.ExecutionRecord
		status      string
		inputsJSON  []byte
		outputsJSON []byte
	)

	err := rows.Scan(
		&record.ID, &record.WorkflowID, &inputsJSON, &outputsJSON,
		&status, &record.ErrorMessage, &record.DurationMs, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.ExecutionStatus(status)

	if len(inputsJSON) > 0 {
		if err := json.Unmarshal(inputsJSON, &record.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode inputs: %w", err)
		}
	}

	if len(outputsJSON) > 0 {
		if err := json.Unmarshal(outputsJSON, &record.Outputs); err != nil {
			return nil, fmt.Errorf("failed to decode outputs: %w", err)
		}
	}

	return &record, nil
}
