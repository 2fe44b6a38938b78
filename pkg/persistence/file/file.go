// Package file provides file-based persistence for deployments and execution
// records. It exists for local development and tests; production setups use
// the postgresql driver.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON files, one per deployment and one per execution record.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file-backed store rooted at the given directory.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{deploymentsDir(cleanRoot), executionsDir(cleanRoot)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persistence directory %s: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func deploymentsDir(root string) string {
	return filepath.Join(root, "deployments")
}

func executionsDir(root string) string {
	return filepath.Join(root, "executions")
}

func (fp *Persistence) deploymentPath(id string) string {
	return filepath.Join(deploymentsDir(fp.root), id+".json")
}

// SaveDeployment writes the full deployment document, creating or replacing.
func (fp *Persistence) SaveDeployment(_ context.Context, workflow *models.DeployedWorkflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate deployment id: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return fp.writeJSON(fp.deploymentPath(workflow.ID), storedDeployment{
		DeployedWorkflow: workflow,
		APIKeyHash:       workflow.APIKeyHash,
	})
}

// storedDeployment re-attaches the key hash, which the model deliberately
// excludes from its public JSON form.
type storedDeployment struct {
	*models.DeployedWorkflow
	APIKeyHash string `json:"api_key_hash"`
}

// DeploymentByID loads one deployment by id.
func (fp *Persistence) DeploymentByID(_ context.Context, id string) (*models.DeployedWorkflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.readDeployment(fp.deploymentPath(id), id)
}

// DeploymentBySlug scans the deployment directory for a matching slug.
func (fp *Persistence) DeploymentBySlug(ctx context.Context, slug string) (*models.DeployedWorkflow, error) {
	deployments, err := fp.Deployments(ctx, persistence.ListOptions{})
	if err != nil {
		return nil, err
	}

	for _, deployment := range deployments {
		if deployment.Slug == slug {
			return deployment, nil
		}
	}

	return nil, persistence.NewDeploymentError("DeploymentBySlug", slug, persistence.ErrDeploymentNotFound)
}

// SlugExists reports whether any deployment, active or not, holds the slug.
func (fp *Persistence) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := fp.DeploymentBySlug(ctx, slug)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Deployments lists deployments, newest first.
func (fp *Persistence) Deployments(_ context.Context, opts persistence.ListOptions) ([]*models.DeployedWorkflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	entries, err := os.ReadDir(deploymentsDir(fp.root))
	if err != nil {
		return nil, fmt.Errorf("failed to read deployments directory: %w", err)
	}

	deployments := make([]*models.DeployedWorkflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		deployment, err := fp.readDeployment(fp.deploymentPath(id), id)
		if err != nil {
			return nil, err
		}

		if opts.Owner != "" && deployment.Owner != opts.Owner {
			continue
		}

		deployments = append(deployments, deployment)
	}

	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].CreatedAt.After(deployments[j].CreatedAt)
	})

	return paginate(deployments, opts), nil
}

// DeactivateDeployment soft-deletes a deployment. The record stays on disk so
// its slug remains reserved and execution history stays reachable.
func (fp *Persistence) DeactivateDeployment(ctx context.Context, id string) error {
	deployment, err := fp.DeploymentByID(ctx, id)
	if err != nil {
		return err
	}

	deployment.IsActive = false

	return fp.SaveDeployment(ctx, deployment)
}

// RecordExecution appends the record and bumps the workflow counters. The
// deployment read and counter rewrite share one critical section so
// concurrent executions never lose increments.
func (fp *Persistence) RecordExecution(_ context.Context, record *models.ExecutionRecord) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	deployment, err := fp.readDeployment(fp.deploymentPath(record.WorkflowID), record.WorkflowID)
	if err != nil {
		return err
	}

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution id: %w", err)
		}

		record.ID = id.String()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	dir := filepath.Join(executionsDir(fp.root), record.WorkflowID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	if err := fp.writeJSON(filepath.Join(dir, record.ID+".json"), record); err != nil {
		return err
	}

	deployment.ExecutionCount++
	executedAt := record.CreatedAt
	deployment.LastExecutedAt = &executedAt

	return fp.writeJSON(fp.deploymentPath(deployment.ID), storedDeployment{
		DeployedWorkflow: deployment,
		APIKeyHash:       deployment.APIKeyHash,
	})
}

// Executions lists a workflow's execution records, newest first.
func (fp *Persistence) Executions(_ context.Context, workflowID string, opts persistence.ListOptions) ([]*models.ExecutionRecord, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	dir := filepath.Join(executionsDir(fp.root), workflowID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ExecutionRecord{}, nil
		}

		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution record: %w", err)
		}

		var record models.ExecutionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record %s: %w", entry.Name(), err)
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return paginate(records, opts), nil
}

// HealthCheck verifies the root directory is reachable.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	return nil
}

// Close performs any necessary cleanup. For file persistence there is none.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) readDeployment(path, id string) (*models.DeployedWorkflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDeploymentError("DeploymentByID", id, persistence.ErrDeploymentNotFound)
		}

		return nil, persistence.NewDeploymentError("DeploymentByID", id, err)
	}

	var stored storedDeployment

	stored.DeployedWorkflow = &models.DeployedWorkflow{}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, persistence.NewDeploymentError("DeploymentByID", id, err)
	}

	stored.DeployedWorkflow.APIKeyHash = stored.APIKeyHash

	return stored.DeployedWorkflow, nil
}

func (fp *Persistence) writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func paginate[T any](items []T, opts persistence.ListOptions) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return []T{}
		}

		items = items[opts.Offset:]
	}

	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}

	return items
}
