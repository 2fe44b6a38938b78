// Package executor runs a validated graph node by node in topological order.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/registry"
	"github.com/fluxionhq/fluxion/pkg/scheduler"
)

// NodeError wraps a handler failure with the identity of the failing node.
// Any node failure aborts the whole run; there is no partial continuation.
type NodeError struct {
	NodeID   string
	NodeName string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.NodeName, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// portAliases duplicates well-known target port names under their legacy
// spellings so handlers written against either convention receive the value.
// This is a fixed compatibility table, never inferred.
var portAliases = map[string][]string{
	"user":    {"message", "input"},
	"system":  {"instructions"},
	"context": {"data"},
	"text1":   {"input1"},
	"text2":   {"input2"},
	"input":   {"value", "message"},
}

// Executor runs one graph at a time against a node registry. It is stateless
// across runs; per-run state lives in the ExecutionContext.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewExecutor(reg *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: reg,
		logger:   logger,
		tracer:   otel.Tracer("fluxion.executor"),
	}
}

// Run validates and executes the graph. Request values are seeded into input
// nodes by node id; the returned map carries output node results by node id.
func (e *Executor) Run(ctx context.Context, graph *models.Graph, execCtx *models.ExecutionContext, requestInputs map[string]any) (map[string]any, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}

	ordered, err := scheduler.Order(graph.Nodes, graph.Connections)
	if err != nil {
		return nil, err
	}

	for _, node := range ordered {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		inputs := e.gatherInputs(node, graph.Connections, execCtx)

		if node.IsInputNode() {
			if value, ok := requestInputs[node.ID]; ok {
				inputs[models.DefaultInputPort] = value
			}
		}

		if err := e.runNode(ctx, node, execCtx, inputs); err != nil {
			return nil, err
		}
	}

	outputs := make(map[string]any)

	for _, node := range graph.OutputNodes() {
		result, ok := execCtx.Result(node.ID)
		if !ok {
			outputs[node.ID] = nil
			continue
		}

		value, _ := result.Value(models.DefaultOutputPort)
		outputs[node.ID] = value
	}

	return outputs, nil
}

// gatherInputs collects incoming values for a node from every connection
// targeting it. The source value is read from the connection's source port
// with a fallback to the canonical output port, then written under the target
// port plus its legacy aliases.
func (e *Executor) gatherInputs(node *models.Node, connections []*models.Connection, execCtx *models.ExecutionContext) map[string]any {
	inputs := make(map[string]any)

	for _, conn := range connections {
		if conn.TargetID != node.ID {
			continue
		}

		sourceResult, ok := execCtx.Result(conn.SourceID)
		if !ok {
			continue
		}

		value, ok := sourceResult.Value(conn.FromPort())
		if !ok {
			continue
		}

		targetPort := conn.ToPort()
		inputs[targetPort] = value

		for _, alias := range portAliases[targetPort] {
			if _, taken := inputs[alias]; !taken {
				inputs[alias] = value
			}
		}
	}

	return inputs
}

func (e *Executor) runNode(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext, inputs map[string]any) error {
	e.logger.DebugContext(ctx, "Executing node", "node_id", node.ID, "node_type", node.Type)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "node.execute",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
	)
	defer span.End()

	handler, err := e.registry.CreateNode(ctx, node.Type, node.ID, node.Data)
	if err != nil {
		otelhelper.SetError(span, err)

		return &NodeError{NodeID: node.ID, NodeName: node.Label(), Err: err}
	}

	outputs, err := handler.Execute(ctx, execCtx, inputs)
	if err != nil {
		otelhelper.SetError(span, err)

		execCtx.Record(node.ID, models.NodeResult{
			NodeID:    node.ID,
			Status:    string(models.NodeStatusError),
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})

		return &NodeError{NodeID: node.ID, NodeName: node.Label(), Err: err}
	}

	execCtx.Record(node.ID, models.NodeResult{
		NodeID:    node.ID,
		Data:      outputs,
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	})

	return nil
}
