// Package registry maps node type tags to their handler factories.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/nodes/custom"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// Registry dispatches node creation by type tag. Built-in and custom handlers
// share the same table, so the executor never distinguishes between them. A
// registry is an explicit value owned by its service instance, never a
// package-level global.
type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

// RegisterNode adds a node factory under its type tag, replacing any previous
// registration for the same tag.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
}

// CreateNode instantiates a node of the given type. Unknown types are a hard
// error; there is no silent fallback.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	return factory.Create(ctx, id, config)
}

// HasNodeType reports whether a factory is registered for the type tag.
func (r *Registry) HasNodeType(nodeType string) bool {
	_, ok := r.nodeFactories[nodeType]

	return ok
}

// NodeTypes returns the registered type tags.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.nodeFactories))
	for nodeType := range r.nodeFactories {
		types = append(types, nodeType)
	}

	return types
}

// WithCustomNodes derives a run-scoped registry that additionally resolves
// the given custom node definitions. The receiver is left untouched, so
// concurrent executions with different custom nodes never interfere.
func (r *Registry) WithCustomNodes(defs []models.CustomNodeDef) (*Registry, error) {
	if len(defs) == 0 {
		return r, nil
	}

	scoped := NewRegistry(r.logger)
	for tag, factory := range r.nodeFactories {
		scoped.nodeFactories[tag] = factory
	}

	for _, def := range defs {
		factory, err := custom.NewFactory(def.Type, def.Name, def.Description, def.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid custom node %q: %w", def.Type, err)
		}

		scoped.RegisterNode(factory)
	}

	return scoped, nil
}

// HealthCheck reports whether the registry is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.nodeFactories) == 0 {
		return "No node types registered", false
	}

	return fmt.Sprintf("%d node types registered", len(r.nodeFactories)), true
}
