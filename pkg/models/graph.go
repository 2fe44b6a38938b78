// Package models defines the core domain models for graph-based workflow execution.
package models

import (
	"errors"
	"fmt"
)

// Canonical port names used when a connection does not name its ports.
const (
	DefaultOutputPort = "output"
	DefaultInputPort  = "input"
)

// Node type tags that bind a node to the generated API surface.
const (
	NodeTypeInput  = "input"
	NodeTypeOutput = "output"
)

// Graph is the deployable unit: a set of typed nodes and directed connections.
type Graph struct {
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Nodes       []*Node       `json:"nodes"        validate:"required,min=1"`
	Connections []*Connection `json:"connections"`
}

// Node is a single unit of work inside a graph. Data is an opaque
// configuration bag interpreted only by the handler selected by Type.
type Node struct {
	ID   string         `json:"id"   validate:"required"`
	Type string         `json:"type" validate:"required"`
	Name string         `json:"name,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Connection wires a source node's output port to a target node's input port.
// Ports default to the canonical "output"/"input" names when omitted.
type Connection struct {
	SourceID   string `json:"sourceId"   validate:"required"`
	TargetID   string `json:"targetId"   validate:"required"`
	SourcePort string `json:"sourcePort,omitempty"`
	TargetPort string `json:"targetPort,omitempty"`
}

// FromPort returns the source port, falling back to the canonical output port.
func (c *Connection) FromPort() string {
	if c.SourcePort == "" {
		return DefaultOutputPort
	}

	return c.SourcePort
}

// ToPort returns the target port, falling back to the canonical input port.
func (c *Connection) ToPort() string {
	if c.TargetPort == "" {
		return DefaultInputPort
	}

	return c.TargetPort
}

// IsInputNode reports whether the node binds to a generated request field.
func (n *Node) IsInputNode() bool {
	return n.Type == NodeTypeInput
}

// IsOutputNode reports whether the node binds to a generated response field.
func (n *Node) IsOutputNode() bool {
	return n.Type == NodeTypeOutput
}

// Label returns the display name of the node, falling back to its id.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}

	if label, ok := n.Data["label"].(string); ok && label != "" {
		return label
	}

	return n.ID
}

// Validation errors reported by Graph.Validate.
var (
	ErrEmptyGraph        = errors.New("graph has no nodes")
	ErrNoInputNode       = errors.New("graph has no input node")
	ErrNoOutputNode      = errors.New("graph has no output node")
	ErrUnknownConnection = errors.New("connection references unknown node")
	ErrDuplicateNodeID   = errors.New("duplicate node id")
	ErrGraphCycle        = errors.New("graph contains a cycle")
)

// Validate checks the structural invariants of the graph. It runs at deploy
// time and again defensively before every execution.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return ErrEmptyGraph
	}

	byID := make(map[string]*Node, len(g.Nodes))

	hasInput := false
	hasOutput := false

	for _, node := range g.Nodes {
		if _, exists := byID[node.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
		}

		byID[node.ID] = node

		if node.IsInputNode() {
			hasInput = true
		}

		if node.IsOutputNode() {
			hasOutput = true
		}
	}

	if !hasInput {
		return ErrNoInputNode
	}

	if !hasOutput {
		return ErrNoOutputNode
	}

	for _, conn := range g.Connections {
		if _, ok := byID[conn.SourceID]; !ok {
			return fmt.Errorf("%w: source %s", ErrUnknownConnection, conn.SourceID)
		}

		if _, ok := byID[conn.TargetID]; !ok {
			return fmt.Errorf("%w: target %s", ErrUnknownConnection, conn.TargetID)
		}
	}

	return g.checkAcyclic()
}

// checkAcyclic runs a full cycle check over the connection set. The scheduler
// performs its own check during ordering; this one exists so validation can
// reject a cyclic graph before anything executes.
func (g *Graph) checkAcyclic() error {
	adjacency := make(map[string][]string, len(g.Nodes))
	for _, conn := range g.Connections {
		adjacency[conn.SourceID] = append(adjacency[conn.SourceID], conn.TargetID)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(g.Nodes))

	var visit func(id string) error

	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: at node %s", ErrGraphCycle, id)
		case done:
			return nil
		}

		state[id] = visiting

		for _, next := range adjacency[id] {
			if err := visit(next); err != nil {
				return err
			}
		}

		state[id] = done

		return nil
	}

	for _, node := range g.Nodes {
		if err := visit(node.ID); err != nil {
			return err
		}
	}

	return nil
}

// NodeByID returns the node with the given id, if present.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// InputNodes returns the nodes bound to request fields, in declaration order.
func (g *Graph) InputNodes() []*Node {
	nodes := make([]*Node, 0)

	for _, node := range g.Nodes {
		if node.IsInputNode() {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// OutputNodes returns the nodes bound to response fields, in declaration order.
func (g *Graph) OutputNodes() []*Node {
	nodes := make([]*Node, 0)

	for _, node := range g.Nodes {
		if node.IsOutputNode() {
			nodes = append(nodes, node)
		}
	}

	return nodes
}
