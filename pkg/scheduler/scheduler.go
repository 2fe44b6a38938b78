// Package scheduler computes the execution order of workflow graphs.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// ErrCycle is returned when the connection set does not form a DAG.
var ErrCycle = errors.New("workflow graph contains a cycle")

// Order returns a valid topological ordering of nodes using Kahn's algorithm.
// Ties between equally-ready nodes resolve in FIFO order; callers must only
// rely on the ordering being topologically valid.
func Order(nodes []*models.Node, connections []*models.Connection) ([]*models.Node, error) {
	inDegree := make(map[string]int, len(nodes))
	successors := make(map[string][]string, len(nodes))

	for _, node := range nodes {
		inDegree[node.ID] = 0
	}

	for _, conn := range connections {
		successors[conn.SourceID] = append(successors[conn.SourceID], conn.TargetID)
		inDegree[conn.TargetID]++
	}

	queue := make([]string, 0, len(nodes))

	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	byID := make(map[string]*models.Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	ordered := make([]*models.Node, 0, len(nodes))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		ordered = append(ordered, byID[id])

		for _, next := range successors[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) < len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes unreachable through ordering",
			ErrCycle, len(nodes)-len(ordered), len(nodes))
	}

	return ordered, nil
}
