package scheduler

import (
	"testing"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodesFromIDs(ids ...string) []*models.Node {
	nodes := make([]*models.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, &models.Node{ID: id, Type: "combine-text"})
	}

	return nodes
}

func conn(source, target string) *models.Connection {
	return &models.Connection{SourceID: source, TargetID: target}
}

// assertTopological checks every node appears exactly once and after all of
// its predecessors, without assuming a specific tie-break.
func assertTopological(t *testing.T, ordered []*models.Node, connections []*models.Connection) {
	t.Helper()

	position := make(map[string]int, len(ordered))
	for i, node := range ordered {
		_, seen := position[node.ID]
		require.False(t, seen, "node %s appears more than once", node.ID)
		position[node.ID] = i
	}

	for _, c := range connections {
		assert.Less(t, position[c.SourceID], position[c.TargetID],
			"node %s must run before %s", c.SourceID, c.TargetID)
	}
}

func TestOrder_LinearChain(t *testing.T) {
	nodes := nodesFromIDs("a", "b", "c")
	connections := []*models.Connection{conn("a", "b"), conn("b", "c")}

	ordered, err := Order(nodes, connections)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assertTopological(t, ordered, connections)
}

func TestOrder_Diamond(t *testing.T) {
	nodes := nodesFromIDs("in", "left", "right", "out")
	connections := []*models.Connection{
		conn("in", "left"),
		conn("in", "right"),
		conn("left", "out"),
		conn("right", "out"),
	}

	ordered, err := Order(nodes, connections)
	require.NoError(t, err)
	require.Len(t, ordered, 4)
	assertTopological(t, ordered, connections)
}

func TestOrder_DisconnectedNodes(t *testing.T) {
	nodes := nodesFromIDs("a", "b", "island")
	connections := []*models.Connection{conn("a", "b")}

	ordered, err := Order(nodes, connections)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assertTopological(t, ordered, connections)
}

func TestOrder_Cycle(t *testing.T) {
	nodes := nodesFromIDs("a", "b", "c")
	connections := []*models.Connection{
		conn("a", "b"),
		conn("b", "c"),
		conn("c", "a"),
	}

	_, err := Order(nodes, connections)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestOrder_SelfLoop(t *testing.T) {
	nodes := nodesFromIDs("a")
	connections := []*models.Connection{conn("a", "a")}

	_, err := Order(nodes, connections)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestOrder_EmptyGraph(t *testing.T) {
	ordered, err := Order(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}
