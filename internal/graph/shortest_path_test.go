package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/herr"
)

// TestShortestPathSameNode covers the degenerate case where from and to
// are the same node.
func TestShortestPathSameNode(t *testing.T) {
	env := openTestEnv(t)
	s := New(nil)

	txn := env.BeginWrite()
	a, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	path, err := s.ShortestPath(rtxn, "", a.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, path.Nodes, 1)
	assert.Equal(t, a.ID, path.Nodes[0].ID)
	assert.Empty(t, path.Edges)
}

// TestShortestPathPrefersFewestHops builds a direct a->c edge alongside a
// longer a->b->c chain and checks BFS returns the one-hop path.
func TestShortestPathPrefersFewestHops(t *testing.T) {
	env := openTestEnv(t)
	s := New(nil)

	txn := env.BeginWrite()
	a, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	b, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	c, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)

	_, err = s.AddEdge(txn, "Knows", a.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(txn, "Knows", b.ID, c.ID, nil)
	require.NoError(t, err)
	direct, err := s.AddEdge(txn, "Knows", a.ID, c.ID, nil)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	path, err := s.ShortestPath(rtxn, "Knows", a.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, path.Nodes, 2)
	require.Len(t, path.Edges, 1)
	assert.Equal(t, direct.ID, path.Edges[0].ID)
}

// TestShortestPathLabelFilter confirms label restricts traversal to only
// matching edges.
func TestShortestPathLabelFilter(t *testing.T) {
	env := openTestEnv(t)
	s := New(nil)

	txn := env.BeginWrite()
	a, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	b, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(txn, "Blocks", a.ID, b.ID, nil)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, err = s.ShortestPath(rtxn, "Knows", a.ID, b.ID)
	assert.ErrorIs(t, err, herr.ErrShortestPathNotFound)

	path, err := s.ShortestPath(rtxn, "Blocks", a.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, path.Edges, 1)
}

func TestShortestPathUnreachable(t *testing.T) {
	env := openTestEnv(t)
	s := New(nil)

	txn := env.BeginWrite()
	a, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	b, err := s.AddNode(txn, "User", nil)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, err = s.ShortestPath(rtxn, "", a.ID, b.ID)
	assert.ErrorIs(t, err, herr.ErrShortestPathNotFound)
}
