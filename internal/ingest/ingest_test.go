package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/vector"
)

type testStore struct {
	g       *graph.Store
	indexes map[string]*vector.Index
}

func newTestStore() *testStore {
	return &testStore{g: graph.New(nil), indexes: map[string]*vector.Index{}}
}

func (s *testStore) Graph() *graph.Store { return s.g }

func (s *testStore) VectorIndex(label string) (*vector.Index, bool) {
	idx, ok := s.indexes[label]
	return idx, ok
}

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	env, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestStreamNodesThenEdgesByOrdinal(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	in := New(store)

	src := `
{"payload_type":"node","label":"User","properties":{"name":"Alice"}}
{"payload_type":"node","label":"User","properties":{"name":"Bob"}}
{"payload_type":"edge","label":"Knows","properties":{"since":2020},"from":0,"to":1}
`
	w := env.BeginWrite()
	stats, err := in.Stream(w, strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, 2, stats.NodesCreated)
	assert.Equal(t, 1, stats.EdgesCreated)

	r := env.BeginRead()
	defer r.Discard()
	aliceID := in.ordinals[0]
	node, err := store.Graph().GetNode(r, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", node.Properties["name"].Str)

	edges, err := store.Graph().OutEdges(r, aliceID, "Knows")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, in.ordinals[1], edges[0].To)
	assert.Equal(t, float64(2020), edges[0].Properties["since"].F64)
}

func TestStreamRejectsUnknownPayloadType(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	in := New(store)

	w := env.BeginWrite()
	_, err := in.Stream(w, strings.NewReader(`{"payload_type":"vector","label":"X","properties":{}}`))
	assert.Error(t, err)
}

func TestStreamEdgeOrdinalOutOfRangeFails(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	in := New(store)

	w := env.BeginWrite()
	_, err := in.Stream(w, strings.NewReader(`{"payload_type":"edge","label":"Knows","properties":{},"from":0,"to":1}`))
	assert.Error(t, err)
}

func TestStreamNodeWithVectorFieldInsertsIntoIndex(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	store.indexes["Doc"] = vector.New(vector.DefaultConfig(), 3)
	in := New(store)

	src := `{"payload_type":"node","label":"Doc","properties":{"tag":"a","vector":[1,0,0]}}`
	w := env.BeginWrite()
	stats, err := in.Stream(w, strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, 1, stats.NodesCreated)

	r := env.BeginRead()
	defer r.Discard()
	node, err := store.Graph().GetNode(r, in.ordinals[0])
	require.NoError(t, err)
	_, hasVectorProp := node.Properties["vector"]
	assert.False(t, hasVectorProp, "vector field must be popped out of stored properties")
	assert.Equal(t, "a", node.Properties["tag"].Str)

	results, err := store.indexes["Doc"].Search(r, []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, in.ordinals[0], results[0].ID)
}

func TestBulkEdges(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	in := New(store)

	w := env.BeginWrite()
	a, err := store.Graph().AddNode(w, "User", map[string]codec.Value{})
	require.NoError(t, err)
	b, err := store.Graph().AddNode(w, "User", map[string]codec.Value{})
	require.NoError(t, err)

	n, err := in.BulkEdges(w, []graph.EdgeSpec{
		{Label: "Knows", From: a.ID, To: b.ID, Properties: map[string]codec.Value{}},
	})
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, 1, n)

	r := env.BeginRead()
	defer r.Discard()
	edges, err := store.Graph().OutEdges(r, a.ID, "Knows")
	require.NoError(t, err)
	require.Len(t, edges, 1)
}
