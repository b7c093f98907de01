package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	env, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// TestInsertSearchFindsNearest inserts three well-separated vectors and
// checks the nearest one to a query is returned first.
func TestInsertSearchFindsNearest(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 3)

	ids := map[string]codec.ID{
		"a": codec.NewID(),
		"b": codec.NewID(),
		"c": codec.NewID(),
	}
	vecs := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0, 0, 1},
	}

	txn := env.BeginWrite()
	for k, id := range ids {
		require.NoError(t, ix.Insert(txn, id, vecs[k]))
	}
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{0.9, 0.1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ids["a"], results[0].ID)
}

// TestSearchReturnsKNearestInOrder checks results come back sorted
// ascending by distance and truncated to k.
func TestSearchReturnsKNearestInOrder(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	pts := [][2]float32{{0, 0}, {1, 0}, {5, 0}, {10, 0}}
	txn := env.BeginWrite()
	ordered := make([]codec.ID, len(pts))
	for i, p := range pts {
		id := codec.NewID()
		ordered[i] = id
		require.NoError(t, ix.Insert(txn, id, p[:]))
	}
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ordered[0], results[0].ID)
	assert.Equal(t, ordered[1], results[1].ID)
	assert.LessOrEqual(t, results[0].Dist, results[1].Dist)
}

// TestSearchWithFilterExcludesRejected checks the pre-filter predicate
// keeps a matching result out of the result set even when it is closest.
func TestSearchWithFilterExcludesRejected(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	near := codec.NewID()
	far := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, ix.Insert(txn, near, []float32{0, 0}))
	require.NoError(t, ix.Insert(txn, far, []float32{100, 0}))
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{0, 0}, 2, func(id codec.ID) bool {
		return id != near
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, far, results[0].ID)
}

// TestSearchRejectsWrongDimension matches dimension
// invariant.
func TestSearchRejectsWrongDimension(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 3)
	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, err := ix.Search(rtxn, []float32{0, 0}, 1, nil)
	assert.ErrorIs(t, err, herr.ErrInvalidLength)
}

func TestInsertRejectsWrongDimension(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 3)
	txn := env.BeginWrite()
	defer txn.Discard()
	err := ix.Insert(txn, codec.NewID(), []float32{0, 0})
	assert.ErrorIs(t, err, herr.ErrInvalidLength)
}

// TestSearchWithNoEntryPoint checks a fresh, empty index reports its own
// sentinel rather than panicking.
func TestSearchWithNoEntryPoint(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 3)
	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, err := ix.Search(rtxn, []float32{0, 0, 0}, 1, nil)
	assert.ErrorIs(t, err, herr.ErrEntryPointNotFound)
}

// TestDeleteTombstonesVector checks a deleted vector is excluded from
// subsequent searches.
func TestDeleteTombstonesVector(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	keep := codec.NewID()
	drop := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, ix.Insert(txn, drop, []float32{0, 0}))
	require.NoError(t, ix.Insert(txn, keep, []float32{5, 0}))
	require.NoError(t, txn.Commit())

	txn2 := env.BeginWrite()
	require.NoError(t, ix.Delete(txn2, drop))
	require.NoError(t, txn2.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{0, 0}, 5, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, drop, r.ID)
	}
}

func TestDeleteMissingVectorFails(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)
	txn := env.BeginWrite()
	defer txn.Discard()
	err := ix.Delete(txn, codec.NewID())
	assert.ErrorIs(t, err, herr.ErrVectorNotFound)
}

// TestCompactRemovesTombstonedVectorAndEdges checks that compaction drops
// a deleted vector's stored records and severs its bidirectional
// adjacency, so a surviving neighbor's own neighbor list no longer
// mentions it.
func TestCompactRemovesTombstonedVectorAndEdges(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	keep := codec.NewID()
	drop := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, ix.Insert(txn, keep, []float32{0, 0}))
	require.NoError(t, ix.Insert(txn, drop, []float32{1, 0}))
	require.NoError(t, txn.Commit())

	txn2 := env.BeginWrite()
	require.NoError(t, ix.Delete(txn2, drop))
	require.NoError(t, txn2.Commit())

	txn3 := env.BeginWrite()
	require.NoError(t, ix.Compact(txn3))
	require.NoError(t, txn3.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, ok, err := getVectorAt(rtxn, drop, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	nbrs, err := neighborsAt(rtxn, keep, 0)
	require.NoError(t, err)
	assert.NotContains(t, nbrs, drop)
}

// TestCompactReassignsEntryPointWhenRemoved checks that compacting away
// the vector currently serving as the HNSW entry point leaves a usable
// index: a subsequent insert and search still succeed.
func TestCompactReassignsEntryPointWhenRemoved(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	only := codec.NewID()
	txn := env.BeginWrite()
	require.NoError(t, ix.Insert(txn, only, []float32{0, 0}))
	require.NoError(t, txn.Commit())

	txn2 := env.BeginWrite()
	require.NoError(t, ix.Delete(txn2, only))
	require.NoError(t, txn2.Commit())

	txn3 := env.BeginWrite()
	require.NoError(t, ix.Compact(txn3))
	require.NoError(t, txn3.Commit())

	next := codec.NewID()
	txn4 := env.BeginWrite()
	require.NoError(t, ix.Insert(txn4, next, []float32{3, 3}))
	require.NoError(t, txn4.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{3, 3}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, next, results[0].ID)
}

// TestInsertManyBuildsMultiLevelGraph exercises the randomized-level path
// of Insert across enough points that at least one lands above level 0,
// then checks search still converges to the true nearest neighbor.
func TestInsertManyBuildsMultiLevelGraph(t *testing.T) {
	env := openTestEnv(t)
	ix := New(DefaultConfig(), 2)

	txn := env.BeginWrite()
	var target codec.ID
	for i := 0; i < 50; i++ {
		id := codec.NewID()
		x := float32(i)
		if i == 25 {
			target = id
		}
		require.NoError(t, ix.Insert(txn, id, []float32{x, 0}))
	}
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := ix.Search(rtxn, []float32{25, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, target, results[0].ID)
	assert.Equal(t, 0.0, results[0].Dist)
}
