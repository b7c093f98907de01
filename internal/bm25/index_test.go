package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/kv"
)

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	env, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// TestSearchRanksByRelevance checks a document repeating the query term
// ranks above one merely containing it once.
func TestSearchRanksByRelevance(t *testing.T) {
	env := openTestEnv(t)

	relevant := codec.NewID()
	other := codec.NewID()
	unrelated := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, Insert(txn, relevant, "graph database graph database graph"))
	require.NoError(t, Insert(txn, other, "graph theory basics"))
	require.NoError(t, Insert(txn, unrelated, "cooking recipes for dinner"))
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := Search(rtxn, "graph database", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, relevant, results[0].DocID)
	assert.Equal(t, other, results[1].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchEmptyQueryFails(t *testing.T) {
	env := openTestEnv(t)
	txn := env.BeginWrite()
	require.NoError(t, Insert(txn, codec.NewID(), "some text"))
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	_, err := Search(rtxn, "   ", 10)
	assert.Error(t, err)
}

func TestSearchOnEmptyIndexReturnsNothing(t *testing.T) {
	env := openTestEnv(t)
	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := Search(rtxn, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestDeleteRemovesFromResults checks a deleted document no longer
// contributes postings.
func TestDeleteRemovesFromResults(t *testing.T) {
	env := openTestEnv(t)

	a := codec.NewID()
	b := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, Insert(txn, a, "widgets and gadgets"))
	require.NoError(t, Insert(txn, b, "widgets galore"))
	require.NoError(t, txn.Commit())

	txn2 := env.BeginWrite()
	require.NoError(t, Delete(txn2, a))
	require.NoError(t, txn2.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := Search(rtxn, "widgets", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b, results[0].DocID)
}

func TestDeleteMissingDocIsNoop(t *testing.T) {
	env := openTestEnv(t)
	txn := env.BeginWrite()
	defer txn.Discard()
	assert.NoError(t, Delete(txn, codec.NewID()))
}

// TestUpdateReplacesTerms checks Update drops the old term set and adopts
// the new one.
func TestUpdateReplacesTerms(t *testing.T) {
	env := openTestEnv(t)
	doc := codec.NewID()

	txn := env.BeginWrite()
	require.NoError(t, Insert(txn, doc, "alpha beta"))
	require.NoError(t, txn.Commit())

	txn2 := env.BeginWrite()
	require.NoError(t, Update(txn2, doc, "gamma delta"))
	require.NoError(t, txn2.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	stale, err := Search(rtxn, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	fresh, err := Search(rtxn, "gamma", 10)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, doc, fresh[0].DocID)
}

func TestInsertEmptyTextIsUnindexed(t *testing.T) {
	env := openTestEnv(t)
	txn := env.BeginWrite()
	require.NoError(t, Insert(txn, codec.NewID(), "   "))
	require.NoError(t, txn.Commit())

	rtxn := env.BeginRead()
	defer rtxn.Discard()
	results, err := Search(rtxn, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
