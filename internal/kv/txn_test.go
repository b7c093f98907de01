package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEnv(t *testing.T) *Env {
	t.Helper()
	env, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestPutGetRoundTrip(t *testing.T) {
	env := openTestEnv(t)

	w := env.BeginWrite()
	require.NoError(t, w.Put([]byte("k"), []byte("v")))
	require.NoError(t, w.Commit())

	r := env.BeginRead()
	defer r.Discard()
	v, ok, err := r.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	env := openTestEnv(t)
	r := env.BeginRead()
	defer r.Discard()
	_, ok, err := r.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRemovesKey(t *testing.T) {
	env := openTestEnv(t)

	w := env.BeginWrite()
	require.NoError(t, w.Put([]byte("k"), []byte("v")))
	require.NoError(t, w.Commit())

	w2 := env.BeginWrite()
	require.NoError(t, w2.Delete([]byte("k")))
	require.NoError(t, w2.Commit())

	r := env.BeginRead()
	defer r.Discard()
	_, ok, err := r.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrefixIterVisitsOnlyMatchingKeysInOrder(t *testing.T) {
	env := openTestEnv(t)

	w := env.BeginWrite()
	require.NoError(t, w.Put([]byte("a:1"), []byte("1")))
	require.NoError(t, w.Put([]byte("a:2"), []byte("2")))
	require.NoError(t, w.Put([]byte("b:1"), []byte("x")))
	require.NoError(t, w.Commit())

	r := env.BeginRead()
	defer r.Discard()
	var keys []string
	require.NoError(t, r.PrefixIter([]byte("a:"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	assert.Equal(t, []string{"a:1", "a:2"}, keys)
}

func TestKeyOnlyPrefixIterSkipsValues(t *testing.T) {
	env := openTestEnv(t)

	w := env.BeginWrite()
	require.NoError(t, w.Put([]byte("e:1"), []byte{}))
	require.NoError(t, w.Put([]byte("e:2"), []byte{}))
	require.NoError(t, w.Commit())

	r := env.BeginRead()
	defer r.Discard()
	var keys []string
	require.NoError(t, r.KeyOnlyPrefixIter([]byte("e:"), func(key []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	assert.ElementsMatch(t, []string{"e:1", "e:2"}, keys)
}

// TestReadTxnIsolatedFromLaterWrite checks that a read transaction opened
// before a write commits keeps seeing its original snapshot afterward:
// the writer's change is invisible to the reader even though it commits
// while the reader is still open.
func TestReadTxnIsolatedFromLaterWrite(t *testing.T) {
	env := openTestEnv(t)

	w0 := env.BeginWrite()
	require.NoError(t, w0.Put([]byte("k"), []byte("before")))
	require.NoError(t, w0.Commit())

	r := env.BeginRead()
	defer r.Discard()

	w1 := env.BeginWrite()
	require.NoError(t, w1.Put([]byte("k"), []byte("after")))
	require.NoError(t, w1.Commit())

	v, ok, err := r.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("before"), v, "snapshot opened before the second write must not observe it")

	r2 := env.BeginRead()
	defer r2.Discard()
	v2, ok, err := r2.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("after"), v2, "a snapshot opened after commit sees the new value")
}
