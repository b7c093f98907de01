// Package kv adapts github.com/dgraph-io/badger/v4 to a small KV
// primitive contract: environments, transactions, prefix iteration, and
// byte-ordered keys. Every higher layer (graph, vector, bm25) talks to
// this package, never to *badger.DB directly, so the rest of the engine
// is agnostic to which ordered-map primitive backs it.
package kv

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/helixdb/helix/internal/herr"
)

// Options configures the environment. Badger has no database-count or
// reader-count limit (single flat keyspace, MVCC readers are unbounded),
// so Options has no fields for either.
type Options struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	MapSizeGB  int // clamped to <= 9998, informational only under Badger
}

// Env wraps one badger.DB. The handle is shared and cloneable: multiple
// callers may hold it and open independent transactions concurrently.
type Env struct {
	db *badger.DB
}

// Open opens (creating if absent) the environment at opts.Path.
func Open(opts Options) (*Env, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, herr.Storage(err)
	}
	return &Env{db: db}, nil
}

// Close releases the environment. Safe to call once.
func (e *Env) Close() error {
	if err := e.db.Close(); err != nil {
		return herr.Storage(err)
	}
	return nil
}

// BeginRead opens a read-only, snapshot-isolated transaction: reads see a
// consistent snapshot from open to discard, unaffected by later writers.
func (e *Env) BeginRead() *RoTxn {
	return &RoTxn{txn: e.db.NewTransaction(false)}
}

// BeginWrite opens a read-write transaction. It does not wait for or
// exclude other writers: Badger lets several read-write transactions be
// open at once and serializes only their commits, and Commit fails with a
// conflict error when a key this transaction read was written by another
// transaction that committed after this one began.
func (e *Env) BeginWrite() *RwTxn {
	return &RwTxn{RoTxn: RoTxn{txn: e.db.NewTransaction(true)}}
}

// RoTxn is a read-only transaction handle. Iterators borrow it and must
// not outlive it.
type RoTxn struct {
	txn *badger.Txn
}

// Discard releases the transaction's resources without committing.
func (t *RoTxn) Discard() { t.txn.Discard() }

// Get fetches the value stored at key. A missing key is not an error: it
// is reported by a false second result.
func (t *RoTxn) Get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, herr.Storage(err)
	}
	var out []byte
	err = item.Value(func(v []byte) error {
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, herr.Storage(err)
	}
	return out, true, nil
}

// PrefixIter calls fn for every key with the given prefix in key order.
// Returning an error from fn stops iteration early and propagates the
// error.
func (t *RoTxn) PrefixIter(prefix []byte, fn func(key, value []byte) error) error {
	it := t.txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := append([]byte(nil), item.Key()...)
		var val []byte
		if err := item.Value(func(v []byte) error {
			val = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return herr.Storage(err)
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// KeyOnlyPrefixIter is like PrefixIter but skips fetching values, used
// for HNSW edges and other key-only entries whose existence is the only
// information carried.
func (t *RoTxn) KeyOnlyPrefixIter(prefix []byte, fn func(key []byte) error) error {
	it := t.txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: false})
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := append([]byte(nil), it.Item().Key()...)
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

// Reader is satisfied by both RoTxn and RwTxn, letting read-only
// operations (graph lookups, traversal steps, vector search) accept
// either transaction kind.
type Reader interface {
	Get(key []byte) ([]byte, bool, error)
	PrefixIter(prefix []byte, fn func(key, value []byte) error) error
	KeyOnlyPrefixIter(prefix []byte, fn func(key []byte) error) error
}

// Writer is satisfied only by RwTxn.
type Writer interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
}

// RwTxn is a read-write transaction. Several may be open against one Env
// at the same time; see BeginWrite for how conflicting commits fail.
type RwTxn struct {
	RoTxn
}

// Put writes key/value.
func (t *RwTxn) Put(key, value []byte) error {
	if err := t.txn.Set(key, value); err != nil {
		return herr.Storage(err)
	}
	return nil
}

// Delete removes key, a no-op if absent.
func (t *RwTxn) Delete(key []byte) error {
	if err := t.txn.Delete(key); err != nil {
		return herr.Storage(err)
	}
	return nil
}

// Commit applies all writes atomically. On error, the caller must treat
// the transaction as aborted; nothing is visible.
func (t *RwTxn) Commit() error {
	if err := t.txn.Commit(); err != nil {
		return herr.Storage(err)
	}
	return nil
}
