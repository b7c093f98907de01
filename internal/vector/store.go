package vector

import (
	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

func getVectorAt(txn kv.Reader, id codec.ID, level int) (codec.HVector, bool, error) {
	raw, ok, err := txn.Get(codec.VectorKey(id, level))
	if err != nil {
		return codec.HVector{}, false, err
	}
	if !ok {
		return codec.HVector{}, false, nil
	}
	v, err := codec.DecodeVector(raw)
	if err != nil {
		return codec.HVector{}, false, err
	}
	return v, true, nil
}

func putVectorAt(txn kv.Writer, id codec.ID, level int, v codec.HVector) error {
	return txn.Put(codec.VectorKey(id, level), codec.EncodeVector(v))
}

// vectorData fetches the canonical data for id, always stored at level 0.
func vectorData(txn kv.Reader, id codec.ID) ([]float32, bool, error) {
	v, ok, err := getVectorAt(txn, id, 0)
	if err != nil || !ok {
		return nil, ok, err
	}
	return v.Data, true, nil
}

func isDeleted(txn kv.Reader, id codec.ID) (bool, error) {
	v, ok, err := getVectorAt(txn, id, 0)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return v.Deleted, nil
}

func addHNSWEdge(txn kv.Writer, src codec.ID, level int, dst codec.ID) error {
	return txn.Put(codec.HNSWEdgeKey(src, level, dst), []byte{})
}

func removeHNSWEdge(txn kv.Writer, src codec.ID, level int, dst codec.ID) error {
	return txn.Delete(codec.HNSWEdgeKey(src, level, dst))
}

// neighborsAt lists every neighbor of id at level. Each HNSW edge is a
// key-only entry, so adjacency lookup is a prefix scan over the edge
// keyspace rather than a value read.
func neighborsAt(txn kv.Reader, id codec.ID, level int) ([]codec.ID, error) {
	prefix := codec.HNSWEdgePrefix(id, level)
	var out []codec.ID
	err := txn.KeyOnlyPrefixIter(prefix, func(key []byte) error {
		if len(key) < len(prefix)+16 {
			return herr.ErrDecode
		}
		var dst codec.ID
		copy(dst[:], key[len(key)-16:])
		out = append(out, dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getEntryPoint(txn kv.Reader) (codec.EntryPoint, bool, error) {
	raw, ok, err := txn.Get(codec.HNSWEntryKey())
	if err != nil {
		return codec.EntryPoint{}, false, err
	}
	if !ok {
		return codec.EntryPoint{}, false, nil
	}
	ep, err := codec.DecodeEntryPoint(raw)
	if err != nil {
		return codec.EntryPoint{}, false, err
	}
	return ep, true, nil
}

func setEntryPoint(txn kv.Writer, ep codec.EntryPoint) error {
	return txn.Put(codec.HNSWEntryKey(), codec.EncodeEntryPoint(ep))
}
