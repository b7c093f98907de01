package graph

import (
	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/kv"
)

// EdgeSpec is one edge in a BulkAddEdges batch.
type EdgeSpec struct {
	Label      string
	From       codec.ID
	To         codec.ID
	Properties map[string]codec.Value
}

// BulkAddEdges writes a batch of edges without the existence check AddEdge
// performs on each endpoint: the caller is trusted to supply edges whose
// endpoints already exist (as is the case when ingesting node records
// before the edges that reference them), so the per-edge round trip of
// reading both nodes back is skipped.
// Edges are still written one at a time against the same kv.Writer, since
// internal/kv has no bulk/ordered-append primitive of its own to target.
func (s *Store) BulkAddEdges(txn kv.Writer, specs []EdgeSpec) ([]*Edge, error) {
	out := make([]*Edge, 0, len(specs))
	for _, spec := range specs {
		id := codec.NewID()
		e := &Edge{ID: id, Label: spec.Label, From: spec.From, To: spec.To, Properties: spec.Properties}
		if err := txn.Put(codec.EdgeKey(id), codec.EncodeEdge(edgeToRecord(e))); err != nil {
			return nil, err
		}
		lh := codec.LabelHash(spec.Label)
		if err := txn.Put(codec.OutAdjKey(spec.From, lh, id), codec.AdjValue(id, spec.To)); err != nil {
			return nil, err
		}
		if err := txn.Put(codec.InAdjKey(spec.To, lh, id), codec.AdjValue(id, spec.From)); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
