// Package ingest streams a JSONL bulk-load payload into a graph.Store
// (and, for vector-labeled nodes, the matching vector.Index), reading one
// record per line in this project's own payload format.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/traversal"
	"github.com/helixdb/helix/pkg/convert"
)

// record is the on-the-wire shape of a single JSONL line.
type record struct {
	PayloadType string         `json:"payload_type"`
	Label       string         `json:"label"`
	Properties  map[string]any `json:"properties"`
	ID          *string        `json:"id,omitempty"`
	From        *int           `json:"from,omitempty"`
	To          *int           `json:"to,omitempty"`
}

// Stats summarizes one Stream call.
type Stats struct {
	NodesCreated int
	EdgesCreated int
}

// vectorField is the reserved properties key carrying a node's embedding
// as an array of floats: present only on nodes whose label has a
// registered vector.Index, it is popped out of the stored properties and
// handed to the index instead of being kept as a plain property.
const vectorField = "vector"

// Ingester tracks the ordinal->id mapping a streamed batch needs to resolve
// edge records' "from"/"to": these are ints, not the node's own optional
// "id" string, so they are read as 0-based positions among the node
// records seen so far in the same stream, not as a lookup by that string
// id -- the string id is carried through only as an ordinary property for
// the caller's own cross-referencing.
type Ingester struct {
	store    traversal.Store
	ordinals []codec.ID
}

// New creates an Ingester over store. A single Ingester must not be reused
// across independent Stream calls whose "from"/"to" ordinals are meant to
// be scoped to their own batch; construct a fresh one per logical import.
func New(store traversal.Store) *Ingester {
	return &Ingester{store: store}
}

// Stream reads JSONL records from r, one per line, applying each to store
// under txn. Node records are applied (and their generated id appended to
// the ordinal table) before any edge record that might reference them is
// read, so edges must follow the nodes they connect in the stream: load
// nodes first, then relationships.
func (in *Ingester) Stream(txn kv.Writer, r io.Reader) (Stats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var stats Stats
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return stats, herr.Decode(err)
		}
		switch rec.PayloadType {
		case "node":
			if err := in.applyNode(txn, rec); err != nil {
				return stats, err
			}
			stats.NodesCreated++
		case "edge":
			if err := in.applyEdge(txn, rec); err != nil {
				return stats, err
			}
			stats.EdgesCreated++
		default:
			return stats, fmt.Errorf("%w: unknown payload_type %q", herr.ErrInvalidData, rec.PayloadType)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, herr.Storage(err)
	}
	return stats, nil
}

func (in *Ingester) applyNode(txn kv.Writer, rec record) error {
	props := propsFromAny(rec.Properties)
	if rec.ID != nil {
		props["id"] = codec.String(*rec.ID)
	}

	idx, hasVector := in.store.VectorIndex(rec.Label)
	var vec []float32
	if hasVector {
		if raw, ok := props[vectorField]; ok {
			v, err := toVector(raw)
			if err != nil {
				return err
			}
			vec = v
			delete(props, vectorField)
		}
	}

	n, err := in.store.Graph().AddNode(txn, rec.Label, props)
	if err != nil {
		return err
	}
	if hasVector && vec != nil {
		if err := idx.Insert(txn, n.ID, vec); err != nil {
			return err
		}
	}
	in.ordinals = append(in.ordinals, n.ID)
	return nil
}

func (in *Ingester) applyEdge(txn kv.Writer, rec record) error {
	if rec.From == nil || rec.To == nil {
		return fmt.Errorf("%w: edge record missing from/to", herr.ErrInvalidData)
	}
	from, err := in.resolveOrdinal(*rec.From)
	if err != nil {
		return err
	}
	to, err := in.resolveOrdinal(*rec.To)
	if err != nil {
		return err
	}
	props := propsFromAny(rec.Properties)
	_, err = in.store.Graph().AddEdge(txn, rec.Label, from, to, props)
	return err
}

func (in *Ingester) resolveOrdinal(i int) (codec.ID, error) {
	if i < 0 || i >= len(in.ordinals) {
		return codec.ID{}, fmt.Errorf("%w: edge references node ordinal %d out of range", herr.ErrNodeNotFound, i)
	}
	return in.ordinals[i], nil
}

func propsFromAny(m map[string]any) map[string]codec.Value {
	out := make(map[string]codec.Value, len(m))
	for k, v := range m {
		out[k] = codec.FromAny(v)
	}
	return out
}

func toVector(v codec.Value) ([]float32, error) {
	if v.Kind != codec.KindArray {
		return nil, fmt.Errorf("%w: vector field is not an array", herr.ErrInvalidData)
	}
	out := convert.ToFloat32Slice(v.ToAny())
	if out == nil && len(v.Array) > 0 {
		return nil, fmt.Errorf("%w: vector element is not numeric", herr.ErrInvalidData)
	}
	return out, nil
}

// BulkEdges applies a pre-built batch of edges via graph.Store.BulkAddEdges,
// an append-mode insert path for callers that already hold resolved
// endpoint ids (e.g. a second ingestion pass over an edges-only file
// against nodes loaded in an earlier Stream call) and want to skip the
// per-edge existence check.
func (in *Ingester) BulkEdges(txn kv.Writer, specs []graph.EdgeSpec) (int, error) {
	edges, err := in.store.Graph().BulkAddEdges(txn, specs)
	if err != nil {
		return 0, err
	}
	return len(edges), nil
}
