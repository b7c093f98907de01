package traversal

import (
	"fmt"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/vector"
)

// Store is the narrow surface a Pipeline needs from the rest of the
// engine: the graph core plus one HNSW index per vector label. Hybrid
// BM25+vector fusion is assembled one layer up (pkg/helixdb), since
// operator list never names a bm25 source.
type Store interface {
	Graph() *graph.Store
	VectorIndex(label string) (*vector.Index, bool)
}

// Pipeline is a lazy traversal over one transaction: a step chain that
// only reads or writes as each method runs. Each step method returns the
// same Pipeline so calls chain; a step that fails sets the first-error
// slot and degrades the current value to Empty instead of panicking.
type Pipeline struct {
	txn   kv.Reader
	store Store
	value Value
	err   error
}

// New starts a pipeline bound to txn and store with an Empty value.
func New(txn kv.Reader, store Store) *Pipeline {
	return &Pipeline{txn: txn, store: store, value: empty()}
}

// NewWithValue starts a pipeline already holding v, letting a caller (the
// HQL code generator) resume stepping from a previously bound variable
// instead of re-running its source.
func NewWithValue(txn kv.Reader, store Store, v Value) *Pipeline {
	return &Pipeline{txn: txn, store: store, value: v}
}

// Value returns the pipeline's current value without consuming its error
// slot, for callers (codegen) that snapshot intermediate results into
// variables before the chain terminates.
func (p *Pipeline) Value() Value { return p.value }

// Err returns the pipeline's first recorded error, if any.
func (p *Pipeline) Err() error { return p.err }

// fail records the first error (subsequent failures are ignored) and
// degrades the value to Empty.
func (p *Pipeline) fail(err error) *Pipeline {
	if p.err == nil {
		p.err = err
	}
	p.value = empty()
	return p
}

// Fail lets a caller outside this package (the HQL code generator,
// resolving a step's arguments before it can call the matching Pipeline
// method) record a failure through the same first-error slot.
func (p *Pipeline) Fail(err error) *Pipeline {
	return p.fail(err)
}

func (p *Pipeline) writer() (kv.Writer, error) {
	w, ok := p.txn.(kv.Writer)
	if !ok {
		return nil, fmt.Errorf("%w: mutating step requires a read-write transaction", herr.ErrTraversal)
	}
	return w, nil
}

// Result returns the current value and the first error encountered.
func (p *Pipeline) Result() (Value, error) {
	return p.value, p.err
}

// Finish is Result without the value, for mutation-only chains.
func (p *Pipeline) Finish() error {
	return p.err
}

// --- Sources ---

// V is the `v()` source: every node in the graph.
func (p *Pipeline) V() *Pipeline {
	if p.err != nil {
		return p
	}
	nodes, err := p.store.Graph().GetAllNodes(p.txn)
	if err != nil {
		return p.fail(err)
	}
	p.value = nodeArray(nodes)
	return p
}

// E is the `e()` source: every edge in the graph.
func (p *Pipeline) E() *Pipeline {
	if p.err != nil {
		return p
	}
	edges, err := p.store.Graph().GetAllEdges(p.txn)
	if err != nil {
		return p.fail(err)
	}
	p.value = edgeArray(edges)
	return p
}

// VFromID is `v_from_id(id)`.
func (p *Pipeline) VFromID(id codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	n, err := p.store.Graph().GetNode(p.txn, id)
	if err != nil {
		return p.fail(err)
	}
	p.value = nodeArray([]*graph.Node{n})
	return p
}

// VFromIDs is `v_from_ids(ids[])`.
func (p *Pipeline) VFromIDs(ids []codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	nodes := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		n, err := p.store.Graph().GetNode(p.txn, id)
		if err != nil {
			return p.fail(err)
		}
		nodes = append(nodes, n)
	}
	p.value = nodeArray(nodes)
	return p
}

// EFromID is `e_from_id(id)`.
func (p *Pipeline) EFromID(id codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	e, err := p.store.Graph().GetEdge(p.txn, id)
	if err != nil {
		return p.fail(err)
	}
	p.value = edgeArray([]*graph.Edge{e})
	return p
}

// VFromTypes is `v_from_types(labels[])`: every node whose label is in
// the given set. The graph core has no label index, so this scans all
// nodes — acceptable for an embedded engine's ad hoc queries; callers
// wanting an indexed lookup use VFromSecondaryIndex instead.
func (p *Pipeline) VFromTypes(labels []string) *Pipeline {
	if p.err != nil {
		return p
	}
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	all, err := p.store.Graph().GetAllNodes(p.txn)
	if err != nil {
		return p.fail(err)
	}
	out := make([]*graph.Node, 0, len(all))
	for _, n := range all {
		if want[n.Label] {
			out = append(out, n)
		}
	}
	p.value = nodeArray(out)
	return p
}

// VFromSecondaryIndex is `v_from_secondary_index(index, value)`.
func (p *Pipeline) VFromSecondaryIndex(label, field string, value codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	nodes, err := p.store.Graph().GetNodeBySecondaryIndex(p.txn, label, field, value)
	if err != nil {
		return p.fail(err)
	}
	p.value = nodeArray(nodes)
	return p
}

// AddV is the `add_v` source.
func (p *Pipeline) AddV(label string, props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	n, err := p.store.Graph().AddNode(w, label, props)
	if err != nil {
		return p.fail(err)
	}
	p.value = nodeArray([]*graph.Node{n})
	return p
}

// AddE is the `add_e` source: adds one edge between two explicit ids.
func (p *Pipeline) AddE(label string, from, to codec.ID, props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	e, err := p.store.Graph().AddEdge(w, label, from, to, props)
	if err != nil {
		return p.fail(err)
	}
	p.value = edgeArray([]*graph.Edge{e})
	return p
}

// AddEFrom is `add_e_from(edge_label, from_id, props)`: connects fromID to
// every node in the current NodeArray.
func (p *Pipeline) AddEFrom(label string, from codec.ID, props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: AddEFrom requires a NodeArray", herr.ErrTraversal))
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	edges := make([]*graph.Edge, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		e, err := p.store.Graph().AddEdge(w, label, from, n.ID, props)
		if err != nil {
			return p.fail(err)
		}
		edges = append(edges, e)
	}
	p.value = edgeArray(edges)
	return p
}

// AddETo is `add_e_to(edge_label, to_id, props)`: connects every node in
// the current NodeArray to to.
func (p *Pipeline) AddETo(label string, to codec.ID, props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: AddETo requires a NodeArray", herr.ErrTraversal))
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	edges := make([]*graph.Edge, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		e, err := p.store.Graph().AddEdge(w, label, n.ID, to, props)
		if err != nil {
			return p.fail(err)
		}
		edges = append(edges, e)
	}
	p.value = edgeArray(edges)
	return p
}

// SearchV is `search_v(query, k, pre_filter?)`.
func (p *Pipeline) SearchV(label string, query []float32, k int, preFilter func(codec.ID) bool) *Pipeline {
	if p.err != nil {
		return p
	}
	idx, ok := p.store.VectorIndex(label)
	if !ok {
		return p.fail(fmt.Errorf("%w: no vector index for label %s", herr.ErrLabelNotFound, label))
	}
	results, err := idx.Search(p.txn, query, k, preFilter)
	if err != nil {
		return p.fail(err)
	}
	hits := make([]VectorHit, len(results))
	for i, r := range results {
		hits[i] = VectorHit{ID: r.ID, Dist: r.Dist}
	}
	p.value = vectorArray(hits)
	return p
}

// InsertV is `insert_v`: creates a node of label carrying props, then
// inserts vec into that label's HNSW index under the new node's id.
func (p *Pipeline) InsertV(label string, vec []float32, props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	idx, ok := p.store.VectorIndex(label)
	if !ok {
		return p.fail(fmt.Errorf("%w: no vector index for label %s", herr.ErrLabelNotFound, label))
	}
	n, err := p.store.Graph().AddNode(w, label, props)
	if err != nil {
		return p.fail(err)
	}
	if err := idx.Insert(w, n.ID, vec); err != nil {
		return p.fail(err)
	}
	p.value = nodeArray([]*graph.Node{n})
	return p
}
