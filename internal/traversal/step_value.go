package traversal

import (
	"fmt"
	"sort"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
)

// Count is the `count` step: the number of items in the current value,
// regardless of variant.
func (p *Pipeline) Count() *Pipeline {
	if p.err != nil {
		return p
	}
	var n int
	switch p.value.Kind {
	case KindNodeArray:
		n = len(p.value.Nodes)
	case KindEdgeArray:
		n = len(p.value.Edges)
	case KindVectorArray:
		n = len(p.value.Vectors)
	case KindValueArray:
		n = len(p.value.Values)
	case KindPaths:
		n = len(p.value.Paths)
	case KindEmpty:
		n = 0
	default:
		return p.fail(fmt.Errorf("%w: Count on unsupported variant", herr.ErrTraversal))
	}
	p.value = countValue(n)
	return p
}

// clampRange turns (start, end) into a half-open, bounds-clamped [lo, hi)
// over a collection of length n.
func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// Range is the `range(start, end)` step.
func (p *Pipeline) Range(start, end int) *Pipeline {
	if p.err != nil {
		return p
	}
	switch p.value.Kind {
	case KindNodeArray:
		lo, hi := clampRange(start, end, len(p.value.Nodes))
		p.value = nodeArray(p.value.Nodes[lo:hi])
	case KindEdgeArray:
		lo, hi := clampRange(start, end, len(p.value.Edges))
		p.value = edgeArray(p.value.Edges[lo:hi])
	case KindVectorArray:
		lo, hi := clampRange(start, end, len(p.value.Vectors))
		p.value = vectorArray(p.value.Vectors[lo:hi])
	case KindValueArray:
		lo, hi := clampRange(start, end, len(p.value.Values))
		p.value = valueArray(p.value.Values[lo:hi])
	case KindPaths:
		lo, hi := clampRange(start, end, len(p.value.Paths))
		p.value = pathsValue(p.value.Paths[lo:hi])
	default:
		return p.fail(fmt.Errorf("%w: Range on unsupported variant", herr.ErrTraversal))
	}
	return p
}

// Dedup is the `dedup` step, preserving first occurrence.
func (p *Pipeline) Dedup() *Pipeline {
	if p.err != nil {
		return p
	}
	switch p.value.Kind {
	case KindNodeArray:
		p.value = nodeArray(nodesByID(p.value.Nodes))
	case KindEdgeArray:
		seen := make(map[string]bool, len(p.value.Edges))
		out := make([]*graph.Edge, 0, len(p.value.Edges))
		for _, e := range p.value.Edges {
			k := e.ID.String()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
		p.value = edgeArray(out)
	case KindVectorArray:
		seen := make(map[string]bool, len(p.value.Vectors))
		out := make([]VectorHit, 0, len(p.value.Vectors))
		for _, v := range p.value.Vectors {
			k := v.ID.String()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
		p.value = vectorArray(out)
	default:
		return p.fail(fmt.Errorf("%w: Dedup on unsupported variant", herr.ErrTraversal))
	}
	return p
}

// compareValues orders two scalar codec.Values. Values of differing kinds
// compare by Kind only, which keeps OrderBy total without inventing a
// cross-type ordering  never defines.
func compareValues(a, b codec.Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case codec.KindString:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	case codec.KindI32:
		return int(a.I32) - int(b.I32)
	case codec.KindF64:
		switch {
		case a.F64 < b.F64:
			return -1
		case a.F64 > b.F64:
			return 1
		default:
			return 0
		}
	case codec.KindBool:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// OrderBy is the `order_by(field, asc|desc)` step over a NodeArray or
// EdgeArray, comparing each item's field property.
func (p *Pipeline) OrderBy(field string, asc bool) *Pipeline {
	if p.err != nil {
		return p
	}
	less := func(c int) bool {
		if asc {
			return c < 0
		}
		return c > 0
	}
	switch p.value.Kind {
	case KindNodeArray:
		nodes := p.value.Nodes
		sort.SliceStable(nodes, func(i, j int) bool {
			return less(compareValues(nodes[i].Properties[field], nodes[j].Properties[field]))
		})
		p.value = nodeArray(nodes)
	case KindEdgeArray:
		edges := p.value.Edges
		sort.SliceStable(edges, func(i, j int) bool {
			return less(compareValues(edges[i].Properties[field], edges[j].Properties[field]))
		})
		p.value = edgeArray(edges)
	default:
		return p.fail(fmt.Errorf("%w: OrderBy requires a NodeArray or EdgeArray", herr.ErrTraversal))
	}
	return p
}

// FilterNodes is the `filter_nodes(pred)` step.
func (p *Pipeline) FilterNodes(pred func(*graph.Node) bool) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: FilterNodes requires a NodeArray", herr.ErrTraversal))
	}
	out := make([]*graph.Node, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	p.value = nodeArray(out)
	return p
}

// FilterEdges is the `filter_edges(pred)` step.
func (p *Pipeline) FilterEdges(pred func(*graph.Edge) bool) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: FilterEdges requires an EdgeArray", herr.ErrTraversal))
	}
	out := make([]*graph.Edge, 0, len(p.value.Edges))
	for _, e := range p.value.Edges {
		if pred(e) {
			out = append(out, e)
		}
	}
	p.value = edgeArray(out)
	return p
}

// GetProperties is the `get_properties([keys])` step: projects each node or
// edge's named properties into an Object Value, flattened into a
// ValueArray (one Object per source item, in order).
func (p *Pipeline) GetProperties(keys []string) *Pipeline {
	if p.err != nil {
		return p
	}
	project := func(props map[string]codec.Value) codec.Value {
		obj := make(map[string]codec.Value, len(keys))
		for _, k := range keys {
			obj[k] = props[k]
		}
		return codec.Object(obj)
	}
	switch p.value.Kind {
	case KindNodeArray:
		out := make([]codec.Value, len(p.value.Nodes))
		for i, n := range p.value.Nodes {
			out[i] = project(n.Properties)
		}
		p.value = valueArray(out)
	case KindEdgeArray:
		out := make([]codec.Value, len(p.value.Edges))
		for i, e := range p.value.Edges {
			out[i] = project(e.Properties)
		}
		p.value = valueArray(out)
	default:
		return p.fail(fmt.Errorf("%w: GetProperties requires a NodeArray or EdgeArray", herr.ErrTraversal))
	}
	return p
}

// MapNodes is one instance of the `map_*` family: applies fn to every node
// in a NodeArray, producing a ValueArray.
func (p *Pipeline) MapNodes(fn func(*graph.Node) codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: MapNodes requires a NodeArray", herr.ErrTraversal))
	}
	out := make([]codec.Value, len(p.value.Nodes))
	for i, n := range p.value.Nodes {
		out[i] = fn(n)
	}
	p.value = valueArray(out)
	return p
}

// MapEdges is the `map_*` instance for EdgeArray.
func (p *Pipeline) MapEdges(fn func(*graph.Edge) codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: MapEdges requires an EdgeArray", herr.ErrTraversal))
	}
	out := make([]codec.Value, len(p.value.Edges))
	for i, e := range p.value.Edges {
		out[i] = fn(e)
	}
	p.value = valueArray(out)
	return p
}

// ForEachNodes is one instance of the `for_each_*` family: runs fn for its
// side effect (typically a write) over every node in a NodeArray, stopping
// and recording the first error. The value is left unchanged on success.
func (p *Pipeline) ForEachNodes(fn func(*graph.Node) error) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: ForEachNodes requires a NodeArray", herr.ErrTraversal))
	}
	for _, n := range p.value.Nodes {
		if err := fn(n); err != nil {
			return p.fail(err)
		}
	}
	return p
}

// ForEachEdges is the `for_each_*` instance for EdgeArray.
func (p *Pipeline) ForEachEdges(fn func(*graph.Edge) error) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: ForEachEdges requires an EdgeArray", herr.ErrTraversal))
	}
	for _, e := range p.value.Edges {
		if err := fn(e); err != nil {
			return p.fail(err)
		}
	}
	return p
}

// UpdateProps is the `update_props(props)` step: merges props into every
// node or edge in the current value.
func (p *Pipeline) UpdateProps(props map[string]codec.Value) *Pipeline {
	if p.err != nil {
		return p
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	switch p.value.Kind {
	case KindNodeArray:
		out := make([]*graph.Node, len(p.value.Nodes))
		for i, n := range p.value.Nodes {
			updated, err := p.store.Graph().UpdateNode(w, n.ID, props)
			if err != nil {
				return p.fail(err)
			}
			out[i] = updated
		}
		p.value = nodeArray(out)
	case KindEdgeArray:
		out := make([]*graph.Edge, len(p.value.Edges))
		for i, e := range p.value.Edges {
			updated, err := p.store.Graph().UpdateEdge(w, e.ID, props)
			if err != nil {
				return p.fail(err)
			}
			out[i] = updated
		}
		p.value = edgeArray(out)
	default:
		return p.fail(fmt.Errorf("%w: UpdateProps requires a NodeArray or EdgeArray", herr.ErrTraversal))
	}
	return p
}

// Drop is the `drop` step: deletes every node or edge in the current
// value. Dropping a node cascades through its adjacency and
// secondary-index entries (handled inside graph.Store.DropNode).
func (p *Pipeline) Drop() *Pipeline {
	if p.err != nil {
		return p
	}
	w, err := p.writer()
	if err != nil {
		return p.fail(err)
	}
	switch p.value.Kind {
	case KindNodeArray:
		for _, n := range p.value.Nodes {
			if err := p.store.Graph().DropNode(w, n.ID); err != nil {
				return p.fail(err)
			}
		}
	case KindEdgeArray:
		for _, e := range p.value.Edges {
			if err := p.store.Graph().DropEdge(w, e.ID); err != nil {
				return p.fail(err)
			}
		}
	default:
		return p.fail(fmt.Errorf("%w: Drop requires a NodeArray or EdgeArray", herr.ErrTraversal))
	}
	p.value = empty()
	return p
}
