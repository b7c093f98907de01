package traversal

import (
	"fmt"

	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
)

// nodesByID dedups a node slice by id, preserving first-seen order. Used by
// Both/Mutual, which otherwise double up nodes reachable via two edges.
func nodesByID(in []*graph.Node) []*graph.Node {
	seen := make(map[string]bool, len(in))
	out := make([]*graph.Node, 0, len(in))
	for _, n := range in {
		k := n.ID.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// Out is the `out(label)` step: from a NodeArray, step to every node
// reachable by an outgoing edge of label.
func (p *Pipeline) Out(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: Out requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Node
	for _, n := range p.value.Nodes {
		next, err := p.store.Graph().OutNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, next...)
	}
	p.value = nodeArray(out)
	return p
}

// OutE is the `out_e(label)` step: from a NodeArray, collect outgoing edges.
func (p *Pipeline) OutE(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: OutE requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Edge
	for _, n := range p.value.Nodes {
		next, err := p.store.Graph().OutEdges(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, next...)
	}
	p.value = edgeArray(out)
	return p
}

// In_ is the `in_(label)` step (named with a trailing underscore since `in`
// is a Go keyword): from a NodeArray, step to nodes reachable by an
// incoming edge of label.
func (p *Pipeline) In_(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: In_ requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Node
	for _, n := range p.value.Nodes {
		next, err := p.store.Graph().InNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, next...)
	}
	p.value = nodeArray(out)
	return p
}

// InE is the `in_e(label)` step: from a NodeArray, collect incoming edges.
func (p *Pipeline) InE(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: InE requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Edge
	for _, n := range p.value.Nodes {
		next, err := p.store.Graph().InEdges(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, next...)
	}
	p.value = edgeArray(out)
	return p
}

// OutV is the `out_v` step: from an EdgeArray, resolve each edge's source
// node.
func (p *Pipeline) OutV() *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: OutV requires an EdgeArray", herr.ErrTraversal))
	}
	out := make([]*graph.Node, 0, len(p.value.Edges))
	for _, e := range p.value.Edges {
		n, err := p.store.Graph().GetNode(p.txn, e.From)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, n)
	}
	p.value = nodeArray(out)
	return p
}

// InV is the `in_v` step: from an EdgeArray, resolve each edge's
// destination node.
func (p *Pipeline) InV() *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: InV requires an EdgeArray", herr.ErrTraversal))
	}
	out := make([]*graph.Node, 0, len(p.value.Edges))
	for _, e := range p.value.Edges {
		n, err := p.store.Graph().GetNode(p.txn, e.To)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, n)
	}
	p.value = nodeArray(out)
	return p
}

// Both is the `both(label)` step: nodes reachable by either direction,
// deduplicated.
func (p *Pipeline) Both(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: Both requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Node
	for _, n := range p.value.Nodes {
		o, err := p.store.Graph().OutNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		i, err := p.store.Graph().InNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, o...)
		out = append(out, i...)
	}
	p.value = nodeArray(nodesByID(out))
	return p
}

// BothE is the `both_e(label)` step: edges in either direction.
func (p *Pipeline) BothE(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: BothE requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Edge
	for _, n := range p.value.Nodes {
		o, err := p.store.Graph().OutEdges(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		i, err := p.store.Graph().InEdges(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, o...)
		out = append(out, i...)
	}
	p.value = edgeArray(out)
	return p
}

// BothV is the `both_v` step: from an EdgeArray, resolve both endpoints of
// every edge, deduplicated.
func (p *Pipeline) BothV() *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindEdgeArray {
		return p.fail(fmt.Errorf("%w: BothV requires an EdgeArray", herr.ErrTraversal))
	}
	out := make([]*graph.Node, 0, len(p.value.Edges)*2)
	for _, e := range p.value.Edges {
		from, err := p.store.Graph().GetNode(p.txn, e.From)
		if err != nil {
			return p.fail(err)
		}
		to, err := p.store.Graph().GetNode(p.txn, e.To)
		if err != nil {
			return p.fail(err)
		}
		out = append(out, from, to)
	}
	p.value = nodeArray(nodesByID(out))
	return p
}

// Mutual is the `mutual(label)` step: nodes that are both an out-neighbor
// and an in-neighbor of every current node over label (mutual/reciprocal
// connections).
func (p *Pipeline) Mutual(label string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: Mutual requires a NodeArray", herr.ErrTraversal))
	}
	var out []*graph.Node
	for _, n := range p.value.Nodes {
		o, err := p.store.Graph().OutNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		i, err := p.store.Graph().InNodes(p.txn, n.ID, label)
		if err != nil {
			return p.fail(err)
		}
		inSet := make(map[string]bool, len(i))
		for _, x := range i {
			inSet[x.ID.String()] = true
		}
		for _, x := range o {
			if inSet[x.ID.String()] {
				out = append(out, x)
			}
		}
	}
	p.value = nodeArray(nodesByID(out))
	return p
}
