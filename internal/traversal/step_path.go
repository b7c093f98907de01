package traversal

import (
	"fmt"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
)

// ShortestPathTo is `shortest_path_to(to, label)`: from every node in the
// current NodeArray, the shortest path (over label) to to.
func (p *Pipeline) ShortestPathTo(label string, to codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: ShortestPathTo requires a NodeArray", herr.ErrTraversal))
	}
	paths := make([]*graph.Path, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		path, err := p.store.Graph().ShortestPath(p.txn, label, n.ID, to)
		if err != nil {
			return p.fail(err)
		}
		paths = append(paths, path)
	}
	p.value = pathsValue(paths)
	return p
}

// ShortestPathFrom is `shortest_path_from(from, label)`: from from, the
// shortest path (over label) to every node in the current NodeArray.
func (p *Pipeline) ShortestPathFrom(label string, from codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: ShortestPathFrom requires a NodeArray", herr.ErrTraversal))
	}
	paths := make([]*graph.Path, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		path, err := p.store.Graph().ShortestPath(p.txn, label, from, n.ID)
		if err != nil {
			return p.fail(err)
		}
		paths = append(paths, path)
	}
	p.value = pathsValue(paths)
	return p
}

// ShortestPathBetween is `shortest_path_between(from, to, label)`: a single
// explicit path, independent of the pipeline's current value.
func (p *Pipeline) ShortestPathBetween(label string, from, to codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	path, err := p.store.Graph().ShortestPath(p.txn, label, from, to)
	if err != nil {
		return p.fail(err)
	}
	p.value = pathsValue([]*graph.Path{path})
	return p
}

// mutualBackPointer mirrors internal/graph's unexported backPointer, but
// walks only mutual (reciprocal) edges, so it lives here rather than being
// exported from internal/graph.
type mutualBackPointer struct {
	prev    codec.ID
	edge    *graph.Edge
	hasPrev bool
}

// mutualNeighbors returns the out-edges from id over label whose
// destination also has a reciprocal in-edge back to id, i.e. the
// connections Mutual() would keep.
func (p *Pipeline) mutualNeighbors(label string, id codec.ID) ([]*graph.Edge, error) {
	out, err := p.store.Graph().OutEdges(p.txn, id, label)
	if err != nil {
		return nil, err
	}
	in, err := p.store.Graph().InEdges(p.txn, id, label)
	if err != nil {
		return nil, err
	}
	inSet := make(map[codec.ID]bool, len(in))
	for _, e := range in {
		inSet[e.From] = true
	}
	mutual := make([]*graph.Edge, 0, len(out))
	for _, e := range out {
		if inSet[e.To] {
			mutual = append(mutual, e)
		}
	}
	return mutual, nil
}

// shortestMutualPath runs the same BFS shape as graph.Store.ShortestPath,
// restricted to mutual edges at each step.
func (p *Pipeline) shortestMutualPath(label string, from, to codec.ID) (*graph.Path, error) {
	if from == to {
		n, err := p.store.Graph().GetNode(p.txn, from)
		if err != nil {
			return nil, err
		}
		return &graph.Path{Nodes: []*graph.Node{n}}, nil
	}

	visited := map[codec.ID]mutualBackPointer{from: {}}
	queue := []codec.ID{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		edges, err := p.mutualNeighbors(label, cur)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, seen := visited[e.To]; seen {
				continue
			}
			visited[e.To] = mutualBackPointer{prev: cur, edge: e, hasPrev: true}
			if e.To == to {
				return p.reconstructMutualPath(visited, to)
			}
			queue = append(queue, e.To)
		}
	}
	return nil, herr.ErrShortestPathNotFound
}

func (p *Pipeline) reconstructMutualPath(visited map[codec.ID]mutualBackPointer, to codec.ID) (*graph.Path, error) {
	var nodeIDs []codec.ID
	var edges []*graph.Edge
	cur := to
	for {
		nodeIDs = append(nodeIDs, cur)
		bp := visited[cur]
		if !bp.hasPrev {
			break
		}
		edges = append(edges, bp.edge)
		cur = bp.prev
	}
	for i, j := 0, len(nodeIDs)-1; i < j; i, j = i+1, j-1 {
		nodeIDs[i], nodeIDs[j] = nodeIDs[j], nodeIDs[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	nodes := make([]*graph.Node, len(nodeIDs))
	for i, id := range nodeIDs {
		n, err := p.store.Graph().GetNode(p.txn, id)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return &graph.Path{Nodes: nodes, Edges: edges}, nil
}

// ShortestMutualPathTo is the mutual-edge variant of ShortestPathTo.
func (p *Pipeline) ShortestMutualPathTo(label string, to codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: ShortestMutualPathTo requires a NodeArray", herr.ErrTraversal))
	}
	paths := make([]*graph.Path, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		path, err := p.shortestMutualPath(label, n.ID, to)
		if err != nil {
			return p.fail(err)
		}
		paths = append(paths, path)
	}
	p.value = pathsValue(paths)
	return p
}

// ShortestMutualPathFrom is the mutual-edge variant of ShortestPathFrom.
func (p *Pipeline) ShortestMutualPathFrom(label string, from codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.value.Kind != KindNodeArray {
		return p.fail(fmt.Errorf("%w: ShortestMutualPathFrom requires a NodeArray", herr.ErrTraversal))
	}
	paths := make([]*graph.Path, 0, len(p.value.Nodes))
	for _, n := range p.value.Nodes {
		path, err := p.shortestMutualPath(label, from, n.ID)
		if err != nil {
			return p.fail(err)
		}
		paths = append(paths, path)
	}
	p.value = pathsValue(paths)
	return p
}

// ShortestMutualPathBetween is the mutual-edge variant of
// ShortestPathBetween.
func (p *Pipeline) ShortestMutualPathBetween(label string, from, to codec.ID) *Pipeline {
	if p.err != nil {
		return p
	}
	path, err := p.shortestMutualPath(label, from, to)
	if err != nil {
		return p.fail(err)
	}
	p.value = pathsValue([]*graph.Path{path})
	return p
}
