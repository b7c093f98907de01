package graph

import (
	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

// Path is the reconstructed result of ShortestPath.
type Path struct {
	Nodes []*Node
	Edges []*Edge
}

type backPointer struct {
	prev   codec.ID
	edge   *Edge
	hasPrev bool
}

// ShortestPath runs a breadth-first search over outgoing edges restricted
// to label (or every label when label == ""), reconstructing the path in
// reverse via back-pointers once `to` is reached. Neighbor tie-breaking
// follows insertion (key) order.
func (s *Store) ShortestPath(txn kv.Reader, label string, from, to codec.ID) (*Path, error) {
	if from == to {
		n, err := s.GetNode(txn, from)
		if err != nil {
			return nil, err
		}
		return &Path{Nodes: []*Node{n}}, nil
	}

	visited := map[codec.ID]backPointer{from: {}}
	queue := []codec.ID{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		edges, err := s.OutEdges(txn, cur, label)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, seen := visited[e.To]; seen {
				continue
			}
			visited[e.To] = backPointer{prev: cur, edge: e, hasPrev: true}
			if e.To == to {
				return s.reconstructPath(txn, visited, to)
			}
			queue = append(queue, e.To)
		}
	}

	return nil, herr.ErrShortestPathNotFound
}

func (s *Store) reconstructPath(txn kv.Reader, visited map[codec.ID]backPointer, to codec.ID) (*Path, error) {
	var nodeIDs []codec.ID
	var edges []*Edge

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

	// Reverse both slices (built backwards from `to`).
	for i, j := 0, len(nodeIDs)-1; i < j; i, j = i+1, j-1 {
		nodeIDs[i], nodeIDs[j] = nodeIDs[j], nodeIDs[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	nodes := make([]*Node, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n, err := s.GetNode(txn, id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return &Path{Nodes: nodes, Edges: edges}, nil
}
