// Package graph implements the transactional graph storage core: nodes,
// edges, adjacency indices, secondary property indices, CRUD, and
// shortest-path, following a CRUD + adjacency-maintenance pattern with
// BFS/back-pointer path reconstruction.
package graph

import (
	"github.com/helixdb/helix/internal/codec"
)

// Node is a graph vertex: a label plus its property bag.
type Node struct {
	ID         codec.ID
	Label      string
	Properties map[string]codec.Value
}

// Edge is a directed, labeled relationship between two nodes.
type Edge struct {
	ID         codec.ID
	Label      string
	From       codec.ID
	To         codec.ID
	Properties map[string]codec.Value
}

// IndexSpec declares which fields of a label are secondary-indexed, so
// lookups by that field's value stay consistent with node CRUD.
type IndexSpec struct {
	Label  string
	Fields []string
}

func toRecord(n *Node) codec.NodeRecord {
	return codec.NodeRecord{Label: n.Label, Properties: n.Properties}
}

func fromRecord(id codec.ID, r codec.NodeRecord) *Node {
	return &Node{ID: id, Label: r.Label, Properties: r.Properties}
}

func edgeToRecord(e *Edge) codec.EdgeRecord {
	return codec.EdgeRecord{Label: e.Label, From: e.From, To: e.To, Properties: e.Properties}
}

func edgeFromRecord(id codec.ID, r codec.EdgeRecord) *Edge {
	return &Edge{ID: id, Label: r.Label, From: r.From, To: r.To, Properties: r.Properties}
}
