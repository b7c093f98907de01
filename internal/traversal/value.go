// Package traversal implements a lazy operator pipeline over a tagged
// Value sum: step-by-step traversal execution, out/in/both iteration, and
// remap/projection handling, all expressed against the narrow Store
// interface (pipeline.go), which hands out the graph store and one vector
// index per label, so the same operator chain runs over any of this
// module's transaction kinds. BM25 is not part of Store; hybrid text and
// vector search is assembled in pkg/helixdb.
package traversal

import (
	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
)

// Kind tags the variant carried by a Value: Empty, NodeArray, EdgeArray,
// VectorArray, Count, ValueArray, or Paths.
type Kind int

const (
	KindEmpty Kind = iota
	KindNodeArray
	KindEdgeArray
	KindVectorArray
	KindCount
	KindValueArray
	KindPaths
)

// VectorHit is one scored vector hit threaded through a VectorArray step.
type VectorHit struct {
	ID   codec.ID
	Dist float64
}

// Value is one step's output, carried to the next operator in the chain.
type Value struct {
	Kind    Kind
	Nodes   []*graph.Node
	Edges   []*graph.Edge
	Vectors []VectorHit
	Count   int
	Values  []codec.Value
	Paths   []*graph.Path
}

func empty() Value                      { return Value{Kind: KindEmpty} }
func nodeArray(n []*graph.Node) Value   { return Value{Kind: KindNodeArray, Nodes: n} }
func edgeArray(e []*graph.Edge) Value   { return Value{Kind: KindEdgeArray, Edges: e} }
func vectorArray(v []VectorHit) Value   { return Value{Kind: KindVectorArray, Vectors: v} }
func countValue(c int) Value            { return Value{Kind: KindCount, Count: c} }
func valueArray(v []codec.Value) Value  { return Value{Kind: KindValueArray, Values: v} }
func pathsValue(p []*graph.Path) Value  { return Value{Kind: KindPaths, Paths: p} }
