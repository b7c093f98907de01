package graph

import (
	"errors"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

// Store is the graph storage core. It holds no state of its own beyond
// the indexed-field schema; all data lives in the shared kv.Env.
type Store struct {
	indexed map[string]map[string]bool // label -> field -> indexed
}

// New creates a graph Store. indices declares which (label, field) pairs
// are secondary-indexed, per the project's declared schema.
func New(indices []IndexSpec) *Store {
	s := &Store{indexed: make(map[string]map[string]bool)}
	for _, ix := range indices {
		m, ok := s.indexed[ix.Label]
		if !ok {
			m = make(map[string]bool)
			s.indexed[ix.Label] = m
		}
		for _, f := range ix.Fields {
			m[f] = true
		}
	}
	return s
}

// AddIndex registers a new secondary-indexed field at runtime, without
// reopening the store. Only nodes written after the call get entries for
// the field: nodes already stored are not indexed retroactively, and the
// Store has no call that removes an index.
func (s *Store) AddIndex(label, field string) {
	m, ok := s.indexed[label]
	if !ok {
		m = make(map[string]bool)
		s.indexed[label] = m
	}
	m[field] = true
}

func (s *Store) isIndexed(label, field string) bool {
	m, ok := s.indexed[label]
	return ok && m[field]
}

// AddNode generates an id, writes the node record, and maintains any
// declared secondary indices touched by props.
func (s *Store) AddNode(txn kv.Writer, label string, props map[string]codec.Value) (*Node, error) {
	id := codec.NewID()
	n := &Node{ID: id, Label: label, Properties: props}
	if err := txn.Put(codec.NodeKey(id), codec.EncodeNode(toRecord(n))); err != nil {
		return nil, err
	}
	if err := s.indexNode(txn, n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNode fetches a node by id, returning herr.ErrNodeNotFound when absent.
func (s *Store) GetNode(txn kv.Reader, id codec.ID) (*Node, error) {
	raw, ok, err := txn.Get(codec.NodeKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, herr.NodeNotFound(id.String())
	}
	rec, err := codec.DecodeNode(raw)
	if err != nil {
		return nil, err
	}
	return fromRecord(id, rec), nil
}

// UpdateNode merges props into the node's existing properties and
// atomically reindexes any secondary-indexed field that changed.
func (s *Store) UpdateNode(txn kv.Writer, id codec.ID, props map[string]codec.Value) (*Node, error) {
	existing, err := s.GetNode(txn, id)
	if err != nil {
		return nil, err
	}
	before := existing.Properties
	merged := make(map[string]codec.Value, len(before)+len(props))
	for k, v := range before {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}
	existing.Properties = merged
	if err := txn.Put(codec.NodeKey(id), codec.EncodeNode(toRecord(existing))); err != nil {
		return nil, err
	}
	if err := s.indexNode(txn, existing, before); err != nil {
		return nil, err
	}
	return existing, nil
}

// indexNode writes/updates secondary index entries for changed fields.
// before is nil on insert (nothing to remove).
func (s *Store) indexNode(txn kv.Writer, n *Node, before map[string]codec.Value) error {
	fields := s.indexed[n.Label]
	for field := range fields {
		newVal, hasNew := n.Properties[field]
		var oldVal codec.Value
		hasOld := false
		if before != nil {
			oldVal, hasOld = before[field]
		}
		if hasOld && (!hasNew || !valueEqual(oldVal, newVal)) {
			if err := txn.Delete(codec.SecondaryIndexKey(n.Label, field, codec.EncodeValue(oldVal), n.ID)); err != nil {
				return err
			}
		}
		if hasNew && (!hasOld || !valueEqual(oldVal, newVal)) {
			if err := txn.Put(codec.SecondaryIndexKey(n.Label, field, codec.EncodeValue(newVal), n.ID), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func valueEqual(a, b codec.Value) bool {
	return string(codec.EncodeValue(a)) == string(codec.EncodeValue(b))
}

// DropNode cascades: every incident edge (in either direction) is deleted
// in the same transaction before the node record itself.
func (s *Store) DropNode(txn kv.Writer, id codec.ID) error {
	n, err := s.GetNode(txn, id)
	if err != nil {
		return err
	}

	type incident struct {
		edgeID codec.ID
		other  codec.ID
	}
	var outgoing, incoming []incident

	if err := txn.PrefixIter(codec.OutAdjAllPrefix(id), func(key, val []byte) error {
		edgeID, other, ok := codec.DecodeAdjValue(val)
		if !ok {
			return herr.ErrDecode
		}
		outgoing = append(outgoing, incident{edgeID, other})
		return nil
	}); err != nil {
		return err
	}
	if err := txn.PrefixIter(codec.InAdjAllPrefix(id), func(key, val []byte) error {
		edgeID, other, ok := codec.DecodeAdjValue(val)
		if !ok {
			return herr.ErrDecode
		}
		incoming = append(incoming, incident{edgeID, other})
		return nil
	}); err != nil {
		return err
	}

	for _, inc := range outgoing {
		if err := s.dropEdgeByID(txn, inc.edgeID); err != nil && !errors.Is(err, herr.ErrEdgeNotFound) {
			return err
		}
	}
	for _, inc := range incoming {
		if err := s.dropEdgeByID(txn, inc.edgeID); err != nil && !errors.Is(err, herr.ErrEdgeNotFound) {
			return err
		}
	}

	for field, v := range n.Properties {
		if s.isIndexed(n.Label, field) {
			if err := txn.Delete(codec.SecondaryIndexKey(n.Label, field, codec.EncodeValue(v), id)); err != nil {
				return err
			}
		}
	}

	return txn.Delete(codec.NodeKey(id))
}

// AddEdge verifies both endpoints exist, then writes the edge record and
// both adjacency entries.
func (s *Store) AddEdge(txn kv.Writer, label string, from, to codec.ID, props map[string]codec.Value) (*Edge, error) {
	if _, err := s.GetNode(txn, from); err != nil {
		return nil, err
	}
	if _, err := s.GetNode(txn, to); err != nil {
		return nil, err
	}
	id := codec.NewID()
	e := &Edge{ID: id, Label: label, From: from, To: to, Properties: props}
	if err := txn.Put(codec.EdgeKey(id), codec.EncodeEdge(edgeToRecord(e))); err != nil {
		return nil, err
	}
	lh := codec.LabelHash(label)
	if err := txn.Put(codec.OutAdjKey(from, lh, id), codec.AdjValue(id, to)); err != nil {
		return nil, err
	}
	if err := txn.Put(codec.InAdjKey(to, lh, id), codec.AdjValue(id, from)); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEdge fetches an edge by id, returning herr.ErrEdgeNotFound if absent.
func (s *Store) GetEdge(txn kv.Reader, id codec.ID) (*Edge, error) {
	raw, ok, err := txn.Get(codec.EdgeKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, herr.EdgeNotFound(id.String())
	}
	rec, err := codec.DecodeEdge(raw)
	if err != nil {
		return nil, err
	}
	return edgeFromRecord(id, rec), nil
}

// UpdateEdge merges properties onto an existing edge.
func (s *Store) UpdateEdge(txn kv.Writer, id codec.ID, props map[string]codec.Value) (*Edge, error) {
	e, err := s.GetEdge(txn, id)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]codec.Value, len(e.Properties)+len(props))
	for k, v := range e.Properties {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}
	e.Properties = merged
	if err := txn.Put(codec.EdgeKey(id), codec.EncodeEdge(edgeToRecord(e))); err != nil {
		return nil, err
	}
	return e, nil
}

// DropEdge loads the edge, deletes its record, and both adjacency entries.
func (s *Store) DropEdge(txn kv.Writer, id codec.ID) error {
	return s.dropEdgeByID(txn, id)
}

func (s *Store) dropEdgeByID(txn kv.Writer, id codec.ID) error {
	e, err := s.GetEdge(txn, id)
	if err != nil {
		return err
	}
	lh := codec.LabelHash(e.Label)
	if err := txn.Delete(codec.OutAdjKey(e.From, lh, id)); err != nil {
		return err
	}
	if err := txn.Delete(codec.InAdjKey(e.To, lh, id)); err != nil {
		return err
	}
	return txn.Delete(codec.EdgeKey(id))
}

// OutNodes prefix-scans the out-adjacency of from under label (or every
// label when label == "").
func (s *Store) OutNodes(txn kv.Reader, from codec.ID, label string) ([]*Node, error) {
	edges, err := s.OutEdges(txn, from, label)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(edges))
	for _, e := range edges {
		n, err := s.GetNode(txn, e.To)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// InNodes is the symmetric counterpart of OutNodes.
func (s *Store) InNodes(txn kv.Reader, to codec.ID, label string) ([]*Node, error) {
	edges, err := s.InEdges(txn, to, label)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(edges))
	for _, e := range edges {
		n, err := s.GetNode(txn, e.From)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// OutEdges prefix-scans out-adjacency and loads each edge record.
func (s *Store) OutEdges(txn kv.Reader, from codec.ID, label string) ([]*Edge, error) {
	var prefix []byte
	if label == "" {
		prefix = codec.OutAdjAllPrefix(from)
	} else {
		prefix = codec.OutAdjPrefix(from, codec.LabelHash(label))
	}
	var edges []*Edge
	err := txn.PrefixIter(prefix, func(key, val []byte) error {
		edgeID, _, ok := codec.DecodeAdjValue(val)
		if !ok {
			return nil
		}
		e, err := s.GetEdge(txn, edgeID)
		if err != nil {
			return nil
		}
		edges = append(edges, e)
		return nil
	})
	return edges, err
}

// InEdges is the symmetric counterpart of OutEdges.
func (s *Store) InEdges(txn kv.Reader, to codec.ID, label string) ([]*Edge, error) {
	var prefix []byte
	if label == "" {
		prefix = codec.InAdjAllPrefix(to)
	} else {
		prefix = codec.InAdjPrefix(to, codec.LabelHash(label))
	}
	var edges []*Edge
	err := txn.PrefixIter(prefix, func(key, val []byte) error {
		edgeID, _, ok := codec.DecodeAdjValue(val)
		if !ok {
			return nil
		}
		e, err := s.GetEdge(txn, edgeID)
		if err != nil {
			return nil
		}
		edges = append(edges, e)
		return nil
	})
	return edges, err
}

// GetEdgesBetween returns every edge (any label) connecting from to to.
func (s *Store) GetEdgesBetween(txn kv.Reader, from, to codec.ID) ([]*Edge, error) {
	all, err := s.OutEdges(txn, from, "")
	if err != nil {
		return nil, err
	}
	var out []*Edge
	for _, e := range all {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetNodeBySecondaryIndex looks up node(s) by an indexed field's value.
func (s *Store) GetNodeBySecondaryIndex(txn kv.Reader, label, field string, value codec.Value) ([]*Node, error) {
	prefix := codec.SecondaryIndexKey(label, field, codec.EncodeValue(value), codec.ID{})
	// Drop the trailing zero node-id suffix to get a true value prefix.
	prefix = prefix[:len(prefix)-16]
	var nodes []*Node
	err := txn.PrefixIter(prefix, func(key, _ []byte) error {
		if len(key) < 16 {
			return nil
		}
		var id codec.ID
		copy(id[:], key[len(key)-16:])
		n, err := s.GetNode(txn, id)
		if err != nil {
			return nil
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

// GetAllNodes iterates every node in key (id) order.
func (s *Store) GetAllNodes(txn kv.Reader) ([]*Node, error) {
	var nodes []*Node
	err := txn.PrefixIter([]byte{codec.PrefixNode}, func(key, val []byte) error {
		var id codec.ID
		copy(id[:], key[1:])
		rec, err := codec.DecodeNode(val)
		if err != nil {
			return err
		}
		nodes = append(nodes, fromRecord(id, rec))
		return nil
	})
	return nodes, err
}

// GetAllEdges iterates every edge in key (id) order.
func (s *Store) GetAllEdges(txn kv.Reader) ([]*Edge, error) {
	var edges []*Edge
	err := txn.PrefixIter([]byte{codec.PrefixEdge}, func(key, val []byte) error {
		var id codec.ID
		copy(id[:], key[1:])
		rec, err := codec.DecodeEdge(val)
		if err != nil {
			return err
		}
		edges = append(edges, edgeFromRecord(id, rec))
		return nil
	})
	return edges, err
}
