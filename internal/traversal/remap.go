package traversal

import (
	"fmt"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
)

// RemapItem is the per-source-item context a RemapField closure runs
// against: exactly one of Node/Edge is set, matching the current value's
// variant.
type RemapItem struct {
	Node *graph.Node
	Edge *graph.Edge
}

// RemapField computes one field of a remapped object for one source item.
// This single closure type covers all three `value|traversal|closure`
// cases: a constant returns the same codec.Value every call, a closure
// inspects item.Node/item.Edge, and a traversal starts a fresh
// sub-Pipeline from p and folds its Result through ToCodecValue.
type RemapField func(p *Pipeline, item RemapItem) (codec.Value, error)

// ConstField lifts a constant into a RemapField, for remap_to's `value`
// case.
func ConstField(v codec.Value) RemapField {
	return func(_ *Pipeline, _ RemapItem) (codec.Value, error) { return v, nil }
}

// RemapSpec is `remap_to`'s object-shape argument.
type RemapSpec struct {
	Fields  map[string]RemapField
	Spread  bool
	Exclude []string
}

func excludeSet(fields []string) map[string]bool {
	s := make(map[string]bool, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

// RemapTo is the `remap_to(...)` step: rewrites each item in a NodeArray
// or EdgeArray into an Object Value built from spec, producing a
// ValueArray. Field evaluation order is unspecified field-to-field but
// spread is always applied before named fields, so named fields win over
// a spread property of the same name.
func (p *Pipeline) RemapTo(spec RemapSpec) *Pipeline {
	if p.err != nil {
		return p
	}
	excl := excludeSet(spec.Exclude)

	build := func(item RemapItem, props map[string]codec.Value) (codec.Value, error) {
		obj := make(map[string]codec.Value)
		if spec.Spread {
			for k, v := range props {
				if !excl[k] {
					obj[k] = v
				}
			}
		}
		for name, field := range spec.Fields {
			if excl[name] {
				continue
			}
			v, err := field(p, item)
			if err != nil {
				return codec.Value{}, err
			}
			obj[name] = v
		}
		return codec.Object(obj), nil
	}

	switch p.value.Kind {
	case KindNodeArray:
		out := make([]codec.Value, len(p.value.Nodes))
		for i, n := range p.value.Nodes {
			v, err := build(RemapItem{Node: n}, n.Properties)
			if err != nil {
				return p.fail(err)
			}
			out[i] = v
		}
		p.value = valueArray(out)
	case KindEdgeArray:
		out := make([]codec.Value, len(p.value.Edges))
		for i, e := range p.value.Edges {
			v, err := build(RemapItem{Edge: e}, e.Properties)
			if err != nil {
				return p.fail(err)
			}
			out[i] = v
		}
		p.value = valueArray(out)
	default:
		return p.fail(fmt.Errorf("%w: RemapTo requires a NodeArray or EdgeArray", herr.ErrTraversal))
	}
	return p
}

// ToCodecValue folds a traversal Value into the codec.Value sum, so a
// remap_to traversal field (or any other boundary that must hand a step's
// output to the serialization layer) has a single canonical conversion.
func ToCodecValue(v Value) codec.Value {
	switch v.Kind {
	case KindNodeArray:
		arr := make([]codec.Value, len(v.Nodes))
		for i, n := range v.Nodes {
			arr[i] = codec.Object(map[string]codec.Value{
				"id":         codec.String(n.ID.String()),
				"label":      codec.String(n.Label),
				"properties": codec.Object(n.Properties),
			})
		}
		return codec.Array(arr)
	case KindEdgeArray:
		arr := make([]codec.Value, len(v.Edges))
		for i, e := range v.Edges {
			arr[i] = codec.Object(map[string]codec.Value{
				"id":         codec.String(e.ID.String()),
				"label":      codec.String(e.Label),
				"from":       codec.String(e.From.String()),
				"to":         codec.String(e.To.String()),
				"properties": codec.Object(e.Properties),
			})
		}
		return codec.Array(arr)
	case KindVectorArray:
		arr := make([]codec.Value, len(v.Vectors))
		for i, h := range v.Vectors {
			arr[i] = codec.Object(map[string]codec.Value{
				"id":   codec.String(h.ID.String()),
				"dist": codec.F64(h.Dist),
			})
		}
		return codec.Array(arr)
	case KindCount:
		return codec.I32(int32(v.Count))
	case KindValueArray:
		return codec.Array(v.Values)
	case KindPaths:
		arr := make([]codec.Value, len(v.Paths))
		for i, path := range v.Paths {
			nodes := make([]codec.Value, len(path.Nodes))
			for j, n := range path.Nodes {
				nodes[j] = codec.String(n.ID.String())
			}
			edges := make([]codec.Value, len(path.Edges))
			for j, e := range path.Edges {
				edges[j] = codec.String(e.ID.String())
			}
			arr[i] = codec.Object(map[string]codec.Value{
				"nodes": codec.Array(nodes),
				"edges": codec.Array(edges),
			})
		}
		return codec.Array(arr)
	default:
		return codec.Empty()
	}
}
