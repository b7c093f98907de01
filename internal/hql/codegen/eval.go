package codegen

import (
	"fmt"
	"strconv"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/hql/parser"
	"github.com/helixdb/helix/internal/traversal"
	"github.com/helixdb/helix/pkg/convert"
)

// evalTraversal executes a segment chain against ctx, returning the final
// Value. The first segment is a source (starts a fresh Pipeline or
// resumes from a bound variable); every following segment is a step
// applied to the running Pipeline.
func evalTraversal(ctx *evalCtx, t *parser.Traversal) (traversal.Value, error) {
	if len(t.Segments) == 0 {
		return traversal.Value{}, fmt.Errorf("%w: empty traversal", herr.ErrTraversal)
	}

	segs := t.Segments
	var p *traversal.Pipeline
	var err error
	if segs[0].Name == "AddE" {
		p, segs, err = evalAddEChain(ctx, segs)
	} else {
		p, err = evalSource(ctx, segs[0])
		segs = segs[1:]
	}
	if err != nil {
		return traversal.Value{}, err
	}
	for _, seg := range foldOrderByDirection(segs) {
		p = evalStep(ctx, p, seg)
	}
	return p.Result()
}

// foldOrderByDirection merges an `ORDER_BY(field)::ASC|DESC` pair, parsed
// as two consecutive segments, into one ORDER_BY segment carrying the
// direction as its TypeArgs[0], the shape evalStep expects.
func foldOrderByDirection(segs []parser.Segment) []parser.Segment {
	out := make([]parser.Segment, 0, len(segs))
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		if seg.Name == "ORDER_BY" && i+1 < len(segs) && (segs[i+1].Name == "ASC" || segs[i+1].Name == "DESC") {
			seg.TypeArgs = append([]string{segs[i+1].Name}, seg.TypeArgs...)
			out = append(out, seg)
			i++
			continue
		}
		out = append(out, seg)
	}
	return out
}

// evalAddEChain handles the `AddE<Label>()::From(a)::To(b)` construction
// form: the edge's endpoints arrive as From/To steps following the bare
// AddE source rather than as source arguments.
func evalAddEChain(ctx *evalCtx, segs []parser.Segment) (*traversal.Pipeline, []parser.Segment, error) {
	src := segs[0]
	label := firstTypeArg(src)
	props, err := resolveProps(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	rest := segs[1:]
	var from, to codec.ID
	for len(rest) > 0 && (rest[0].Name == "From" || rest[0].Name == "To") && len(rest[0].Args) > 0 {
		seg := rest[0]
		id, err := argID(ctx, seg.Args[0])
		if err != nil {
			return nil, nil, err
		}
		if seg.Name == "From" {
			from = id
		} else {
			to = id
		}
		rest = rest[1:]
	}
	return traversal.New(ctx.txn, ctx.store).AddE(label, from, to, props), rest, nil
}

func evalSource(ctx *evalCtx, seg parser.Segment) (*traversal.Pipeline, error) {
	if seg.Literal != nil {
		return evalLiteralSource(ctx, seg)
	}

	label := firstTypeArg(seg)
	switch seg.Name {
	case "V":
		if len(seg.Args) > 0 {
			ids, err := argIDs(ctx, seg.Args)
			if err != nil {
				return nil, err
			}
			if len(ids) == 1 {
				return traversal.New(ctx.txn, ctx.store).VFromID(ids[0]), nil
			}
			return traversal.New(ctx.txn, ctx.store).VFromIDs(ids), nil
		}
		if label == "" {
			return traversal.New(ctx.txn, ctx.store).V(), nil
		}
		return traversal.New(ctx.txn, ctx.store).VFromTypes([]string{label}), nil
	case "E":
		if len(seg.Args) > 0 {
			id, err := argID(ctx, seg.Args[0])
			if err != nil {
				return nil, err
			}
			return traversal.New(ctx.txn, ctx.store).EFromID(id), nil
		}
		return traversal.New(ctx.txn, ctx.store).E(), nil
	case "AddV", "AddN":
		props, err := resolveProps(ctx, seg)
		if err != nil {
			return nil, err
		}
		return traversal.New(ctx.txn, ctx.store).AddV(label, props), nil
	case "SearchV":
		var query []float32
		k := 10
		if len(seg.Args) > 0 {
			v, err := argVector(ctx, seg.Args[0])
			if err != nil {
				return nil, err
			}
			query = v
		}
		if len(seg.Args) > 1 {
			n, err := argInt(seg.Args[1])
			if err == nil {
				k = n
			}
		}
		return traversal.New(ctx.txn, ctx.store).SearchV(label, query, k, nil), nil
	case "InsertV":
		var vec []float32
		if len(seg.Args) > 0 {
			v, err := argVector(ctx, seg.Args[0])
			if err != nil {
				return nil, err
			}
			vec = v
		}
		props, err := resolveProps(ctx, seg)
		if err != nil {
			return nil, err
		}
		return traversal.New(ctx.txn, ctx.store).InsertV(label, vec, props), nil
	case "VFromSecondaryIndex":
		if len(seg.Args) < 2 {
			return nil, fmt.Errorf("%w: VFromSecondaryIndex requires a field and a value argument", herr.ErrTraversal)
		}
		field, err := argString(seg.Args[0])
		if err != nil {
			return nil, err
		}
		value, err := argValue(ctx, seg.Args[1])
		if err != nil {
			return nil, err
		}
		return traversal.New(ctx.txn, ctx.store).VFromSecondaryIndex(label, field, value), nil
	case "EXISTS":
		if len(seg.Args) == 0 {
			return nil, fmt.Errorf("%w: EXISTS requires a traversal argument", herr.ErrTraversal)
		}
		v, err := evalTraversal(ctx, seg.Args[0])
		if err != nil {
			return nil, err
		}
		return boolPipeline(ctx, truthy(v)), nil
	case "AND":
		result := len(seg.Args) > 0
		for _, arg := range seg.Args {
			v, err := evalTraversal(ctx, arg)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				result = false
			}
		}
		return boolPipeline(ctx, result), nil
	case "OR":
		result := false
		for _, arg := range seg.Args {
			v, err := evalTraversal(ctx, arg)
			if err != nil {
				return nil, err
			}
			if truthy(v) {
				result = true
			}
		}
		return boolPipeline(ctx, result), nil
	default:
		if v, ok := ctx.vars[seg.Name]; ok {
			return traversal.NewWithValue(ctx.txn, ctx.store, v), nil
		}
		if pv, ok := ctx.params[seg.Name]; ok {
			return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{pv}}), nil
		}
		return nil, fmt.Errorf("%w: undefined source %q", herr.ErrTraversal, seg.Name)
	}
}

// boolPipeline wraps a boolean result as a one-element ValueArray pipeline,
// the shape truthy() and WHERE's predicate coercion both expect, per
// EXISTS/AND/OR boolean combinators.
func boolPipeline(ctx *evalCtx, b bool) *traversal.Pipeline {
	return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{codec.Bool(b)}})
}

func evalLiteralSource(ctx *evalCtx, seg parser.Segment) (*traversal.Pipeline, error) {
	lit := seg.Literal
	switch lit.Kind {
	case parser.LitIdent:
		if v, ok := ctx.vars[lit.Text]; ok {
			return traversal.NewWithValue(ctx.txn, ctx.store, v), nil
		}
		if pv, ok := ctx.params[lit.Text]; ok {
			return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{pv}}), nil
		}
		return nil, fmt.Errorf("%w: undefined variable %q", herr.ErrTraversal, lit.Text)
	case parser.LitNumber:
		n, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return nil, err
		}
		return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{codec.F64(n)}}), nil
	case parser.LitString:
		return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{codec.String(lit.Text)}}), nil
	case parser.LitBool:
		return traversal.NewWithValue(ctx.txn, ctx.store, traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{codec.Bool(lit.Text == "true")}}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported literal", herr.ErrTraversal)
	}
}

// evalStep applies one non-source segment to the running pipeline. Steps
// needing an id argument resolved from the surrounding context (the path
// operators' endpoints) pull it from seg.Args; an inline AddE chain's
// From/To are resolved by the AddE source and are no-ops here.
func evalStep(ctx *evalCtx, p *traversal.Pipeline, seg parser.Segment) *traversal.Pipeline {
	label := firstTypeArg(seg)
	switch seg.Name {
	case "Out":
		return p.Out(label)
	case "OutE":
		return p.OutE(label)
	case "In_":
		return p.In_(label)
	case "InE":
		return p.InE(label)
	case "OutV":
		return p.OutV()
	case "InV":
		return p.InV()
	case "Both":
		return p.Both(label)
	case "BothE":
		return p.BothE(label)
	case "BothV":
		return p.BothV()
	case "Mutual":
		return p.Mutual(label)
	case "COUNT":
		return p.Count()
	case "RANGE":
		start, end := 0, 0
		if len(seg.Args) > 0 {
			start, _ = argInt(seg.Args[0])
		}
		if len(seg.Args) > 1 {
			end, _ = argInt(seg.Args[1])
		}
		return p.Range(start, end)
	case "DEDUP":
		return p.Dedup()
	case "ORDER_BY":
		field := ""
		if len(seg.Args) > 0 {
			field, _ = argString(seg.Args[0])
		}
		asc := true
		if len(seg.TypeArgs) > 0 && seg.TypeArgs[0] == "DESC" {
			asc = false
		}
		return p.OrderBy(field, asc)
	case "GET_PROPERTIES":
		var keys []string
		for _, a := range seg.Args {
			if s, err := argString(a); err == nil {
				keys = append(keys, s)
			}
		}
		return p.GetProperties(keys)
	case "UpdateProps":
		props, err := resolveProps(ctx, seg)
		if err != nil {
			return p.Fail(err)
		}
		return p.UpdateProps(props)
	case "Drop", "DROP":
		return p.Drop()
	case "AddEFrom":
		from, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		props, err := resolveProps(ctx, seg)
		if err != nil {
			return p.Fail(err)
		}
		return p.AddEFrom(label, from, props)
	case "AddETo":
		to, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		props, err := resolveProps(ctx, seg)
		if err != nil {
			return p.Fail(err)
		}
		return p.AddETo(label, to, props)
	case "RemapTo", "REMAP_TO":
		return p.RemapTo(buildRemapSpec(ctx, seg))
	case "SHORTEST_PATH_TO":
		to, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestPathTo(label, to)
	case "SHORTEST_PATH_FROM":
		from, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestPathFrom(label, from)
	case "SHORTEST_PATH_BETWEEN":
		from, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		to, err := argIDAt(ctx, seg.Args, 1)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestPathBetween(label, from, to)
	case "SHORTEST_MUTUAL_PATH_TO":
		to, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestMutualPathTo(label, to)
	case "SHORTEST_MUTUAL_PATH_FROM":
		from, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestMutualPathFrom(label, from)
	case "SHORTEST_MUTUAL_PATH_BETWEEN":
		from, err := argIDAt(ctx, seg.Args, 0)
		if err != nil {
			return p.Fail(err)
		}
		to, err := argIDAt(ctx, seg.Args, 1)
		if err != nil {
			return p.Fail(err)
		}
		return p.ShortestMutualPathBetween(label, from, to)
	case "WHERE", "FILTER_NODES", "FILTER_EDGES":
		if len(seg.Args) == 0 {
			return p
		}
		pred := seg.Args[0]
		switch p.Value().Kind {
		case traversal.KindNodeArray:
			return p.FilterNodes(func(n *graph.Node) bool {
				return evalPredicate(ctx, pred, traversal.Value{Kind: traversal.KindNodeArray, Nodes: []*graph.Node{n}})
			})
		case traversal.KindEdgeArray:
			return p.FilterEdges(func(e *graph.Edge) bool {
				return evalPredicate(ctx, pred, traversal.Value{Kind: traversal.KindEdgeArray, Edges: []*graph.Edge{e}})
			})
		default:
			return p
		}
	case "MAP_NODES":
		if len(seg.Args) == 0 {
			return p
		}
		expr := seg.Args[0]
		return p.MapNodes(func(n *graph.Node) codec.Value {
			return evalMapExpr(ctx, expr, traversal.Value{Kind: traversal.KindNodeArray, Nodes: []*graph.Node{n}})
		})
	case "MAP_EDGES":
		if len(seg.Args) == 0 {
			return p
		}
		expr := seg.Args[0]
		return p.MapEdges(func(e *graph.Edge) codec.Value {
			return evalMapExpr(ctx, expr, traversal.Value{Kind: traversal.KindEdgeArray, Edges: []*graph.Edge{e}})
		})
	case "FOR_EACH_NODES":
		if len(seg.Args) == 0 {
			return p
		}
		expr := seg.Args[0]
		return p.ForEachNodes(func(n *graph.Node) error {
			_, err := evalMapTraversal(ctx, expr, traversal.Value{Kind: traversal.KindNodeArray, Nodes: []*graph.Node{n}})
			return err
		})
	case "FOR_EACH_EDGES":
		if len(seg.Args) == 0 {
			return p
		}
		expr := seg.Args[0]
		return p.ForEachEdges(func(e *graph.Edge) error {
			_, err := evalMapTraversal(ctx, expr, traversal.Value{Kind: traversal.KindEdgeArray, Edges: []*graph.Edge{e}})
			return err
		})
	case "PREFILTER":
		// PREFILTER segments are accepted and ignored: the SearchV source
		// always passes a nil pre-filter to Pipeline.SearchV, so a
		// PREFILTER predicate does not restrict an HQL SearchV's results.
		return p
	case "From", "To":
		// endpoint binding for inline AddE chains is resolved at the AddE
		// source itself in this interpreter; these are no-ops here.
		return p
	default:
		return p
	}
}

// evalMapTraversal evaluates a MAP_*/FOR_EACH_* closure against one item,
// binding it to "_" the same way evalPredicate does, returning the raw
// traversal result rather than coercing to bool.
func evalMapTraversal(ctx *evalCtx, expr *parser.Traversal, item traversal.Value) (traversal.Value, error) {
	itemCtx := &evalCtx{txn: ctx.txn, store: ctx.store, params: ctx.params, vars: cloneValues(ctx.vars)}
	itemCtx.vars["_"] = item
	return evalTraversal(itemCtx, expr)
}

// evalMapExpr is evalMapTraversal for MAP_NODES/MAP_EDGES, which need the
// per-item result collapsed to a single codec.Value. Evaluation errors
// degrade to an empty value rather than aborting the whole map, matching
// the tagged Value sum's general fail-soft behavior.
func evalMapExpr(ctx *evalCtx, expr *parser.Traversal, item traversal.Value) codec.Value {
	v, err := evalMapTraversal(ctx, expr, item)
	if err != nil {
		return codec.Empty()
	}
	return scalarValue(v)
}

// evalPredicate evaluates a WHERE/FILTER_NODES/FILTER_EDGES predicate
// against one item, binding it to the "_" pseudo-variable, per the HQL
// closure convention `_::{ identifier => { ... } }`.
func evalPredicate(ctx *evalCtx, pred *parser.Traversal, item traversal.Value) bool {
	itemCtx := &evalCtx{txn: ctx.txn, store: ctx.store, params: ctx.params, vars: cloneValues(ctx.vars)}
	itemCtx.vars["_"] = item
	v, err := evalTraversal(itemCtx, pred)
	if err != nil {
		return false
	}
	return truthy(v)
}

// truthy coerces a predicate's resulting Value to a boolean: a non-empty
// collection is true, a Count is true when positive, and a single boolean
// literal value is read directly.
func truthy(v traversal.Value) bool {
	switch v.Kind {
	case traversal.KindValueArray:
		if len(v.Values) == 1 && v.Values[0].Kind == codec.KindBool {
			return v.Values[0].Bool
		}
		return len(v.Values) > 0
	case traversal.KindCount:
		return v.Count > 0
	case traversal.KindNodeArray:
		return len(v.Nodes) > 0
	case traversal.KindEdgeArray:
		return len(v.Edges) > 0
	case traversal.KindVectorArray:
		return len(v.Vectors) > 0
	default:
		return false
	}
}

func firstTypeArg(seg parser.Segment) string {
	if len(seg.TypeArgs) == 0 {
		return ""
	}
	return seg.TypeArgs[0]
}

// singleLiteral extracts the literal value of a one-segment traversal
// argument. A bare identifier segment (e.g. `a` in `From(a)`) carries no
// parser.Literal of its own — it is just a named segment — so it is
// synthesized here as a LitIdent for the argument resolvers below.
func singleLiteral(t *parser.Traversal) *parser.Literal {
	if t == nil || len(t.Segments) != 1 {
		return nil
	}
	seg := t.Segments[0]
	if seg.Literal != nil {
		return seg.Literal
	}
	if seg.Name != "" && len(seg.Args) == 0 && len(seg.TypeArgs) == 0 && seg.Object == nil {
		return &parser.Literal{Kind: parser.LitIdent, Text: seg.Name}
	}
	return nil
}

func argInt(t *parser.Traversal) (int, error) {
	lit := singleLiteral(t)
	if lit == nil || lit.Kind != parser.LitNumber {
		return 0, fmt.Errorf("%w: expected a number argument", herr.ErrTraversal)
	}
	f, err := strconv.ParseFloat(lit.Text, 64)
	return int(f), err
}

// argString resolves a field-name argument, accepting either a quoted
// string or a bare identifier (HQL allows naming a field either way in
// GET_PROPERTIES/ORDER_BY's argument position).
func argString(t *parser.Traversal) (string, error) {
	lit := singleLiteral(t)
	if lit == nil || (lit.Kind != parser.LitString && lit.Kind != parser.LitIdent) {
		return "", fmt.Errorf("%w: expected a string argument", herr.ErrTraversal)
	}
	return lit.Text, nil
}

func argID(ctx *evalCtx, t *parser.Traversal) (codec.ID, error) {
	lit := singleLiteral(t)
	if lit == nil {
		return codec.ID{}, fmt.Errorf("%w: expected an id argument", herr.ErrTraversal)
	}
	switch lit.Kind {
	case parser.LitString:
		return codec.ParseID(lit.Text)
	case parser.LitIdent:
		if pv, ok := ctx.params[lit.Text]; ok && pv.Kind == codec.KindString {
			return codec.ParseID(pv.Str)
		}
		if v, ok := ctx.vars[lit.Text]; ok {
			return firstID(v)
		}
	}
	return codec.ID{}, fmt.Errorf("%w: cannot resolve id argument %q", herr.ErrTraversal, lit.Text)
}

// argVector resolves a query-vector argument: a parameter or bound
// variable holding an array of numbers.
func argVector(ctx *evalCtx, t *parser.Traversal) ([]float32, error) {
	lit := singleLiteral(t)
	if lit == nil || lit.Kind != parser.LitIdent {
		return nil, fmt.Errorf("%w: expected a vector argument", herr.ErrTraversal)
	}
	if pv, ok := ctx.params[lit.Text]; ok {
		return valueToVector(pv)
	}
	if v, ok := ctx.vars[lit.Text]; ok && v.Kind == traversal.KindValueArray {
		out := make([]float32, len(v.Values))
		for i, x := range v.Values {
			out[i] = float32(x.F64)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot resolve vector argument %q", herr.ErrTraversal, lit.Text)
}

// argValue resolves a literal-or-bound-variable argument to a bare
// codec.Value, for steps like VFromSecondaryIndex whose second argument is
// an arbitrary indexed field value rather than a fixed shape.
func argValue(ctx *evalCtx, t *parser.Traversal) (codec.Value, error) {
	lit := singleLiteral(t)
	if lit == nil {
		return codec.Value{}, fmt.Errorf("%w: expected a value argument", herr.ErrTraversal)
	}
	switch lit.Kind {
	case parser.LitString:
		return codec.String(lit.Text), nil
	case parser.LitNumber:
		f, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return codec.Value{}, err
		}
		return codec.F64(f), nil
	case parser.LitBool:
		return codec.Bool(lit.Text == "true"), nil
	case parser.LitIdent:
		if pv, ok := ctx.params[lit.Text]; ok {
			return pv, nil
		}
		if v, ok := ctx.vars[lit.Text]; ok {
			return scalarValue(v), nil
		}
	}
	return codec.Value{}, fmt.Errorf("%w: cannot resolve value argument %q", herr.ErrTraversal, lit.Text)
}

func valueToVector(v codec.Value) ([]float32, error) {
	if v.Kind != codec.KindArray {
		return nil, fmt.Errorf("%w: vector argument is not an array", herr.ErrTraversal)
	}
	out := convert.ToFloat32Slice(v.ToAny())
	if out == nil && len(v.Array) > 0 {
		return nil, fmt.Errorf("%w: vector element is not numeric", herr.ErrTraversal)
	}
	return out, nil
}

// argIDs resolves one-or-more id arguments: either several positional id
// arguments (`V(a, b)`) or a single argument bound to a collection of ids
// (`V(ids)` where ids holds a NodeArray, EdgeArray, or an array-valued
// parameter).
func argIDs(ctx *evalCtx, args []*parser.Traversal) ([]codec.ID, error) {
	if len(args) == 1 {
		if lit := singleLiteral(args[0]); lit != nil && lit.Kind == parser.LitIdent {
			if v, ok := ctx.vars[lit.Text]; ok {
				if ids, err := allIDs(v); err == nil {
					return ids, nil
				}
			}
			if pv, ok := ctx.params[lit.Text]; ok && pv.Kind == codec.KindArray {
				ids := make([]codec.ID, 0, len(pv.Array))
				for _, el := range pv.Array {
					id, err := codec.ParseID(el.Str)
					if err != nil {
						return nil, err
					}
					ids = append(ids, id)
				}
				return ids, nil
			}
		}
	}
	ids := make([]codec.ID, 0, len(args))
	for _, a := range args {
		id, err := argID(ctx, a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// allIDs collects every id out of a NodeArray or EdgeArray value.
func allIDs(v traversal.Value) ([]codec.ID, error) {
	switch v.Kind {
	case traversal.KindNodeArray:
		ids := make([]codec.ID, len(v.Nodes))
		for i, n := range v.Nodes {
			ids[i] = n.ID
		}
		return ids, nil
	case traversal.KindEdgeArray:
		ids := make([]codec.ID, len(v.Edges))
		for i, e := range v.Edges {
			ids[i] = e.ID
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%w: value has no ids", herr.ErrTraversal)
	}
}

func argIDAt(ctx *evalCtx, args []*parser.Traversal, i int) (codec.ID, error) {
	if i >= len(args) {
		return codec.ID{}, fmt.Errorf("%w: missing id argument at position %d", herr.ErrTraversal, i)
	}
	return argID(ctx, args[i])
}

func firstID(v traversal.Value) (codec.ID, error) {
	switch v.Kind {
	case traversal.KindNodeArray:
		if len(v.Nodes) > 0 {
			return v.Nodes[0].ID, nil
		}
	case traversal.KindEdgeArray:
		if len(v.Edges) > 0 {
			return v.Edges[0].ID, nil
		}
	}
	return codec.ID{}, fmt.Errorf("%w: value has no id", herr.ErrTraversal)
}

// resolveProps evaluates a segment's bare object literal (e.g. AddV's
// `({name: "amy"})` argument) into a property map. Each field value must
// reduce to a literal or a bound variable/parameter.
func resolveProps(ctx *evalCtx, seg parser.Segment) (map[string]codec.Value, error) {
	obj := seg.Object
	if obj == nil {
		// props expressed as one of the parenthesized arguments, e.g.
		// AddV<L>({...}) or InsertV<L>(vec, {...}).
		for _, a := range seg.Args {
			if len(a.Segments) == 1 && a.Segments[0].Object != nil {
				obj = a.Segments[0].Object
				break
			}
		}
	}
	props := map[string]codec.Value{}
	if obj == nil {
		return props, nil
	}
	for name, fieldExpr := range obj.Fields {
		v, err := evalTraversal(ctx, fieldExpr)
		if err != nil {
			return nil, err
		}
		props[name] = scalarValue(v)
	}
	return props, nil
}

// scalarValue unwraps a single-literal ValueArray (the shape a plain
// `field: "text"` or `field: 3` property expression evaluates to) into its
// bare codec.Value, instead of wrapping it in a one-element Array.
func scalarValue(v traversal.Value) codec.Value {
	if v.Kind == traversal.KindValueArray && len(v.Values) == 1 {
		return v.Values[0]
	}
	return traversal.ToCodecValue(v)
}

// buildRemapSpec turns a remap_to object literal into a traversal.RemapSpec,
// evaluating each field's traversal once per source item.
func buildRemapSpec(ctx *evalCtx, seg parser.Segment) traversal.RemapSpec {
	spec := traversal.RemapSpec{Fields: map[string]traversal.RemapField{}}
	if seg.Object == nil {
		return spec
	}
	spec.Spread = seg.Object.Spread
	spec.Exclude = seg.Object.Exclude
	for name, fieldExpr := range seg.Object.Fields {
		expr := fieldExpr
		spec.Fields[name] = func(p *traversal.Pipeline, item traversal.RemapItem) (codec.Value, error) {
			itemCtx := &evalCtx{txn: ctx.txn, store: ctx.store, params: ctx.params, vars: cloneValues(ctx.vars)}
			if item.Node != nil {
				itemCtx.vars["_"] = traversal.Value{Kind: traversal.KindNodeArray, Nodes: []*graph.Node{item.Node}}
			} else if item.Edge != nil {
				itemCtx.vars["_"] = traversal.Value{Kind: traversal.KindEdgeArray, Edges: []*graph.Edge{item.Edge}}
			}
			v, err := evalTraversal(itemCtx, expr)
			if err != nil {
				return codec.Value{}, err
			}
			return scalarValue(v), nil
		}
	}
	return spec
}
