// Package codegen lowers an analyzer.QueryIR into an executable plan over
// internal/traversal: a tree-walking interpreter over the validated AST
// rather than a literal source-to-source generator, since Go has no
// convenient runtime codegen. "Compile" here means building a Plan that
// dispatches per segment kind at Execute time.
package codegen

import (
	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/hql/analyzer"
	"github.com/helixdb/helix/internal/hql/parser"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/traversal"
)

// Plan is one compiled query: its parameter shape, whether it needs a
// read-write transaction, and an Execute entry point.
type Plan struct {
	ir *analyzer.QueryIR
}

// Compile lowers a validated QueryIR into a Plan: a pure function of the
// IR — no I/O happens until Execute runs.
func Compile(ir *analyzer.QueryIR) *Plan { return &Plan{ir: ir} }

// Name is the query's declared name.
func (pl *Plan) Name() string { return pl.ir.Def.Name }

// Params is the query's declared parameter list (name + type), one
// parameter type per declared query argument.
func (pl *Plan) Params() []parser.Param { return pl.ir.Def.Params }

// Mutating reports whether Execute must be run under a read-write
// transaction.
func (pl *Plan) Mutating() bool { return pl.ir.Mutating }

// evalCtx threads the transaction, store, bound variables, and query
// parameters through one Execute call.
type evalCtx struct {
	txn    kv.Reader
	store  traversal.Store
	vars   map[string]traversal.Value
	params map[string]codec.Value
}

// Execute runs the plan's statements in order and returns one codec.Value
// per RETURN expression -- the response shape is inferred from the return
// expressions -- in a flat array for multiple returns.
func (pl *Plan) Execute(txn kv.Reader, store traversal.Store, params map[string]codec.Value) ([]codec.Value, error) {
	ctx := &evalCtx{txn: txn, store: store, vars: map[string]traversal.Value{}, params: params}

	for _, stmt := range pl.ir.Def.Statements {
		if err := execStatement(ctx, stmt); err != nil {
			return nil, err
		}
	}

	out := make([]codec.Value, len(pl.ir.Def.Returns))
	for i, ret := range pl.ir.Def.Returns {
		v, err := evalTraversal(ctx, ret)
		if err != nil {
			return nil, err
		}
		out[i] = traversal.ToCodecValue(v)
	}
	return out, nil
}

func execStatement(ctx *evalCtx, stmt parser.Statement) error {
	switch s := stmt.(type) {
	case parser.Assign:
		v, err := evalTraversal(ctx, s.Expr)
		if err != nil {
			return err
		}
		ctx.vars[s.Name] = v
		return nil
	case parser.ForLoop:
		v, err := evalTraversal(ctx, s.Iter)
		if err != nil {
			return err
		}
		items := iterItems(v)
		for _, item := range items {
			inner := &evalCtx{txn: ctx.txn, store: ctx.store, params: ctx.params, vars: cloneValues(ctx.vars)}
			inner.vars[s.Var] = item
			for _, bodyStmt := range s.Body {
				if err := execStatement(inner, bodyStmt); err != nil {
					return err
				}
			}
		}
		return nil
	case parser.DropStmt:
		v, err := evalTraversal(ctx, s.Expr)
		if err != nil {
			return err
		}
		return dropValue(ctx, v)
	case parser.ExprStmt:
		_, err := evalTraversal(ctx, s.Expr)
		return err
	default:
		return nil
	}
}

func dropValue(ctx *evalCtx, v traversal.Value) error {
	p := traversal.NewWithValue(ctx.txn, ctx.store, v).Drop()
	return p.Finish()
}

func cloneValues(in map[string]traversal.Value) map[string]traversal.Value {
	out := make(map[string]traversal.Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// iterItems splits a Value into one single-item Value per element, for a
// FOR loop body.
func iterItems(v traversal.Value) []traversal.Value {
	switch v.Kind {
	case traversal.KindNodeArray:
		out := make([]traversal.Value, len(v.Nodes))
		for i, n := range v.Nodes {
			out[i] = traversal.Value{Kind: traversal.KindNodeArray, Nodes: []*graph.Node{n}}
		}
		return out
	case traversal.KindEdgeArray:
		out := make([]traversal.Value, len(v.Edges))
		for i, e := range v.Edges {
			out[i] = traversal.Value{Kind: traversal.KindEdgeArray, Edges: []*graph.Edge{e}}
		}
		return out
	case traversal.KindVectorArray:
		out := make([]traversal.Value, len(v.Vectors))
		for i, h := range v.Vectors {
			out[i] = traversal.Value{Kind: traversal.KindVectorArray, Vectors: []traversal.VectorHit{h}}
		}
		return out
	case traversal.KindValueArray:
		out := make([]traversal.Value, len(v.Values))
		for i, x := range v.Values {
			out[i] = traversal.Value{Kind: traversal.KindValueArray, Values: []codec.Value{x}}
		}
		return out
	default:
		return []traversal.Value{v}
	}
}
