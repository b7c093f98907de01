package analyzer

import (
	"fmt"

	"github.com/helixdb/helix/internal/hql/parser"
)

// QueryIR is the analyzer's lowered output for one query: the validated
// AST plus whether codegen must open a read-write transaction for it, per
// conservative mutation-detection rule.
type QueryIR struct {
	Def      *parser.QueryDef
	Mutating bool
}

var mutatingSteps = map[string]bool{
	"AddV": true, "AddN": true, "AddE": true, "AddEFrom": true, "AddETo": true,
	"InsertV": true, "UpdateProps": true, "Drop": true, "DROP": true,
}

// Analyze runs both passes over src: symbol collection, then per-query
// type checking. A query is accepted (kept in the returned []*QueryIR)
// only when it produced no Error diagnostic.
func Analyze(src *parser.Source) (*SymbolTable, []*QueryIR, []Diagnostic) {
	st, diags := CollectSymbols(src)

	var irs []*QueryIR
	for _, q := range src.Queries {
		qd, qdiags := checkQuery(st, q)
		diags = append(diags, qdiags...)
		if !hasError(qdiags) {
			irs = append(irs, qd)
		}
	}
	return st, irs, diags
}

func hasError(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

type queryEnv struct {
	vars     map[string]FlowType
	mutating bool
}

func checkQuery(st *SymbolTable, q *parser.QueryDef) (*QueryIR, []Diagnostic) {
	env := &queryEnv{vars: map[string]FlowType{}}
	for _, param := range q.Params {
		env.vars[param.Name] = FlowType{Kind: FlowValue}
	}

	var diags []Diagnostic
	for _, stmt := range q.Statements {
		diags = append(diags, checkStatement(st, env, stmt)...)
	}
	for _, ret := range q.Returns {
		_, d := typeOfTraversal(st, env, ret)
		diags = append(diags, d...)
	}

	return &QueryIR{Def: q, Mutating: env.mutating}, diags
}

func checkStatement(st *SymbolTable, env *queryEnv, stmt parser.Statement) []Diagnostic {
	switch s := stmt.(type) {
	case parser.Assign:
		t, diags := typeOfTraversal(st, env, s.Expr)
		env.vars[s.Name] = t
		return diags
	case parser.ForLoop:
		t, diags := typeOfTraversal(st, env, s.Iter)
		inner := &queryEnv{vars: cloneVars(env.vars), mutating: env.mutating}
		inner.vars[s.Var] = elementType(t)
		for _, bodyStmt := range s.Body {
			diags = append(diags, checkStatement(st, inner, bodyStmt)...)
		}
		env.mutating = env.mutating || inner.mutating
		return diags
	case parser.DropStmt:
		env.mutating = true
		_, diags := typeOfTraversal(st, env, s.Expr)
		return diags
	case parser.ExprStmt:
		_, diags := typeOfTraversal(st, env, s.Expr)
		return diags
	default:
		return nil
	}
}

func cloneVars(in map[string]FlowType) map[string]FlowType {
	out := make(map[string]FlowType, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// elementType is the per-item type a FOR loop binds its variable to.
func elementType(t FlowType) FlowType {
	switch t.Kind {
	case FlowNode, FlowEdge, FlowVector:
		return t
	default:
		return FlowType{Kind: FlowValue}
	}
}

// typeOfTraversal walks a segment chain left to right, threading the
// flowing type and collecting diagnostics against each step's legality
// rules.
func typeOfTraversal(st *SymbolTable, env *queryEnv, t *parser.Traversal) (FlowType, []Diagnostic) {
	var diags []Diagnostic
	cur := FlowType{Kind: FlowUnknown}
	for i, seg := range t.Segments {
		var d []Diagnostic
		cur, d = stepSegment(st, env, cur, seg, i == 0)
		diags = append(diags, d...)
	}
	return cur, diags
}

func stepSegment(st *SymbolTable, env *queryEnv, cur FlowType, seg parser.Segment, isSource bool) (FlowType, []Diagnostic) {
	if mutatingSteps[seg.Name] {
		env.mutating = true
	}

	if seg.Literal != nil {
		if seg.Literal.Kind == parser.LitIdent {
			if v, ok := env.vars[seg.Literal.Text]; ok {
				return v, nil
			}
		}
		return FlowType{Kind: FlowValue}, nil
	}

	// A bare object literal argument (e.g. UpdateProps's `{field: value}`)
	// parses as a one-segment traversal whose only segment carries Object
	// with no Name — it is a value, not a source or step, and its fields
	// are evaluated per-field at codegen time rather than as a traversal.
	if seg.Object != nil && seg.Name == "" {
		return FlowType{Kind: FlowValue}, nil
	}

	if isSource {
		return stepSource(st, env, seg)
	}

	switch seg.Name {
	case "Out", "Both", "Mutual", "In_":
		if cur.Kind != FlowNode {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires a Node, got "+cur.String())}
		}
		label := firstTypeArg(seg)
		edge, ok := st.Edges[label]
		if !ok {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "edge", label)}
		}
		to := edge.To
		if seg.Name == "In_" {
			to = edge.From
		}
		return FlowType{Kind: FlowNode, Label: to}, nil
	case "OutE", "InE", "BothE":
		if cur.Kind != FlowNode {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires a Node, got "+cur.String())}
		}
		label := firstTypeArg(seg)
		if label != "" {
			if _, ok := st.Edges[label]; !ok {
				return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "edge", label)}
			}
		}
		return FlowType{Kind: FlowEdge, Label: label}, nil
	case "OutV", "InV", "BothV":
		if cur.Kind != FlowEdge {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires an Edge, got "+cur.String())}
		}
		edge, ok := st.Edges[cur.Label]
		if !ok {
			return FlowType{Kind: FlowValue}, nil
		}
		label := edge.To
		if seg.Name == "InV" {
			label = edge.From
		}
		return FlowType{Kind: FlowNode, Label: label}, nil
	case "COUNT":
		return FlowType{Kind: FlowCount}, nil
	case "WHERE", "FILTER_NODES", "FILTER_EDGES":
		if d := checkClosureArgs(st, env, cur, seg); len(d) > 0 {
			return FlowType{Kind: FlowUnknown}, d
		}
		return cur, nil
	case "ORDER_BY":
		// the argument names the field to sort by (a bare identifier or a
		// string, resolved by codegen's argString), not a traversal
		return cur, nil
	case "RANGE", "DEDUP", "ASC", "DESC",
		"PREFILTER", "UpdateProps", "Drop", "DROP":
		for _, arg := range seg.Args {
			_, d := typeOfTraversal(st, env, arg)
			if len(d) > 0 {
				return FlowType{Kind: FlowUnknown}, d
			}
		}
		if seg.Name == "Drop" || seg.Name == "DROP" {
			return FlowType{Kind: FlowValue}, nil
		}
		return cur, nil
	case "AddEFrom", "AddETo":
		if cur.Kind != FlowNode {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires a Node, got "+cur.String())}
		}
		label := firstTypeArg(seg)
		if label == "" {
			return FlowType{Kind: FlowEdge}, nil
		}
		if _, ok := st.Edges[label]; !ok {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "edge", label)}
		}
		return FlowType{Kind: FlowEdge, Label: label}, nil
	case "GET_PROPERTIES":
		if cur.Kind != FlowNode && cur.Kind != FlowEdge {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires a Node or Edge, got "+cur.String())}
		}
		return FlowType{Kind: FlowValue}, nil
	case "MAP_NODES", "FOR_EACH_NODES":
		if cur.Kind != FlowNode {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires a Node, got "+cur.String())}
		}
		if d := checkClosureArgs(st, env, cur, seg); len(d) > 0 {
			return FlowType{Kind: FlowUnknown}, d
		}
		if seg.Name == "FOR_EACH_NODES" {
			return cur, nil
		}
		return FlowType{Kind: FlowValue}, nil
	case "MAP_EDGES", "FOR_EACH_EDGES":
		if cur.Kind != FlowEdge {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{typeErr(seg, "requires an Edge, got "+cur.String())}
		}
		if d := checkClosureArgs(st, env, cur, seg); len(d) > 0 {
			return FlowType{Kind: FlowUnknown}, d
		}
		if seg.Name == "FOR_EACH_EDGES" {
			return cur, nil
		}
		return FlowType{Kind: FlowValue}, nil
	case "RemapTo", "REMAP_TO":
		return FlowType{Kind: FlowValue}, nil
	case "SHORTEST_PATH_TO", "SHORTEST_PATH_FROM", "SHORTEST_PATH_BETWEEN",
		"SHORTEST_MUTUAL_PATH_TO", "SHORTEST_MUTUAL_PATH_FROM", "SHORTEST_MUTUAL_PATH_BETWEEN":
		return FlowType{Kind: FlowPaths}, nil
	case "From", "To":
		// inline edge-construction steps (AddE()::From(a)::To(b)): the flowing
		// type doesn't change, they just bind endpoint arguments.
		return cur, nil
	default:
		return cur, nil
	}
}

// checkClosureArgs type-checks every argument traversal of a step whose
// closure binds the flowing item as "_" — the `_::{ identifier => { ... } }`
// convention uses for predicates, maps, and for-each bodies
// alike.
func checkClosureArgs(st *SymbolTable, env *queryEnv, cur FlowType, seg parser.Segment) []Diagnostic {
	closureEnv := &queryEnv{vars: cloneVars(env.vars), mutating: env.mutating}
	closureEnv.vars["_"] = elementType(cur)
	var diags []Diagnostic
	for _, arg := range seg.Args {
		if _, d := typeOfTraversal(st, closureEnv, arg); len(d) > 0 {
			diags = d
			break
		}
	}
	env.mutating = env.mutating || closureEnv.mutating
	return diags
}

func stepSource(st *SymbolTable, env *queryEnv, seg parser.Segment) (FlowType, []Diagnostic) {
	switch seg.Name {
	case "V", "AddV", "AddN":
		label := firstTypeArg(seg)
		if label == "" {
			return FlowType{Kind: FlowNode}, nil
		}
		if _, ok := st.Nodes[label]; !ok {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "node", label)}
		}
		return FlowType{Kind: FlowNode, Label: label}, nil
	case "E", "AddE":
		label := firstTypeArg(seg)
		if label == "" {
			return FlowType{Kind: FlowEdge}, nil
		}
		if _, ok := st.Edges[label]; !ok {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "edge", label)}
		}
		return FlowType{Kind: FlowEdge, Label: label}, nil
	case "SearchV", "InsertV":
		label := firstTypeArg(seg)
		if label != "" {
			if _, ok := st.Vectors[label]; !ok {
				return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "vector", label)}
			}
		}
		return FlowType{Kind: FlowVector, Label: label}, nil
	case "VFromSecondaryIndex":
		label := firstTypeArg(seg)
		if label == "" {
			return FlowType{Kind: FlowNode}, nil
		}
		if _, ok := st.Nodes[label]; !ok {
			return FlowType{Kind: FlowUnknown}, []Diagnostic{undeclaredLabel(seg, "node", label)}
		}
		return FlowType{Kind: FlowNode, Label: label}, nil
	case "EXISTS", "AND", "OR":
		for _, arg := range seg.Args {
			if _, d := typeOfTraversal(st, env, arg); len(d) > 0 {
				return FlowType{Kind: FlowUnknown}, d
			}
		}
		return FlowType{Kind: FlowValue}, nil
	default:
		if v, ok := env.vars[seg.Name]; ok {
			return v, nil
		}
		return FlowType{Kind: FlowUnknown}, []Diagnostic{{
			Severity: SeverityError, Span: seg.Span,
			Message: fmt.Sprintf("undefined variable or source %q", seg.Name),
		}}
	}
}

func firstTypeArg(seg parser.Segment) string {
	if len(seg.TypeArgs) == 0 {
		return ""
	}
	return seg.TypeArgs[0]
}

func typeErr(seg parser.Segment, msg string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Span: seg.Span, Message: fmt.Sprintf("%s %s", seg.Name, msg)}
}

func undeclaredLabel(seg parser.Segment, kind, label string) Diagnostic {
	prefix := map[string]string{"node": "N", "edge": "E", "vector": "V"}[kind]
	span := seg.Span
	if len(seg.TypeArgSpans) > 0 {
		span = seg.TypeArgSpans[0]
	}
	return Diagnostic{
		Severity: SeverityError,
		Span:     span,
		Message:  fmt.Sprintf("undeclared %s label %q", kind, label),
		Hint:     fmt.Sprintf("declare %s::%s above", prefix, label),
	}
}
