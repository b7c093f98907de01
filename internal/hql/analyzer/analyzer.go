// Package analyzer implements HQL's two-pass semantic analyzer: a
// label/field symbol-table pass followed by per-query flow-type checking,
// rendering rustc-style diagnostics over HQL's schema+query grammar
// (internal/hql/parser).
package analyzer

import (
	"fmt"

	"github.com/helixdb/helix/internal/hql/parser"
)

// Severity mirrors rustc-style diagnostic levels.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "hint"
	}
}

// Diagnostic is one analyzer finding:
// `Diagnostic { severity, span, message, hint?, fix? }`.
type Diagnostic struct {
	Severity Severity
	Span     parser.Span
	Message  string
	Hint     string
	Fix      string
}

// Render formats a diagnostic rustc-style: severity, location, message,
// and an optional help line.
func (d Diagnostic) Render() string {
	s := fmt.Sprintf("%s: %s at %s", d.Severity, d.Message, d.Span)
	if d.Hint != "" {
		s += "\n  help: " + d.Hint
	}
	if d.Fix != "" {
		s += "\n  fix:\n" + d.Fix
	}
	return s
}

// FieldType is one field's declared type, optionally secondary-indexed.
type FieldType struct {
	Name    string
	Type    string
	Indexed bool
}

// NodeSymbol, EdgeSymbol, VectorSymbol are the symbol-collection pass's
// label table entries: node labels, edge labels with their declared
// from/to, vector labels, and field types.
type NodeSymbol struct {
	Label  string
	Fields map[string]FieldType
}

type EdgeSymbol struct {
	Label      string
	From       string
	To         string
	Properties map[string]FieldType
}

type VectorSymbol struct {
	Label  string
	Fields map[string]FieldType
}

// SymbolTable is the output of symbol collection.
type SymbolTable struct {
	Nodes   map[string]*NodeSymbol
	Edges   map[string]*EdgeSymbol
	Vectors map[string]*VectorSymbol
}

func fieldMap(fields []parser.FieldDef) map[string]FieldType {
	m := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		m[f.Name] = FieldType{Name: f.Name, Type: f.Type, Indexed: f.Indexed}
	}
	return m
}

// CollectSymbols is pass 1: build the label map and reject duplicate
// definitions or edges referencing undeclared node labels.
func CollectSymbols(src *parser.Source) (*SymbolTable, []Diagnostic) {
	st := &SymbolTable{
		Nodes:   map[string]*NodeSymbol{},
		Edges:   map[string]*EdgeSymbol{},
		Vectors: map[string]*VectorSymbol{},
	}
	var diags []Diagnostic

	for _, n := range src.Nodes {
		if _, dup := st.Nodes[n.Label]; dup {
			diags = append(diags, Diagnostic{Severity: SeverityError, Span: n.Span,
				Message: fmt.Sprintf("duplicate node definition %q", n.Label)})
			continue
		}
		st.Nodes[n.Label] = &NodeSymbol{Label: n.Label, Fields: fieldMap(n.Fields)}
	}
	for _, v := range src.Vectors {
		if _, dup := st.Vectors[v.Label]; dup {
			diags = append(diags, Diagnostic{Severity: SeverityError, Span: v.Span,
				Message: fmt.Sprintf("duplicate vector definition %q", v.Label)})
			continue
		}
		st.Vectors[v.Label] = &VectorSymbol{Label: v.Label, Fields: fieldMap(v.Fields)}
	}
	for _, e := range src.Edges {
		if _, dup := st.Edges[e.Label]; dup {
			diags = append(diags, Diagnostic{Severity: SeverityError, Span: e.Span,
				Message: fmt.Sprintf("duplicate edge definition %q", e.Label)})
			continue
		}
		if _, ok := st.Nodes[e.From]; !ok {
			diags = append(diags, Diagnostic{Severity: SeverityError, Span: e.Span,
				Message: fmt.Sprintf("edge %q references undeclared From label %q", e.Label, e.From),
				Hint:    fmt.Sprintf("declare N::%s above", e.From)})
		}
		if _, ok := st.Nodes[e.To]; !ok {
			diags = append(diags, Diagnostic{Severity: SeverityError, Span: e.Span,
				Message: fmt.Sprintf("edge %q references undeclared To label %q", e.Label, e.To),
				Hint:    fmt.Sprintf("declare N::%s above", e.To)})
		}
		st.Edges[e.Label] = &EdgeSymbol{Label: e.Label, From: e.From, To: e.To, Properties: fieldMap(e.Properties)}
	}
	return st, diags
}
