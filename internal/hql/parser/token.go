// Package parser implements the lexer and recursive-descent parser for
// HQL: a hand-rolled tokenizer feeding a recursive-descent clause parser,
// with span-carrying AST node shapes, over HQL's schema+query grammar.
package parser

import "fmt"

// Span is a source location range, carried by every token and AST node so
// the analyzer can render rustc-style diagnostics.
type Span struct {
	Line      int
	Col       int
	StartByte int
	EndByte   int
}

func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Col) }

// Kind enumerates HQL's lexical token classes.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	String
	// Keywords. N/E/V schema prefixes are plain Idents dispatched on text
	// by the parser ("N" "::" Label), since they only mean something at
	// the start of a top-level definition.
	KwQuery   // QUERY
	KwReturn  // RETURN
	KwFor     // FOR
	KwIn      // IN
	KwDrop    // DROP
	KwIndex   // INDEX
	KwFrom    // From: (edge_def field)
	KwTo      // To: (edge_def field)
	KwProps   // Properties
	KwExists  // EXISTS
	KwAnd     // AND
	KwOr      // OR
	KwAsc     // ASC
	KwDesc    // DESC
	// Punctuation
	LBrace    // {
	RBrace    // }
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	Comma     // ,
	Colon     // :
	DoubleColon // ::
	Arrow     // <-
	FatArrow  // =>
	Dot       // .
	Lt        // <
	Gt        // >
	Question  // ?
	Bang      // !
)

// Token is one lexical unit with its source span.
type Token struct {
	Kind Kind
	Text string
	Span Span
}

var keywords = map[string]Kind{
	"QUERY":      KwQuery,
	"RETURN":     KwReturn,
	"FOR":        KwFor,
	"IN":         KwIn,
	"DROP":       KwDrop,
	"INDEX":      KwIndex,
	"From":       KwFrom,
	"To":         KwTo,
	"Properties": KwProps,
	"EXISTS":     KwExists,
	"AND":        KwAnd,
	"OR":         KwOr,
	"ASC":        KwAsc,
	"DESC":       KwDesc,
}
