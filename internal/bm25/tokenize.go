// Package bm25 implements a persisted BM25 text index: tokenization,
// postings/doc-length/term-DF/metadata databases, the BM25 scoring
// formula, and hybrid BM25+vector fusion, backed by internal/kv
// transactions and internal/codec's posting/doc-length/term-DF/metadata
// key layouts.
package bm25

import (
	"strings"
	"unicode"
)

// tokenize lowercases, maps non-alphanumeric runes to spaces, splits on
// whitespace, and drops tokens of length <= 2 as an optional stop filter.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// stopWords is a minimal generic-word list; domain terms are deliberately
// left unfiltered.
var stopWords = map[string]bool{
	"and": true, "are": true, "for": true, "from": true,
	"has": true, "have": true, "its": true,
	"that": true, "the": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"you": true, "your": true, "their": true,
	"been": true, "does": true, "did": true,
}
