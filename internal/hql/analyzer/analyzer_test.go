package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/hql/parser"
)

func mustParse(t *testing.T, src string) *parser.Source {
	t.Helper()
	s, err := parser.Parse(src)
	require.NoError(t, err)
	return s
}

// TestUndeclaredNodeLabelDiagnostic checks that referencing a node label
// with no matching N:: definition produces an error diagnostic with a
// hint naming the missing declaration.
func TestUndeclaredNodeLabelDiagnostic(t *testing.T) {
	src := mustParse(t, `
QUERY q() =>
	x <- V<NoSuchLabel>
	RETURN x
`)
	_, irs, diags := Analyze(src)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "NoSuchLabel")
	assert.Equal(t, "declare N::NoSuchLabel above", diags[0].Hint)
	assert.Empty(t, irs, "a query with an Error diagnostic must not be accepted")
}

func TestEdgeUndeclaredFromTo(t *testing.T) {
	src := mustParse(t, `
N::User { name: String }
E::Knows {
	From: User,
	To: Ghost,
	Properties {}
}
`)
	_, diags := CollectSymbols(src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Ghost")
	assert.Equal(t, "declare N::Ghost above", diags[0].Hint)
}

func TestDuplicateNodeDefinition(t *testing.T) {
	src := mustParse(t, `
N::User { name: String }
N::User { age: String }
`)
	_, diags := CollectSymbols(src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate node definition")
}

func TestAcceptsValidQueryAndDetectsOutTyping(t *testing.T) {
	src := mustParse(t, `
N::User { name: String }
E::Knows { From: User, To: User, Properties {} }

QUERY friendsOf() =>
	x <- V<User>::Out<Knows>
	RETURN x
`)
	_, irs, diags := Analyze(src)
	require.Empty(t, diags)
	require.Len(t, irs, 1)
	assert.False(t, irs[0].Mutating)
}

func TestMutationDetection(t *testing.T) {
	src := mustParse(t, `
N::User { name: String }

QUERY addUser() =>
	x <- AddV<User>()
	RETURN x
`)
	_, irs, diags := Analyze(src)
	require.Empty(t, diags)
	require.Len(t, irs, 1)
	assert.True(t, irs[0].Mutating)
}
