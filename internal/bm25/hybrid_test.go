package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixdb/helix/internal/codec"
)

// TestFuseWeightsBothSides checks alpha=1 collapses to BM25-only
// ranking, and alpha=0 to vector-only ranking.
func TestFuseWeightsBothSides(t *testing.T) {
	a, b := codec.NewID(), codec.NewID()

	textOnly := []Scored{{ID: a, Score: 10}, {ID: b, Score: 1}}
	vecOnly := []Scored{{ID: a, Score: 1}, {ID: b, Score: 10}}

	byText := Fuse(textOnly, vecOnly, 1, 10)
	assert.Equal(t, a, byText[0].ID)

	byVec := Fuse(textOnly, vecOnly, 0, 10)
	assert.Equal(t, b, byVec[0].ID)
}

// TestFuseUnionsCandidatesFromEitherSide checks a document appearing on
// only one side still surfaces, scored against a 0 on the other.
func TestFuseUnionsCandidatesFromEitherSide(t *testing.T) {
	onlyText := codec.NewID()
	onlyVec := codec.NewID()

	fused := Fuse([]Scored{{ID: onlyText, Score: 5}}, []Scored{{ID: onlyVec, Score: 5}}, 0.5, 10)
	seen := map[codec.ID]bool{onlyText: false, onlyVec: false}
	for _, f := range fused {
		seen[f.ID] = true
	}
	assert.True(t, seen[onlyText])
	assert.True(t, seen[onlyVec])
}

func TestFuseTruncatesToK(t *testing.T) {
	ids := make([]Scored, 5)
	for i := range ids {
		ids[i] = Scored{ID: codec.NewID(), Score: float64(i)}
	}
	fused := Fuse(ids, nil, 1, 2)
	assert.Len(t, fused, 2)
}

func TestFuseEmptyBothSides(t *testing.T) {
	fused := Fuse(nil, nil, 0.5, 10)
	assert.Empty(t, fused)
}
