package bm25

import (
	"sort"

	"github.com/helixdb/helix/internal/codec"
)

// Scored is a generic (id, score) pair, used on both sides of Fuse so this
// package stays independent of internal/vector's Result type.
type Scored struct {
	ID    codec.ID
	Score float64
}

// normalize min-max scales scores into [0, 1]. A constant input set (every
// score equal, including the empty set) maps every score to 1 rather than
// dividing by zero.
func normalize(in []Scored) map[codec.ID]float64 {
	out := make(map[codec.ID]float64, len(in))
	if len(in) == 0 {
		return out
	}
	min, max := in[0].Score, in[0].Score
	for _, s := range in {
		if s.Score < min {
			min = s.Score
		}
		if s.Score > max {
			max = s.Score
		}
	}
	span := max - min
	for _, s := range in {
		if span == 0 {
			out[s.ID] = 1
		} else {
			out[s.ID] = (s.Score - min) / span
		}
	}
	return out
}

// Fuse combines BM25 and vector-similarity result sets by min-max
// normalizing each independently, then taking `alpha*bm25 +
// (1-alpha)*vector` over the union of candidate ids (a side missing an id
// contributes 0). Results are sorted descending and truncated to k.
func Fuse(bm25Results, vectorResults []Scored, alpha float64, k int) []Scored {
	bm25Norm := normalize(bm25Results)
	vecNorm := normalize(vectorResults)

	seen := make(map[codec.ID]bool, len(bm25Norm)+len(vecNorm))
	var ids []codec.ID
	for id := range bm25Norm {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range vecNorm {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	out := make([]Scored, len(ids))
	for i, id := range ids {
		out[i] = Scored{ID: id, Score: alpha*bm25Norm[id] + (1-alpha)*vecNorm[id]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}
