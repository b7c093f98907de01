package helixdb

import (
	"github.com/helixdb/helix/internal/bm25"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
)

// HybridResult pairs a node with its fused BM25+vector score.
type HybridResult struct {
	Node  *graph.Node
	Score float64
}

// overfetch widens each side's candidate set before fusion so that,
// after restricting to label, at least k results usually survive.
const overfetch = 4

// HybridSearch combines the module-wide BM25 text index with label's
// vector.Index via internal/bm25.Fuse. internal/traversal.Store
// deliberately excludes BM25 -- queries expressed in HQL have no bm25
// source -- so this assembly happens here, one layer above the traversal
// operators, rather than folding text search into the traversal pipeline
// itself.
//
// queryText and queryVector may each be empty/nil to run a BM25-only or
// vector-only search; label restricts results to nodes of that label
// (BM25's postings are global across labels, so label membership is
// checked by loading each candidate node).
func (db *DB) HybridSearch(label, queryText string, queryVector []float32, k int, alpha float64) ([]HybridResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, herr.ErrStorage
	}

	txn := db.env.BeginRead()
	defer txn.Discard()

	var textScored []bm25.Scored
	if queryText != "" {
		results, err := bm25.Search(txn, queryText, k*overfetch)
		if err != nil {
			return nil, err
		}
		textScored = make([]bm25.Scored, len(results))
		for i, r := range results {
			textScored[i] = bm25.Scored{ID: r.DocID, Score: r.Score}
		}
	}

	var vecScored []bm25.Scored
	if len(queryVector) > 0 {
		idx, ok := db.VectorIndex(label)
		if !ok {
			return nil, herr.LabelNotFound(label)
		}
		results, err := idx.Search(txn, queryVector, k*overfetch, nil)
		if err != nil {
			return nil, err
		}
		vecScored = make([]bm25.Scored, len(results))
		for i, r := range results {
			// Distance is lower-is-better; negate so every input to
			// Fuse's per-set min-max normalization is higher-is-better.
			vecScored[i] = bm25.Scored{ID: r.ID, Score: -r.Dist}
		}
	}

	fused := bm25.Fuse(textScored, vecScored, alpha, k*overfetch)

	out := make([]HybridResult, 0, k)
	for _, f := range fused {
		n, err := db.g.GetNode(txn, f.ID)
		if err != nil {
			continue
		}
		if label != "" && n.Label != label {
			continue
		}
		out = append(out, HybridResult{Node: n, Score: f.Score})
		if len(out) == k {
			break
		}
	}
	return out, nil
}
