package bm25

import (
	"math"
	"sort"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

// Result is one scored document from Search.
type Result struct {
	DocID codec.ID
	Score float64
}

func loadMeta(txn kv.Reader) (codec.BM25Meta, error) {
	raw, ok, err := txn.Get(codec.BM25MetaKey())
	if err != nil {
		return codec.BM25Meta{}, err
	}
	if !ok {
		return codec.BM25Meta{K1: 1.2, B: 0.75}, nil
	}
	return codec.DecodeBM25Meta(raw)
}

func saveMeta(txn kv.Writer, m codec.BM25Meta) error {
	return txn.Put(codec.BM25MetaKey(), codec.EncodeBM25Meta(m))
}

// Insert tokenizes text, writes postings, and updates document-frequency,
// document-length, and global metadata. A document with no indexable
// tokens is left unindexed.
func Insert(txn kv.Writer, docID codec.ID, text string) error {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	meta, err := loadMeta(txn)
	if err != nil {
		return err
	}

	termFreq := make(map[string]uint32, len(tokens))
	for _, t := range tokens {
		termFreq[t]++
	}

	docOrd, err := docOrdinal(txn, &meta, docID)
	if err != nil {
		return err
	}
	bm, err := getDocTermBitmap(txn, docOrd)
	if err != nil {
		return err
	}

	for term, tf := range termFreq {
		if err := txn.Put(codec.BM25PostingKey(term, docID), codec.EncodePosting(codec.Posting{DocID: docID, TF: tf})); err != nil {
			return err
		}
		df, err := readDF(txn, term)
		if err != nil {
			return err
		}
		if err := writeDF(txn, term, df+1); err != nil {
			return err
		}
		ord, err := termOrdinal(txn, &meta, term)
		if err != nil {
			return err
		}
		bm.Add(ord)
	}
	if err := putDocTermBitmap(txn, docOrd, bm); err != nil {
		return err
	}

	docLen := uint32(len(tokens))
	if err := txn.Put(codec.BM25DocLenKey(docID), encodeU32(docLen)); err != nil {
		return err
	}

	n := float64(meta.TotalDocs)
	meta.AvgDL = (meta.AvgDL*n + float64(docLen)) / (n + 1)
	meta.TotalDocs++
	return saveMeta(txn, meta)
}

// Delete removes docID from the index, decrementing term-DF and adjusting
// avgdl/N in reverse. It finds the terms touching docID
// via the per-document roaring bitmap instead of
// scanning every posting list. A missing document is a no-op.
func Delete(txn kv.Writer, docID codec.ID) error {
	docOrd, ok, err := lookupDocOrdinal(txn, docID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	meta, err := loadMeta(txn)
	if err != nil {
		return err
	}

	bm, err := getDocTermBitmap(txn, docOrd)
	if err != nil {
		return err
	}
	for _, ord := range bm.ToArray() {
		term, ok, err := lookupTerm(txn, ord)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := txn.Delete(codec.BM25PostingKey(term, docID)); err != nil {
			return err
		}
		df, err := readDF(txn, term)
		if err != nil {
			return err
		}
		if df <= 1 {
			if err := txn.Delete(codec.BM25TermDFKey(term)); err != nil {
				return err
			}
		} else if err := writeDF(txn, term, df-1); err != nil {
			return err
		}
	}

	raw, ok, err := txn.Get(codec.BM25DocLenKey(docID))
	if err != nil {
		return err
	}
	var docLen uint32
	if ok {
		docLen = decodeU32(raw)
	}
	if err := txn.Delete(codec.BM25DocLenKey(docID)); err != nil {
		return err
	}
	if err := txn.Delete(codec.DocTermBitmapKey(docOrd)); err != nil {
		return err
	}
	if err := txn.Delete(codec.DocOrdinalKey(docID)); err != nil {
		return err
	}
	if err := txn.Delete(codec.OrdinalDocKey(docOrd)); err != nil {
		return err
	}

	if meta.TotalDocs > 1 {
		n := float64(meta.TotalDocs)
		meta.AvgDL = (meta.AvgDL*n - float64(docLen)) / (n - 1)
		meta.TotalDocs--
	} else {
		meta.TotalDocs = 0
		meta.AvgDL = 0
	}
	return saveMeta(txn, meta)
}

// Update deletes then re-inserts docID.
func Update(txn kv.Writer, docID codec.ID, text string) error {
	if err := Delete(txn, docID); err != nil {
		return err
	}
	return Insert(txn, docID, text)
}

// Search runs BM25 scoring over every document containing any query term,
// returning the top k by descending score.
func Search(txn kv.Reader, query string, k int) ([]Result, error) {
	meta, err := loadMeta(txn)
	if err != nil {
		return nil, err
	}
	if meta.TotalDocs == 0 {
		return nil, nil
	}

	terms := map[string]bool{}
	for _, t := range tokenize(query) {
		terms[t] = true
	}
	if len(terms) == 0 {
		return nil, herr.ErrEmpty
	}

	scores := map[codec.ID]float64{}
	for term := range terms {
		df, err := readDF(txn, term)
		if err != nil {
			return nil, err
		}
		if df == 0 {
			continue
		}
		idf := bm25IDF(float64(meta.TotalDocs), float64(df))

		err = txn.PrefixIter(codec.BM25PostingPrefix(term), func(_, value []byte) error {
			p, err := codec.DecodePosting(value)
			if err != nil {
				return err
			}
			raw, ok, err := txn.Get(codec.BM25DocLenKey(p.DocID))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			docLen := float64(decodeU32(raw))
			tfn := bm25TFN(float64(p.TF), docLen, meta.AvgDL, meta.K1, meta.B)
			scores[p.DocID] += idf * tfn
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return topK(scores, k), nil
}

func bm25IDF(n, df float64) float64 {
	return math.Log((n - df + 0.5) / (df + 0.5))
}

func bm25TFN(tf, dl, avgdl, k1, b float64) float64 {
	return tf * (k1 + 1) / (tf + k1*(1-b+b*(dl/avgdl)))
}

func topK(scores map[codec.ID]float64, k int) []Result {
	out := make([]Result, 0, len(scores))
	for id, s := range scores {
		out = append(out, Result{DocID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func readDF(txn kv.Reader, term string) (uint32, error) {
	raw, ok, err := txn.Get(codec.BM25TermDFKey(term))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return decodeU32(raw), nil
}

func writeDF(txn kv.Writer, term string, df uint32) error {
	return txn.Put(codec.BM25TermDFKey(term), encodeU32(df))
}
