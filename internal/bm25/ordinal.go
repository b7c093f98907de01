package bm25

import (
	"bytes"

	"github.com/RoaringBitmap/roaring"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/kv"
)

// docOrdinal returns the stable integer ordinal for docID, assigning the
// next value of meta.NextDocOrdinal (the counter kept in the BM25 metadata
// record) on first use.
func docOrdinal(txn kv.Writer, meta *codec.BM25Meta, docID codec.ID) (uint32, error) {
	raw, ok, err := txn.Get(codec.DocOrdinalKey(docID))
	if err != nil {
		return 0, err
	}
	if ok {
		return decodeU32(raw), nil
	}
	ord := meta.NextDocOrdinal
	meta.NextDocOrdinal++
	if err := txn.Put(codec.DocOrdinalKey(docID), encodeU32(ord)); err != nil {
		return 0, err
	}
	if err := txn.Put(codec.OrdinalDocKey(ord), docID[:]); err != nil {
		return 0, err
	}
	return ord, nil
}

func lookupDocOrdinal(txn kv.Reader, docID codec.ID) (uint32, bool, error) {
	raw, ok, err := txn.Get(codec.DocOrdinalKey(docID))
	if err != nil || !ok {
		return 0, ok, err
	}
	return decodeU32(raw), true, nil
}

func termOrdinal(txn kv.Writer, meta *codec.BM25Meta, term string) (uint32, error) {
	raw, ok, err := txn.Get(codec.TermOrdinalKey(term))
	if err != nil {
		return 0, err
	}
	if ok {
		return decodeU32(raw), nil
	}
	ord := meta.NextTermOrdinal
	meta.NextTermOrdinal++
	if err := txn.Put(codec.TermOrdinalKey(term), encodeU32(ord)); err != nil {
		return 0, err
	}
	if err := txn.Put(codec.OrdinalTermKey(ord), []byte(term)); err != nil {
		return 0, err
	}
	return ord, nil
}

func lookupTerm(txn kv.Reader, ordinal uint32) (string, bool, error) {
	raw, ok, err := txn.Get(codec.OrdinalTermKey(ordinal))
	if err != nil || !ok {
		return "", ok, err
	}
	return string(raw), true, nil
}

func getDocTermBitmap(txn kv.Reader, docOrd uint32) (*roaring.Bitmap, error) {
	raw, ok, err := txn.Get(codec.DocTermBitmapKey(docOrd))
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	if !ok {
		return bm, nil
	}
	if _, err := bm.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return bm, nil
}

func putDocTermBitmap(txn kv.Writer, docOrd uint32, bm *roaring.Bitmap) error {
	var buf bytes.Buffer
	if _, err := bm.WriteTo(&buf); err != nil {
		return err
	}
	return txn.Put(codec.DocTermBitmapKey(docOrd), buf.Bytes())
}

func encodeU32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func decodeU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
