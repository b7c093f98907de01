package codec

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Key family prefixes. Badger has a single flat keyspace (unlike a
// multi-database LMDB/MDBX primitive), so each logical database becomes a
// one-byte prefix instead.
const (
	PrefixNode        byte = 0x01
	PrefixEdge        byte = 0x02
	PrefixOutAdj      byte = 0x03
	PrefixInAdj       byte = 0x04
	PrefixSecondary   byte = 0x05
	PrefixBM25Posting byte = 0x06
	PrefixBM25DocLen  byte = 0x07
	PrefixBM25TermDF  byte = 0x08
	PrefixBM25Meta    byte = 0x09
	PrefixVector      byte = 0x0A
	PrefixHNSWEdge    byte = 0x0B
	PrefixHNSWEntry   byte = 0x0C
	PrefixDocOrdinal  byte = 0x0D // doc_id -> roaring-bitmap ordinal, for BM25 compaction
	PrefixSchema      byte = 0x0E

	// The families below back the roaring-bitmap optimization layered on
	// top of the plain postings/doc-length/term-DF databases.
	PrefixOrdinalDoc    byte = 0x0F // reverse of PrefixDocOrdinal: ordinal -> doc_id
	PrefixTermOrdinal   byte = 0x10 // term -> ordinal
	PrefixOrdinalTerm   byte = 0x11 // reverse: ordinal -> term
	PrefixDocTermBitmap byte = 0x12 // doc ordinal -> roaring bitmap of term ordinals
)

// LabelHash returns the stable 32-bit fingerprint of a label, used as a
// key-prefix component. xxhash is already present transitively via
// Badger's dependency graph; promoting it to a direct import gives a
// stable, fast 32-bit hash instead of hand-rolling one.
func LabelHash(label string) uint32 {
	return uint32(xxhash.Sum64String(label))
}

func put32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// NodeKey builds the "node by id" key: 0x01 ∥ u128(id).
func NodeKey(id ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixNode)
	return append(k, id[:]...)
}

// EdgeKey builds the "edge by id" key: 0x02 ∥ u128(id).
func EdgeKey(id ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixEdge)
	return append(k, id[:]...)
}

// OutAdjPrefix builds the out-adjacency scan prefix: 0x03 ∥ from ∥ label_hash.
func OutAdjPrefix(from ID, labelHash uint32) []byte {
	k := make([]byte, 0, 21)
	k = append(k, PrefixOutAdj)
	k = append(k, from[:]...)
	return put32(k, labelHash)
}

// OutAdjAllPrefix builds the out-adjacency scan prefix across all labels:
// 0x03 ∥ from.
func OutAdjAllPrefix(from ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixOutAdj)
	return append(k, from[:]...)
}

// OutAdjKey appends the edge id to make the composite key unique, since
// Badger has no native dup-sort database -- dup-sort is emulated via
// composite keys instead.
func OutAdjKey(from ID, labelHash uint32, edgeID ID) []byte {
	k := OutAdjPrefix(from, labelHash)
	return append(k, edgeID[:]...)
}

// InAdjPrefix builds the in-adjacency scan prefix: 0x04 ∥ to ∥ label_hash.
func InAdjPrefix(to ID, labelHash uint32) []byte {
	k := make([]byte, 0, 21)
	k = append(k, PrefixInAdj)
	k = append(k, to[:]...)
	return put32(k, labelHash)
}

// InAdjAllPrefix builds the in-adjacency scan prefix across all labels.
func InAdjAllPrefix(to ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixInAdj)
	return append(k, to[:]...)
}

// InAdjKey appends the edge id, mirroring OutAdjKey.
func InAdjKey(to ID, labelHash uint32, edgeID ID) []byte {
	k := InAdjPrefix(to, labelHash)
	return append(k, edgeID[:]...)
}

// AdjValue packs the "other endpoint" tuple stored at an adjacency key:
// u128(edge_id) ∥ u128(other_id).
func AdjValue(edgeID, other ID) []byte {
	v := make([]byte, 0, 32)
	v = append(v, edgeID[:]...)
	return append(v, other[:]...)
}

// DecodeAdjValue unpacks an AdjValue.
func DecodeAdjValue(v []byte) (edgeID, other ID, ok bool) {
	if len(v) != 32 {
		return ID{}, ID{}, false
	}
	copy(edgeID[:], v[:16])
	copy(other[:], v[16:])
	return edgeID, other, true
}

// SecondaryIndexPrefix builds the scan prefix for a secondary index on
// (label, field): 0x05 ∥ label_hash ∥ field_hash.
func SecondaryIndexPrefix(label, field string) []byte {
	k := make([]byte, 0, 9)
	k = append(k, PrefixSecondary)
	k = put32(k, LabelHash(label))
	return put32(k, LabelHash(field))
}

// SecondaryIndexKey appends encode(field value) ∥ node_id: the encoded
// value is the logical dup-sort key, and the node id distinguishes
// physical Badger keys sharing that value.
func SecondaryIndexKey(label, field string, encodedValue []byte, nodeID ID) []byte {
	k := SecondaryIndexPrefix(label, field)
	k = append(k, encodedValue...)
	return append(k, nodeID[:]...)
}

// BM25PostingPrefix builds the scan prefix for a term's posting list.
func BM25PostingPrefix(term string) []byte {
	k := make([]byte, 0, 1+len(term))
	k = append(k, PrefixBM25Posting)
	return append(k, term...)
}

// BM25PostingKey appends the doc id, emulating the posting dup-sort key.
func BM25PostingKey(term string, docID ID) []byte {
	k := BM25PostingPrefix(term)
	return append(k, docID[:]...)
}

// BM25DocLenKey builds the per-document length key: 0x07 ∥ doc_id.
func BM25DocLenKey(docID ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixBM25DocLen)
	return append(k, docID[:]...)
}

// BM25TermDFKey builds the per-term document-frequency key.
func BM25TermDFKey(term string) []byte {
	k := make([]byte, 0, 1+len(term))
	k = append(k, PrefixBM25TermDF)
	return append(k, term...)
}

// BM25MetaKey is the single well-known key for BM25 global metadata.
func BM25MetaKey() []byte {
	return []byte{PrefixBM25Meta}
}

// DocOrdinalKey maps a doc id to its roaring-bitmap ordinal (for the
// per-document term-membership bitmap used during BM25 compaction).
func DocOrdinalKey(docID ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixDocOrdinal)
	return append(k, docID[:]...)
}

// OrdinalDocKey builds the reverse-lookup key for a doc ordinal.
func OrdinalDocKey(ordinal uint32) []byte {
	k := make([]byte, 0, 5)
	k = append(k, PrefixOrdinalDoc)
	return put32(k, ordinal)
}

// TermOrdinalKey builds the term -> ordinal lookup key.
func TermOrdinalKey(term string) []byte {
	k := make([]byte, 0, 1+len(term))
	k = append(k, PrefixTermOrdinal)
	return append(k, term...)
}

// OrdinalTermKey builds the reverse-lookup key for a term ordinal.
func OrdinalTermKey(ordinal uint32) []byte {
	k := make([]byte, 0, 5)
	k = append(k, PrefixOrdinalTerm)
	return put32(k, ordinal)
}

// DocTermBitmapKey builds the per-document term-membership bitmap key,
// keyed by the document's stable ordinal.
func DocTermBitmapKey(docOrdinal uint32) []byte {
	k := make([]byte, 0, 5)
	k = append(k, PrefixDocTermBitmap)
	return put32(k, docOrdinal)
}

// VectorKey builds the PrefixVector ∥ id ∥ level-byte key for a stored vector.
func VectorKey(id ID, level int) []byte {
	k := make([]byte, 0, 18)
	k = append(k, PrefixVector)
	k = append(k, id[:]...)
	return append(k, byte(level))
}

// VectorAllLevelsPrefix scans every stored level of a vector id.
func VectorAllLevelsPrefix(id ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixVector)
	return append(k, id[:]...)
}

// HNSWEdgePrefix builds the scan prefix for one vector's neighbor list at
// a level: PrefixHNSWEdge ∥ src_id ∥ level byte.
func HNSWEdgePrefix(src ID, level int) []byte {
	k := make([]byte, 0, 18)
	k = append(k, PrefixHNSWEdge)
	k = append(k, src[:]...)
	return append(k, byte(level))
}

// HNSWEdgeKey appends the destination id to make the key unique.
func HNSWEdgeKey(src ID, level int, dst ID) []byte {
	k := HNSWEdgePrefix(src, level)
	return append(k, dst[:]...)
}

// HNSWEntryKey is the single well-known key for the HNSW entry point.
func HNSWEntryKey() []byte {
	return []byte{PrefixHNSWEntry}
}

// SchemaKey namespaces persisted schema definitions under their kind.
func SchemaKey(kind byte, name string) []byte {
	k := make([]byte, 0, 2+len(name))
	k = append(k, PrefixSchema, kind)
	return append(k, name...)
}
