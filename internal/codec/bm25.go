package codec

import (
	"encoding/binary"
	"math"

	"github.com/helixdb/helix/internal/herr"
)

// Posting is the value stored at a BM25PostingKey: `{doc_id, tf}`. The doc
// id is redundant with the key suffix but kept in the payload so a
// posting decodes standalone.
type Posting struct {
	DocID ID
	TF    uint32
}

// EncodePosting serializes a Posting.
func EncodePosting(p Posting) []byte {
	buf := make([]byte, 0, 20)
	buf = append(buf, p.DocID[:]...)
	return put32(buf, p.TF)
}

// DecodePosting deserializes a Posting.
func DecodePosting(b []byte) (Posting, error) {
	if len(b) != 20 {
		return Posting{}, herr.Decode(errTruncated)
	}
	var id ID
	copy(id[:], b[:16])
	return Posting{DocID: id, TF: binary.BigEndian.Uint32(b[16:20])}, nil
}

// BM25Meta is the global metadata record, extended with the ordinal
// counters the roaring-bitmap optimization needs.
type BM25Meta struct {
	TotalDocs       uint32
	AvgDL           float64
	K1              float64
	B               float64
	NextDocOrdinal  uint32
	NextTermOrdinal uint32
}

// EncodeBM25Meta serializes a BM25Meta.
func EncodeBM25Meta(m BM25Meta) []byte {
	buf := make([]byte, 0, 28)
	buf = put32(buf, m.TotalDocs)
	buf = putF64(buf, m.AvgDL)
	buf = putF64(buf, m.K1)
	buf = putF64(buf, m.B)
	buf = put32(buf, m.NextDocOrdinal)
	buf = put32(buf, m.NextTermOrdinal)
	return buf
}

// DecodeBM25Meta deserializes a BM25Meta.
func DecodeBM25Meta(b []byte) (BM25Meta, error) {
	if len(b) != 4+8+8+8+4+4 {
		return BM25Meta{}, herr.Decode(errTruncated)
	}
	m := BM25Meta{
		TotalDocs:       binary.BigEndian.Uint32(b[0:4]),
		AvgDL:           math.Float64frombits(binary.BigEndian.Uint64(b[4:12])),
		K1:              math.Float64frombits(binary.BigEndian.Uint64(b[12:20])),
		B:               math.Float64frombits(binary.BigEndian.Uint64(b[20:28])),
		NextDocOrdinal:  binary.BigEndian.Uint32(b[28:32]),
		NextTermOrdinal: binary.BigEndian.Uint32(b[32:36]),
	}
	return m, nil
}

func putF64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}
