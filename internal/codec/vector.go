package codec

import (
	"encoding/binary"
	"math"

	"github.com/helixdb/helix/internal/herr"
)

// HVector is the on-disk payload for a stored embedding. Deleted marks a
// tombstoned vector: HNSW delete is a tombstone flag, filtered at search
// time and compacted out-of-band, rather than an immediate adjacency
// rewrite.
type HVector struct {
	Data    []float32
	Deleted bool
}

// EncodeVector serializes an HVector: 1 tombstone byte ∥ u32 dim count ∥
// dims × big-endian float32.
func EncodeVector(v HVector) []byte {
	buf := make([]byte, 0, 5+4*len(v.Data))
	if v.Deleted {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(v.Data)))
	buf = append(buf, tmp[:]...)
	for _, f := range v.Data {
		binary.BigEndian.PutUint32(tmp[:], math.Float32bits(f))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// DecodeVector deserializes an HVector.
func DecodeVector(b []byte) (HVector, error) {
	if len(b) < 5 {
		return HVector{}, herr.Decode(errTruncated)
	}
	deleted := b[0] != 0
	n := binary.BigEndian.Uint32(b[1:5])
	rest := b[5:]
	if uint32(len(rest)) != n*4 {
		return HVector{}, herr.Decode(errTruncated)
	}
	data := make([]float32, n)
	for i := uint32(0); i < n; i++ {
		data[i] = math.Float32frombits(binary.BigEndian.Uint32(rest[i*4 : i*4+4]))
	}
	return HVector{Data: data, Deleted: deleted}, nil
}

// EntryPoint is the on-disk payload for the HNSW entry point record.
type EntryPoint struct {
	ID    ID
	Level int
}

// EncodeEntryPoint serializes an EntryPoint: u128(id) ∥ u8(level).
func EncodeEntryPoint(e EntryPoint) []byte {
	buf := make([]byte, 0, 17)
	buf = append(buf, e.ID[:]...)
	return append(buf, byte(e.Level))
}

// DecodeEntryPoint deserializes an EntryPoint.
func DecodeEntryPoint(b []byte) (EntryPoint, error) {
	if len(b) != 17 {
		return EntryPoint{}, herr.Decode(errTruncated)
	}
	var id ID
	copy(id[:], b[:16])
	return EntryPoint{ID: id, Level: int(b[16])}, nil
}
