package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	cases := map[string]Value{
		"empty":  Empty(),
		"string": String("hello"),
		"i32":    I32(-42),
		"f64":    F64(3.14159),
		"bool":   Bool(true),
		"array":  Array([]Value{String("a"), I32(1), Bool(false)}),
		"object": Object(map[string]Value{
			"name": String("helix"),
			"dims": I32(128),
		}),
		"nested": Array([]Value{
			Object(map[string]Value{"a": Array([]Value{I32(1), I32(2)})}),
		}),
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeValue(EncodeValue(v))
			require.NoError(t, err)
			assert.Equal(t, v, decoded)
		})
	}
}

func TestValueDecodeRejectsTruncatedInput(t *testing.T) {
	enc := EncodeValue(I32(7))
	_, err := DecodeValue(enc[:len(enc)-1])
	assert.Error(t, err)
}

func TestValueDecodeRejectsTrailingBytes(t *testing.T) {
	enc := EncodeValue(Bool(true))
	enc = append(enc, 0xFF)
	_, err := DecodeValue(enc)
	assert.Error(t, err)
}

func TestIDRoundTripThroughBytes(t *testing.T) {
	id := NewID()
	decoded, err := IDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestIDRoundTripThroughString(t *testing.T) {
	id := NewID()
	decoded, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestIDFromBytesRejectsWrongLength(t *testing.T) {
	_, err := IDFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	cases := map[string]HVector{
		"live":    {Data: []float32{1, 2, 3.5}, Deleted: false},
		"deleted": {Data: []float32{-1.5, 0, 9}, Deleted: true},
		"empty":   {Data: []float32{}, Deleted: false},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeVector(EncodeVector(v))
			require.NoError(t, err)
			assert.Equal(t, v.Deleted, decoded.Deleted)
			assert.Equal(t, v.Data, decoded.Data)
		})
	}
}

func TestEntryPointRoundTrip(t *testing.T) {
	ep := EntryPoint{ID: NewID(), Level: 4}
	decoded, err := DecodeEntryPoint(EncodeEntryPoint(ep))
	require.NoError(t, err)
	assert.Equal(t, ep, decoded)
}

func TestPostingRoundTrip(t *testing.T) {
	p := Posting{DocID: NewID(), TF: 17}
	decoded, err := DecodePosting(EncodePosting(p))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestBM25MetaRoundTrip(t *testing.T) {
	m := BM25Meta{
		TotalDocs:       100,
		AvgDL:           12.5,
		K1:              1.2,
		B:               0.75,
		NextDocOrdinal:  101,
		NextTermOrdinal: 5000,
	}
	decoded, err := DecodeBM25Meta(EncodeBM25Meta(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestNodeRecordRoundTrip(t *testing.T) {
	n := NodeRecord{
		Label: "Person",
		Properties: map[string]Value{
			"name": String("alice"),
			"age":  I32(30),
		},
	}
	decoded, err := DecodeNode(EncodeNode(n))
	require.NoError(t, err)
	assert.Equal(t, n.Label, decoded.Label)
	assert.Equal(t, n.Properties, decoded.Properties)
}

func TestEdgeRecordRoundTrip(t *testing.T) {
	e := EdgeRecord{
		Label: "Follows",
		From:  NewID(),
		To:    NewID(),
		Properties: map[string]Value{
			"since": I32(2024),
		},
	}
	decoded, err := DecodeEdge(EncodeEdge(e))
	require.NoError(t, err)
	assert.Equal(t, e.Label, decoded.Label)
	assert.Equal(t, e.From, decoded.From)
	assert.Equal(t, e.To, decoded.To)
	assert.Equal(t, e.Properties, decoded.Properties)
}
