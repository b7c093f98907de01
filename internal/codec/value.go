package codec

import (
	"encoding/binary"
	"math"

	"github.com/helixdb/helix/internal/herr"
)

// ValueKind tags the variant stored in a Value: the tagged sum
// `String | I32 | F64 | Bool | Array<Value> | Object<map> | Empty`.
type ValueKind byte

const (
	KindEmpty ValueKind = iota
	KindString
	KindI32
	KindF64
	KindBool
	KindArray
	KindObject
)

// Value is the tagged union of property values flowing through the graph,
// vector, and traversal layers.
type Value struct {
	Kind   ValueKind
	Str    string
	I32    int32
	F64    float64
	Bool   bool
	Array  []Value
	Object map[string]Value
}

func Empty() Value               { return Value{Kind: KindEmpty} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func I32(i int32) Value          { return Value{Kind: KindI32, I32: i} }
func F64(f float64) Value        { return Value{Kind: KindF64, F64: f} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Array(vs []Value) Value     { return Value{Kind: KindArray, Array: vs} }
func Object(m map[string]Value) Value { return Value{Kind: KindObject, Object: m} }

// FromAny lifts a loosely-typed Go value, as decoded from JSON ingestion,
// into the tagged Value sum.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Empty()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return I32(int32(t))
	case int32:
		return I32(t)
	case int64:
		return F64(float64(t))
	case float32:
		return F64(float64(t))
	case float64:
		// JSON numbers decode as float64; keep integral-looking values as
		// F64 too, since I32 and F64 only differ at the type level and
		// ingestion does not carry that distinction.
		return F64(t)
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Array(arr)
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = FromAny(e)
		}
		return Object(obj)
	default:
		return Empty()
	}
}

// ToAny lowers a Value back to a loosely-typed Go value for API responses.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindI32:
		return v.I32
	case KindF64:
		return v.F64
	case KindBool:
		return v.Bool
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Object))
		for k, e := range v.Object {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// EncodeValue serializes a Value to its compact binary form.
func EncodeValue(v Value) []byte {
	buf := make([]byte, 0, 16)
	buf = appendValue(buf, v)
	return buf
}

func appendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindEmpty:
		// no payload
	case KindString:
		buf = appendLenString(buf, v.Str)
	case KindI32:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(v.I32))
		buf = append(buf, tmp[:]...)
	case KindF64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.F64))
		buf = append(buf, tmp[:]...)
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindArray:
		buf = appendUvarint(buf, uint64(len(v.Array)))
		for _, e := range v.Array {
			buf = appendValue(buf, e)
		}
	case KindObject:
		buf = appendUvarint(buf, uint64(len(v.Object)))
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sortStrings(keys)
		for _, k := range keys {
			buf = appendLenString(buf, k)
			buf = appendValue(buf, v.Object[k])
		}
	}
	return buf
}

// DecodeValue deserializes the binary form produced by EncodeValue.
func DecodeValue(b []byte) (Value, error) {
	v, rest, err := readValue(b)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, herr.Decode(errTrailingBytes)
	}
	return v, nil
}

func readValue(b []byte) (Value, []byte, error) {
	if len(b) == 0 {
		return Value{}, nil, herr.Decode(errTruncated)
	}
	kind := ValueKind(b[0])
	b = b[1:]
	switch kind {
	case KindEmpty:
		return Empty(), b, nil
	case KindString:
		s, rest, err := readLenString(b)
		if err != nil {
			return Value{}, nil, err
		}
		return String(s), rest, nil
	case KindI32:
		if len(b) < 4 {
			return Value{}, nil, herr.Decode(errTruncated)
		}
		return I32(int32(binary.BigEndian.Uint32(b[:4]))), b[4:], nil
	case KindF64:
		if len(b) < 8 {
			return Value{}, nil, herr.Decode(errTruncated)
		}
		return F64(math.Float64frombits(binary.BigEndian.Uint64(b[:8]))), b[8:], nil
	case KindBool:
		if len(b) < 1 {
			return Value{}, nil, herr.Decode(errTruncated)
		}
		return Bool(b[0] != 0), b[1:], nil
	case KindArray:
		n, rest, err := readUvarint(b)
		if err != nil {
			return Value{}, nil, err
		}
		arr := make([]Value, n)
		for i := uint64(0); i < n; i++ {
			var elem Value
			elem, rest, err = readValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			arr[i] = elem
		}
		return Array(arr), rest, nil
	case KindObject:
		n, rest, err := readUvarint(b)
		if err != nil {
			return Value{}, nil, err
		}
		obj := make(map[string]Value, n)
		for i := uint64(0); i < n; i++ {
			var key string
			key, rest, err = readLenString(rest)
			if err != nil {
				return Value{}, nil, err
			}
			var elem Value
			elem, rest, err = readValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			obj[key] = elem
		}
		return Object(obj), rest, nil
	default:
		return Value{}, nil, herr.Decode(errUnknownKind)
	}
}

func appendLenString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readLenString(b []byte) (string, []byte, error) {
	n, rest, err := readUvarint(b)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < n {
		return "", nil, herr.Decode(errTruncated)
	}
	return string(rest[:n]), rest[n:], nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, herr.Decode(errTruncated)
	}
	return v, b[n:], nil
}

func sortStrings(s []string) {
	// small insertion sort: property maps rarely exceed a few dozen keys
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

type codecError string

func (e codecError) Error() string { return string(e) }

const (
	errTruncated      = codecError("value truncated")
	errTrailingBytes   = codecError("trailing bytes after value")
	errUnknownKind     = codecError("unknown value kind")
)
