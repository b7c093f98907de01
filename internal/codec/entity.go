package codec

import "github.com/helixdb/helix/internal/herr"

// NodeRecord is the on-disk payload for a node. The id itself is stripped
// (it lives in the key) and restored on decode.
type NodeRecord struct {
	Label      string
	Properties map[string]Value
}

// EdgeRecord is the on-disk payload for an edge.
type EdgeRecord struct {
	Label      string
	From       ID
	To         ID
	Properties map[string]Value
}

// EncodeNode serializes a NodeRecord to the compact binary form.
func EncodeNode(n NodeRecord) []byte {
	buf := appendLenString(nil, n.Label)
	buf = appendValue(buf, Object(n.Properties))
	return buf
}

// DecodeNode deserializes a NodeRecord.
func DecodeNode(b []byte) (NodeRecord, error) {
	label, rest, err := readLenString(b)
	if err != nil {
		return NodeRecord{}, err
	}
	props, rest, err := readValue(rest)
	if err != nil {
		return NodeRecord{}, err
	}
	if len(rest) != 0 {
		return NodeRecord{}, herr.Decode(errTrailingBytes)
	}
	return NodeRecord{Label: label, Properties: props.Object}, nil
}

// EncodeEdge serializes an EdgeRecord to the compact binary form.
func EncodeEdge(e EdgeRecord) []byte {
	buf := appendLenString(nil, e.Label)
	buf = append(buf, e.From[:]...)
	buf = append(buf, e.To[:]...)
	buf = appendValue(buf, Object(e.Properties))
	return buf
}

// DecodeEdge deserializes an EdgeRecord.
func DecodeEdge(b []byte) (EdgeRecord, error) {
	label, rest, err := readLenString(b)
	if err != nil {
		return EdgeRecord{}, err
	}
	if len(rest) < 32 {
		return EdgeRecord{}, herr.Decode(errTruncated)
	}
	var from, to ID
	copy(from[:], rest[:16])
	copy(to[:], rest[16:32])
	rest = rest[32:]
	props, rest, err := readValue(rest)
	if err != nil {
		return EdgeRecord{}, err
	}
	if len(rest) != 0 {
		return EdgeRecord{}, herr.Decode(errTrailingBytes)
	}
	return EdgeRecord{Label: label, From: from, To: to, Properties: props.Object}, nil
}
