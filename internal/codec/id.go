// Package codec implements the fixed-layout key encoding and property
// serialization of the storage layer, plus the canonical id mapping
// between UUID strings and the big-endian 16-byte integers used for
// byte-ordered key scans.
package codec

import (
	"github.com/google/uuid"

	"github.com/helixdb/helix/internal/herr"
)

// ID is a 128-bit identifier stored as a big-endian byte array so that
// lexicographic key ordering matches numeric/time ordering for v6 UUIDs.
type ID [16]byte

// NewID generates a time-ordered (v6) id for good key locality.
func NewID() ID {
	u, err := uuid.NewV6()
	if err != nil {
		// NewV6 only fails if the global uuid clock sequence can't be
		// read; fall back to a random v4 rather than panic.
		u = uuid.New()
	}
	return ID(u)
}

// ParseID parses the canonical RFC 4122 hex-with-hyphens representation.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, herr.Decode(err)
	}
	return ID(u), nil
}

// String renders the canonical RFC 4122 hex-with-hyphens representation.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the big-endian 16-byte wire form used in keys.
func (id ID) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	return b
}

// IDFromBytes reconstructs an ID from a 16-byte big-endian slice.
func IDFromBytes(b []byte) (ID, error) {
	if len(b) != 16 {
		return ID{}, herr.Decode(errInvalidIDLength)
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

var errInvalidIDLength = idLengthError{}

type idLengthError struct{}

func (idLengthError) Error() string { return "id must be exactly 16 bytes" }
