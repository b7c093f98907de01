// Package herr defines the sentinel error kinds shared across HelixDB's
// storage, vector, text-search, and traversal layers.
//
// Every failure in the engine is one of the kinds below, optionally wrapped
// with %w to attach the triggering id or key. Callers use errors.Is against
// these sentinels rather than matching on message text.
package herr

import (
	"errors"
	"fmt"
)

var (
	ErrIO                      = errors.New("io error")
	ErrStorage                 = errors.New("storage error")
	ErrDecode                  = errors.New("decode error")
	ErrConversion              = errors.New("conversion error")
	ErrNodeNotFound            = errors.New("node not found")
	ErrEdgeNotFound            = errors.New("edge not found")
	ErrLabelNotFound           = errors.New("label not found")
	ErrTraversal               = errors.New("traversal error")
	ErrVectorNotFound          = errors.New("vector not found")
	ErrInvalidLength           = errors.New("invalid vector length")
	ErrInvalidData             = errors.New("invalid vector data")
	ErrEntryPointNotFound      = errors.New("entry point not found")
	ErrShortestPathNotFound    = errors.New("shortest path not found")
	ErrMultipleNodesWithSameID = errors.New("multiple nodes with same id")
	ErrEmpty                   = errors.New("empty")
	ErrConfigFileNotFound      = errors.New("config file not found")
)

// NodeNotFound wraps ErrNodeNotFound with the offending id.
func NodeNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// EdgeNotFound wraps ErrEdgeNotFound with the offending id.
func EdgeNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
}

// LabelNotFound wraps ErrLabelNotFound with the offending label.
func LabelNotFound(label string) error {
	return fmt.Errorf("%w: %s", ErrLabelNotFound, label)
}

// Storage wraps an underlying KV primitive error as ErrStorage.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// Decode wraps a codec failure as ErrDecode.
func Decode(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}

// VectorNotFound wraps ErrVectorNotFound with the offending id.
func VectorNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrVectorNotFound, id)
}
