package service

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("resource not found")
	ErrMissingPayload  = errors.New("file is required")
	ErrPayloadTooLarge = errors.New("file exceeds the maximum upload size")
)

// IntegrityKind classifies why a stored payload could not be served.
type IntegrityKind string

const (
	DataMissing   IntegrityKind = "data_missing"
	InvalidFormat IntegrityKind = "invalid_format"
	DecodeFailure IntegrityKind = "decode_failure"
)

// DataIntegrityError reports a stored record whose payload is absent or
// corrupt. It never carries the payload itself.
type DataIntegrityError struct {
	ID   string
	Kind IntegrityKind
	Err  error
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource %s: %s: %v", e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("resource %s: %s", e.ID, e.Kind)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// StorageError wraps a failed key-value store call.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
