// Package kv defines the key-value persistence contract resources are stored
// through. Values are JSON documents; implementations live in sub-packages
// (sqlstore, miniostore) and in Memory for tests and local runs.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Entry is a single key-value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Store is the persistence contract. Each call is a single attempt; callers
// decide whether to surface or retry failures. Each single operation is
// atomic per key.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (json.RawMessage, error)
	// Set creates or replaces the value under key.
	Set(ctx context.Context, key string, value json.RawMessage) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// GetByPrefix returns every entry whose key starts with prefix, in no particular order.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
