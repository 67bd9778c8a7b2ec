// Package store defines the key-value persistence layer shared by every service.
//
// Values are JSON documents. Every read-modify-write a service performs runs
// inside a single Update transaction, so a mutation of one or more collections
// is applied atomically.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Txn.Get when the key has never been set or was deleted.
var ErrKeyNotFound = errors.New("key not found")

// KV is a transactional key-value store of JSON-encoded values.
type KV interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error
	// Update runs fn in a read-write transaction. The transaction is
	// committed when fn returns nil and discarded otherwise.
	Update(ctx context.Context, fn func(Txn) error) error
	// Close releases the underlying database.
	Close() error
}

// Txn is a view of the store inside one transaction.
type Txn interface {
	// Get decodes the value stored at key into dest, or returns ErrKeyNotFound.
	Get(key string, dest any) error
	// Set encodes value and stores it at key, replacing any previous value.
	Set(key string, value any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
