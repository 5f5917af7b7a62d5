package victionary

import "errors"

// ErrStoreBucketMissing is returned when a collection's bucket is absent
// from the backing store.
var ErrStoreBucketMissing = errors.New("store bucket missing")

// Bucket names of the replicable collections. One bucket per collection,
// one physical row per entry, keyed by the entry's normalized key string.
const (
	bucketProperties = "properties"
	bucketColumns    = "custom_columns"
	bucketExtensions = "extensions"
)

// Store is the durable key-value backend behind the replicable collections
// (Bolt after a file, in-memory for tests).
type Store interface {
	// BeginTx starts a transaction.
	BeginTx(writable bool) (StoreTx, error)
	// Close closes the store.
	Close() error
}

// StoreTx is one store transaction.
type StoreTx interface {
	// Bucket returns a named bucket, or nil if it doesn't exist.
	Bucket(name string) StoreBucket

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. Safe to call after Commit.
	Rollback() error
}

// StoreBucket is one sorted key-value collection.
type StoreBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key; absent keys are not an error.
	Delete(key []byte) error

	// ForEach calls fn for every pair in key order, stopping on error.
	ForEach(fn func(key, value []byte) error) error
}
