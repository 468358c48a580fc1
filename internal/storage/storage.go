// Package storage contains the blob persistence abstraction for biometric and
// document assets. Objects live in an S3-compatible store under one bucket
// per UIN, keyed <kind>/<docType>/<value>.<format>. Writes are atomic per
// object with overwrite semantics; versioning is the history ledger's job,
// not this layer's.
package storage

import "context"

// Object is one stored blob with its content loaded.
type Object struct {
	Key  string
	Data []byte
}

// BlobStore persists binary assets scoped under a per-UIN container.
// No retry logic is provided here; callers own retries and deadlines.
type BlobStore interface {
	// EnsureContainer creates the UIN's container if it does not exist yet.
	// Idempotent.
	EnsureContainer(ctx context.Context, uin string) error

	// Put ensures the container and writes the object, overwriting any
	// previous content under the same key.
	Put(ctx context.Context, uin, key string, data []byte) error

	// List enumerates the objects in the UIN's container whose key starts
	// with prefix (case-insensitive), fetching the content of each. The
	// enumeration is finite and restartable; re-listing re-reads current
	// state.
	List(ctx context.Context, uin, prefix string) ([]Object, error)
}
