package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_blob_store.go -package=mocks clarify/internal/storage BlobStore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBlobNotFound is returned when a key has never been written.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrRevisionConflict is returned when a write's expected revision does not
	// match the stored one. No write of the batch has been applied.
	ErrRevisionConflict = errors.New("blob revision conflict")
)

// Blob is a named text record in the persistence substrate.
type Blob struct {
	Key       string
	Value     string
	Revision  int64 // 0 is never stored; first write yields 1
	UpdatedAt time.Time
}

// BlobWrite is a compare-and-swap write of one blob.
// ExpectedRevision 0 means the key must not exist yet.
type BlobWrite struct {
	Key              string
	Value            string
	ExpectedRevision int64
}

// BlobStore defines the interface for named text blob storage.
type BlobStore interface {
	// Read returns the blob stored under key, or ErrBlobNotFound.
	Read(ctx context.Context, key string) (Blob, error)
	// Write applies all writes atomically, or none of them.
	// Returns an error wrapping ErrRevisionConflict when any expected revision is stale.
	Write(ctx context.Context, writes ...BlobWrite) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

func validateWrites(writes []BlobWrite) error {
	if len(writes) == 0 {
		return fmt.Errorf("no writes given")
	}
	seen := make(map[string]struct{}, len(writes))
	for _, w := range writes {
		if w.Key == "" {
			return fmt.Errorf("blob key cannot be empty")
		}
		if w.ExpectedRevision < 0 {
			return fmt.Errorf("negative expected revision for key %s", w.Key)
		}
		if _, dup := seen[w.Key]; dup {
			return fmt.Errorf("duplicate write for key %s", w.Key)
		}
		seen[w.Key] = struct{}{}
	}
	return nil
}

func conflictError(key string, expected, actual int64) error {
	return fmt.Errorf("%w: key %s expected revision %d, found %d", ErrRevisionConflict, key, expected, actual)
}
