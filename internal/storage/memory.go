package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryBlobStore is an in-process BlobStore. Contents are lost on exit.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string]Blob
	now   func() time.Time
}

// NewMemoryBlobStore creates an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string]Blob),
		now:   time.Now,
	}
}

// Read returns the blob stored under key.
func (s *MemoryBlobStore) Read(ctx context.Context, key string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[key]
	if !ok {
		return Blob{}, ErrBlobNotFound
	}
	return b, nil
}

// Write applies all writes atomically.
func (s *MemoryBlobStore) Write(ctx context.Context, writes ...BlobWrite) error {
	if err := validateWrites(writes); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if current := s.blobs[w.Key].Revision; current != w.ExpectedRevision {
			return conflictError(w.Key, w.ExpectedRevision, current)
		}
	}

	now := s.now().UTC()
	for _, w := range writes {
		s.blobs[w.Key] = Blob{
			Key:       w.Key,
			Value:     w.Value,
			Revision:  w.ExpectedRevision + 1,
			UpdatedAt: now,
		}
	}
	return nil
}

// Ping always succeeds.
func (s *MemoryBlobStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
