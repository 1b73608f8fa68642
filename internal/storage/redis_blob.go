package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisFieldValue     = "value"
	redisFieldRevision  = "revision"
	redisFieldUpdatedAt = "updated_at"
)

// RedisBlobStore implements BlobStore with one Redis hash per blob.
// Batches use WATCH/MULTI/EXEC, so a concurrent writer aborts the batch.
type RedisBlobStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisBlobStore creates a new RedisBlobStore.
func NewRedisBlobStore(client *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{client: client, now: time.Now}
}

// Read returns the blob stored under key.
func (s *RedisBlobStore) Read(ctx context.Context, key string) (Blob, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Blob{}, fmt.Errorf("failed to read blob: %w", err)
	}
	if len(fields) == 0 {
		return Blob{}, ErrBlobNotFound
	}

	revision, err := strconv.ParseInt(fields[redisFieldRevision], 10, 64)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to parse revision of %s: %w", key, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[redisFieldUpdatedAt])
	if err != nil {
		return Blob{}, fmt.Errorf("failed to parse updated_at of %s: %w", key, err)
	}

	return Blob{
		Key:       key,
		Value:     fields[redisFieldValue],
		Revision:  revision,
		UpdatedAt: updatedAt,
	}, nil
}

// Write applies all writes in one optimistic transaction.
func (s *RedisBlobStore) Write(ctx context.Context, writes ...BlobWrite) error {
	if err := validateWrites(writes); err != nil {
		return err
	}

	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	txf := func(tx *redis.Tx) error {
		for _, w := range writes {
			current, err := tx.HGet(ctx, w.Key, redisFieldRevision).Int64()
			if errors.Is(err, redis.Nil) {
				current = 0
			} else if err != nil {
				return fmt.Errorf("failed to read revision for %s: %w", w.Key, err)
			}
			if current != w.ExpectedRevision {
				return conflictError(w.Key, w.ExpectedRevision, current)
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				pipe.HSet(ctx, w.Key,
					redisFieldValue, w.Value,
					redisFieldRevision, w.ExpectedRevision+1,
					redisFieldUpdatedAt, updatedAt,
				)
			}
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write to %v", ErrRevisionConflict, keys)
	}
	return err
}

// Ping checks the Redis connection.
func (s *RedisBlobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
