package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBlobStore implements BlobStore on the blobs table.
type SQLiteBlobStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBlobStore creates a new SQLiteBlobStore. The schema must already be migrated.
func NewSQLiteBlobStore(db *sql.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: db, now: time.Now}
}

// Read returns the blob stored under key.
func (s *SQLiteBlobStore) Read(ctx context.Context, key string) (Blob, error) {
	var b Blob
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx,
		"SELECT key, value, revision, updated_at FROM blobs WHERE key = ?",
		key,
	).Scan(&b.Key, &b.Value, &b.Revision, &updatedAtStr)

	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, ErrBlobNotFound
	}
	if err != nil {
		return Blob{}, fmt.Errorf("failed to query blob: %w", err)
	}

	b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return b, nil
}

// Write applies all writes in a single transaction.
func (s *SQLiteBlobStore) Write(ctx context.Context, writes ...BlobWrite) error {
	if err := validateWrites(writes); err != nil {
		return err
	}

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		for _, w := range writes {
			var current int64
			err := tx.QueryRowContext(ctx, "SELECT revision FROM blobs WHERE key = ?", w.Key).Scan(&current)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to read revision for %s: %w", w.Key, err)
			}
			if current != w.ExpectedRevision {
				return conflictError(w.Key, w.ExpectedRevision, current)
			}

			if current == 0 {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO blobs (key, value, revision, updated_at) VALUES (?, ?, 1, ?)",
					w.Key, w.Value, updatedAt,
				)
				if err != nil {
					return fmt.Errorf("failed to insert blob %s: %w", w.Key, err)
				}
				continue
			}

			res, err := tx.ExecContext(ctx,
				"UPDATE blobs SET value = ?, revision = revision + 1, updated_at = ? WHERE key = ? AND revision = ?",
				w.Value, updatedAt, w.Key, w.ExpectedRevision,
			)
			if err != nil {
				return fmt.Errorf("failed to update blob %s: %w", w.Key, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if affected != 1 {
				return conflictError(w.Key, w.ExpectedRevision, -1)
			}
		}
		return nil
	})
}

// Ping verifies the database connection.
func (s *SQLiteBlobStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
