package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clarify/internal/storage"
)

// maxSnapshotAttempts bounds how often Export re-reads a journal that keeps
// changing underneath it.
const maxSnapshotAttempts = 3

// Export serialises the whole entries table and the whole history table into
// an indented JSON Snapshot. Corrupt tables export as empty; backend read
// errors are returned. Both tables come from the same committed state: if
// another writer commits between the two reads, the pair is read again, and
// ErrConflict is returned when that keeps happening.
func (s *Store) Export(ctx context.Context) (data []byte, err error) {
	defer func() { s.metrics.RecordOperation("export", err) }()

	s.mu.Lock()
	entries, history, err := s.loadConsistent(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		ExportedAt: s.timestamp(),
		Entries:    entries.rows,
		History:    history.rows,
	}
	data, err = json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "journal exported", "entries", len(snap.Entries), "history", len(snap.History))
	return data, nil
}

// loadConsistent reads both tables and checks that the entries table did not
// move while history was read. Every write replaces the entries table, so an
// unchanged entries revision means no commit landed in between.
func (s *Store) loadConsistent(ctx context.Context) (table[Entry], table[HistoryRecord], error) {
	for attempt := 0; attempt < maxSnapshotAttempts; attempt++ {
		entries, err := s.loadEntries(ctx)
		if err != nil {
			return table[Entry]{}, table[HistoryRecord]{}, err
		}
		history, err := s.loadHistory(ctx)
		if err != nil {
			return table[Entry]{}, table[HistoryRecord]{}, err
		}
		after, err := s.blobRevision(ctx, s.entriesKey)
		if err != nil {
			return table[Entry]{}, table[HistoryRecord]{}, err
		}
		if after == entries.revision {
			return entries, history, nil
		}
		s.log(ctx).DebugContext(ctx, "journal changed during export, reading again", "attempt", attempt+1)
	}
	return table[Entry]{}, table[HistoryRecord]{}, fmt.Errorf("%w: entries changed on every export attempt", ErrConflict)
}

// blobRevision returns the current revision of key, 0 when it was never written.
func (s *Store) blobRevision(ctx context.Context, key string) (int64, error) {
	blob, err := s.blobs.Read(ctx, key)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return blob.Revision, nil
}

// importDocument holds the raw tables of an import blob so their shape can be
// checked before decoding. exportedAt is informational and ignored.
type importDocument struct {
	Entries json.RawMessage `json:"entries"`
	History json.RawMessage `json:"history"`
}

// Import replaces the journal with a previously exported snapshot. The
// entries table is always replaced; the history table only when the blob
// carries a history array. A blob without a well-formed entries array, or
// with entries lacking unique ids, is rejected with Success false and nothing
// is written. The returned error is reserved for backend failures.
func (s *Store) Import(ctx context.Context, blob []byte) (result ImportResult, err error) {
	defer func() { s.metrics.RecordOperation("import", err) }()

	entries, history, ok := s.decodeImport(ctx, blob)
	if !ok {
		return ImportResult{Success: false, EntriesImported: 0}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentEntries, err := s.loadEntries(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	entriesWrite, err := encodeWrite(s.entriesKey, entries, currentEntries.revision)
	if err != nil {
		return ImportResult{}, err
	}
	writes := []storage.BlobWrite{entriesWrite}

	if history != nil {
		currentHistory, err := s.loadHistory(ctx)
		if err != nil {
			return ImportResult{}, err
		}
		historyWrite, err := encodeWrite(s.historyKey, history, currentHistory.revision)
		if err != nil {
			return ImportResult{}, err
		}
		writes = append(writes, historyWrite)
	}

	if err := s.commit(ctx, writes...); err != nil {
		return ImportResult{}, err
	}

	s.log(ctx).InfoContext(ctx, "journal imported",
		"entries", len(entries), "history_replaced", history != nil, "history", len(history))
	return ImportResult{Success: true, EntriesImported: len(entries)}, nil
}

// decodeImport validates and decodes an import blob. history is nil when the
// blob carries no history array.
func (s *Store) decodeImport(ctx context.Context, blob []byte) ([]Entry, []HistoryRecord, bool) {
	logger := s.log(ctx)

	var doc importDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		logger.WarnContext(ctx, "rejecting import: invalid JSON", "error", err)
		return nil, nil, false
	}
	if !isJSONArray(doc.Entries) {
		logger.WarnContext(ctx, "rejecting import: entries is missing or not an array")
		return nil, nil, false
	}

	var entries []Entry
	if err := json.Unmarshal(doc.Entries, &entries); err != nil {
		logger.WarnContext(ctx, "rejecting import: malformed entry", "error", err)
		return nil, nil, false
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			logger.WarnContext(ctx, "rejecting import: entry without id", "index", i)
			return nil, nil, false
		}
		if _, dup := seen[e.ID]; dup {
			logger.WarnContext(ctx, "rejecting import: duplicate entry id", "entry_id", e.ID)
			return nil, nil, false
		}
		seen[e.ID] = struct{}{}
		entries[i] = normalizeEntry(e)
	}

	var history []HistoryRecord
	if isJSONArray(doc.History) {
		if err := json.Unmarshal(doc.History, &history); err != nil {
			logger.WarnContext(ctx, "rejecting import: malformed history record", "error", err)
			return nil, nil, false
		}
		if history == nil {
			history = []HistoryRecord{}
		}
		for i := range history {
			history[i] = normalizeRecord(history[i])
		}
	}

	return entries, history, true
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
