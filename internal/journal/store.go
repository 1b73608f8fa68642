// Package journal implements the versioned journal store: entries plus a
// bounded history of their prior versions, kept in two named blobs of a
// storage.BlobStore.
//
// Reads are fail-soft: a table that cannot be read or parsed is treated as
// empty and the result is tagged Recovered. Writes are serialised in-process
// and committed with compare-and-swap on the blob revisions that were read,
// so a concurrent writer in another process surfaces as ErrConflict instead of
// a lost update.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clarify/internal/contextutil"
	"clarify/internal/metrics"
	"clarify/internal/storage"
)

// DefaultNamespace prefixes the blob keys of the entries and history tables.
const DefaultNamespace = "clarify_journal"

const (
	tableEntries = "entries"
	tableHistory = "history"

	maxIDAttempts = 3
)

// ErrConflict is returned when another writer changed the journal between
// this store's read and its write. Nothing was written; the caller may retry.
var ErrConflict = errors.New("journal was modified concurrently")

// Option configures a Store.
type Option func(*Store)

// WithNamespace sets the key namespace. Tables are stored under
// "<ns>_entries" and "<ns>_history".
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.entriesKey = ns + "_" + tableEntries
			s.historyKey = ns + "_" + tableHistory
		}
	}
}

// WithHistoryLimit sets how many prior versions are kept per entry.
// Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the entry id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store is the journal store.
type Store struct {
	blobs        storage.BlobStore
	entriesKey   string
	historyKey   string
	historyLimit int
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger
	metrics      *metrics.Metrics

	// mu makes this process a single writer of both tables.
	mu sync.Mutex
}

// New creates a Store on top of the given blob backend.
func New(blobs storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:        blobs,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       slog.Default(),
	}
	WithNamespace(DefaultNamespace)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the blob keys of the entries and history tables.
func (s *Store) Keys() (entriesKey, historyKey string) {
	return s.entriesKey, s.historyKey
}

// HistoryLimit returns the per-entry retention bound.
func (s *Store) HistoryLimit() int {
	return s.historyLimit
}

// table is one decoded blob plus the revision it was read at.
type table[T any] struct {
	rows      []T
	revision  int64
	recovered bool
}

// loadTable reads and decodes the blob under key. A missing blob is an empty
// table. An undecodable blob is an empty table marked recovered, keeping its
// revision so the next write replaces it. Backend errors are returned.
func loadTable[T any](ctx context.Context, s *Store, name, key string) (table[T], error) {
	blob, err := s.blobs.Read(ctx, key)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return table[T]{rows: []T{}}, nil
	}
	if err != nil {
		return table[T]{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var rows []T
	if err := json.Unmarshal([]byte(blob.Value), &rows); err != nil {
		s.log(ctx).WarnContext(ctx, "journal table is corrupt, using empty baseline",
			"table", name, "key", key, "revision", blob.Revision, "error", err)
		s.metrics.RecordRecovery(name)
		return table[T]{rows: []T{}, revision: blob.Revision, recovered: true}, nil
	}
	if rows == nil {
		rows = []T{}
	}
	return table[T]{rows: rows, revision: blob.Revision}, nil
}

// loadSoft is loadTable for pure read paths: backend errors become an empty,
// recovered table.
func loadSoft[T any](ctx context.Context, s *Store, name, key string) table[T] {
	t, err := loadTable[T](ctx, s, name, key)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "journal table unreadable, using empty baseline",
			"table", name, "key", key, "error", err)
		s.metrics.RecordRecovery(name)
		return table[T]{rows: []T{}, recovered: true}
	}
	return t
}

func (s *Store) loadEntries(ctx context.Context) (table[Entry], error) {
	t, err := loadTable[Entry](ctx, s, tableEntries, s.entriesKey)
	if err != nil {
		return t, err
	}
	for i := range t.rows {
		t.rows[i] = normalizeEntry(t.rows[i])
	}
	return t, nil
}

func (s *Store) loadHistory(ctx context.Context) (table[HistoryRecord], error) {
	t, err := loadTable[HistoryRecord](ctx, s, tableHistory, s.historyKey)
	if err != nil {
		return t, err
	}
	for i := range t.rows {
		t.rows[i] = normalizeRecord(t.rows[i])
	}
	return t, nil
}

func encodeWrite[T any](key string, rows []T, expected int64) (storage.BlobWrite, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return storage.BlobWrite{}, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return storage.BlobWrite{Key: key, Value: string(data), ExpectedRevision: expected}, nil
}

func (s *Store) commit(ctx context.Context, writes ...storage.BlobWrite) error {
	if err := s.blobs.Write(ctx, writes...); err != nil {
		if errors.Is(err, storage.ErrRevisionConflict) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return fmt.Errorf("failed to persist journal: %w", err)
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

func (s *Store) list(ctx context.Context) EntryList {
	t := loadSoft[Entry](ctx, s, tableEntries, s.entriesKey)
	for i := range t.rows {
		t.rows[i] = normalizeEntry(t.rows[i])
	}
	return EntryList{Entries: t.rows, Recovered: t.recovered}
}

// List returns all entries, most recently created first.
func (s *Store) List(ctx context.Context) EntryList {
	s.metrics.RecordOperation("list", nil)
	return s.list(ctx)
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, bool) {
	s.metrics.RecordOperation("get", nil)
	for _, e := range s.list(ctx).Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Create stores a new entry at the front of the collection. Content is not
// validated here.
func (s *Store) Create(ctx context.Context, in EntryInput) (entry Entry, err error) {
	defer func() { s.metrics.RecordOperation("create", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return Entry{}, err
	}

	id, err := s.allocateID(entries.rows)
	if err != nil {
		return Entry{}, err
	}

	now := s.timestamp()
	entry = Entry{
		ID:             id,
		Title:          in.Title,
		Content:        in.Content,
		Assumptions:    cloneStrings(in.Assumptions),
		Uncertainties:  cloneStrings(in.Uncertainties),
		KeyQuestion:    in.KeyQuestion,
		RelatedTopicID: in.RelatedTopicID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	rows := make([]Entry, 0, len(entries.rows)+1)
	rows = append(rows, entry)
	rows = append(rows, entries.rows...)

	w, err := encodeWrite(s.entriesKey, rows, entries.revision)
	if err != nil {
		return Entry{}, err
	}
	if err := s.commit(ctx, w); err != nil {
		return Entry{}, err
	}

	s.log(ctx).InfoContext(ctx, "journal entry created", "entry_id", entry.ID, "entries", len(rows))
	return entry, nil
}

func (s *Store) allocateID(existing []Entry) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if _, dup := taken[id]; id != "" && !dup {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique entry id after %d attempts", maxIDAttempts)
}

// Update snapshots the current state of the entry into history, merges the
// patch, bumps updatedAt and version, applies retention and persists both
// tables atomically. The bool is false when no entry has the given id; in
// that case nothing is written.
func (s *Store) Update(ctx context.Context, id string, patch EntryPatch) (updated Entry, found bool, err error) {
	defer func() { s.metrics.RecordOperation("update", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return Entry{}, false, err
	}

	index := -1
	for i, e := range entries.rows {
		if e.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return Entry{}, false, nil
	}

	history, err := s.loadHistory(ctx)
	if err != nil {
		return Entry{}, false, err
	}

	now := s.timestamp()
	current := entries.rows[index]
	// A wall clock stepped backwards must not put updatedAt before createdAt.
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}

	// Snapshot before merging: history always holds pre-images.
	records := append(history.rows, snapshot(current, now))
	records, pruned := applyRetention(records, s.historyLimit)

	updated = patch.apply(current)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = now
	updated.Version = current.Version + 1
	entries.rows[index] = updated

	historyWrite, err := encodeWrite(s.historyKey, records, history.revision)
	if err != nil {
		return Entry{}, false, err
	}
	entriesWrite, err := encodeWrite(s.entriesKey, entries.rows, entries.revision)
	if err != nil {
		return Entry{}, false, err
	}
	if err := s.commit(ctx, historyWrite, entriesWrite); err != nil {
		return Entry{}, false, err
	}

	s.metrics.RecordPruned(pruned)
	s.log(ctx).InfoContext(ctx, "journal entry updated",
		"entry_id", id, "version", updated.Version, "history_pruned", pruned)
	return updated, true, nil
}

// Delete removes the entry with the given id. It reports whether an entry was
// removed. History records of the entry are kept.
func (s *Store) Delete(ctx context.Context, id string) (removed bool, err error) {
	defer func() { s.metrics.RecordOperation("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return false, err
	}

	filtered := make([]Entry, 0, len(entries.rows))
	for _, e := range entries.rows {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == len(entries.rows) {
		return false, nil
	}

	w, err := encodeWrite(s.entriesKey, filtered, entries.revision)
	if err != nil {
		return false, err
	}
	if err := s.commit(ctx, w); err != nil {
		return false, err
	}

	s.log(ctx).InfoContext(ctx, "journal entry deleted", "entry_id", id)
	return true, nil
}

// GetHistory returns the history records of an entry, most recent prior
// version first. Records of deleted entries are still returned.
func (s *Store) GetHistory(ctx context.Context, entryID string) HistoryList {
	s.metrics.RecordOperation("history", nil)

	t := loadSoft[HistoryRecord](ctx, s, tableHistory, s.historyKey)
	records := make([]HistoryRecord, 0)
	for _, h := range t.rows {
		if h.EntryID == entryID {
			records = append(records, normalizeRecord(h))
		}
	}
	sortByVersionDesc(records)
	return HistoryList{Records: records, Recovered: t.recovered}
}
