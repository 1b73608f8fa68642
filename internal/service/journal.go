package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_journal_store.go -package=mocks clarify/internal/service JournalStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_related_index.go -package=mocks clarify/internal/service RelatedIndex
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_journal_service.go -package=mocks clarify/internal/service JournalService

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"clarify/internal/contextutil"
	"clarify/internal/journal"
	"clarify/internal/related"
)

// DefaultRelatedLimit is the number of related entries returned when the
// caller does not ask for a specific number.
const DefaultRelatedLimit = 5

// JournalStore is the persistence the journal service builds on.
type JournalStore interface {
	List(ctx context.Context) journal.EntryList
	Get(ctx context.Context, id string) (journal.Entry, bool)
	Create(ctx context.Context, in journal.EntryInput) (journal.Entry, error)
	Update(ctx context.Context, id string, patch journal.EntryPatch) (journal.Entry, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	GetHistory(ctx context.Context, entryID string) journal.HistoryList
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, blob []byte) (journal.ImportResult, error)
}

// RelatedIndex keeps a semantic index of entries.
type RelatedIndex interface {
	IndexEntry(ctx context.Context, e journal.Entry) error
	RemoveEntry(ctx context.Context, entryID string) error
	Similar(ctx context.Context, e journal.Entry, k int) ([]related.Match, error)
}

// RelatedEntry is an entry similar to another one.
type RelatedEntry struct {
	Entry journal.Entry `json:"entry"`
	Score float32       `json:"score"`
}

// JournalService exposes journal operations with validation and error kinds
// suited to callers such as HTTP handlers.
type JournalService interface {
	List(ctx context.Context) journal.EntryList
	Get(ctx context.Context, id string) (journal.Entry, error)
	Create(ctx context.Context, in journal.EntryInput) (journal.Entry, error)
	Update(ctx context.Context, id string, patch journal.EntryPatch) (journal.Entry, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) journal.HistoryList
	Related(ctx context.Context, id string, k int) ([]RelatedEntry, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, blob []byte) (journal.ImportResult, error)
	Reindex(ctx context.Context) (int, error)
}

type journalService struct {
	store   JournalStore
	related RelatedIndex
	logger  *slog.Logger
}

// NewJournalService creates a JournalService. index may be nil, which
// disables related entries.
func NewJournalService(store JournalStore, index RelatedIndex) JournalService {
	return &journalService{
		store:   store,
		related: index,
		logger:  slog.Default(),
	}
}

func (s *journalService) log(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Message: "cannot be empty"}
	}
	return nil
}

// storeError classifies errors coming back from the journal store.
func storeError(err error, msg string) error {
	if errors.Is(err, journal.ErrConflict) {
		return wrapKind(ErrConflict, err, msg)
	}
	return WrapError(err, msg)
}

func (s *journalService) List(ctx context.Context) journal.EntryList {
	list := s.store.List(ctx)
	if list.Recovered {
		s.log(ctx).WarnContext(ctx, "journal entries recovered from unreadable storage")
	}
	return list
}

func (s *journalService) Get(ctx context.Context, id string) (journal.Entry, error) {
	entry, ok := s.store.Get(ctx, id)
	if !ok {
		return journal.Entry{}, ErrNotFound
	}
	return entry, nil
}

func (s *journalService) Create(ctx context.Context, in journal.EntryInput) (journal.Entry, error) {
	if err := validateContent(in.Content); err != nil {
		return journal.Entry{}, err
	}

	entry, err := s.store.Create(ctx, in)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to create entry", "error", err)
		return journal.Entry{}, storeError(err, "failed to create entry")
	}

	s.index(ctx, entry)
	return entry, nil
}

// Update applies the patch. Content, when patched, must not be blank.
func (s *journalService) Update(ctx context.Context, id string, patch journal.EntryPatch) (journal.Entry, error) {
	if patch.Content != nil {
		if err := validateContent(*patch.Content); err != nil {
			return journal.Entry{}, err
		}
	}

	entry, found, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to update entry", "entry_id", id, "error", err)
		return journal.Entry{}, storeError(err, "failed to update entry")
	}
	if !found {
		return journal.Entry{}, ErrNotFound
	}

	// An empty patch only bumps the version; the indexed text is unchanged.
	if !patch.IsEmpty() {
		s.index(ctx, entry)
	}
	return entry, nil
}

func (s *journalService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to delete entry", "entry_id", id, "error", err)
		return storeError(err, "failed to delete entry")
	}
	if !removed {
		return ErrNotFound
	}

	if s.related != nil {
		if err := s.related.RemoveEntry(ctx, id); err != nil {
			s.log(ctx).WarnContext(ctx, "failed to remove entry from related index", "entry_id", id, "error", err)
		}
	}
	return nil
}

func (s *journalService) History(ctx context.Context, id string) journal.HistoryList {
	history := s.store.GetHistory(ctx, id)
	if history.Recovered {
		s.log(ctx).WarnContext(ctx, "journal history recovered from unreadable storage", "entry_id", id)
	}
	return history
}

// Related returns up to k entries similar to the given one, most similar
// first. Matches whose entry no longer exists are skipped.
func (s *journalService) Related(ctx context.Context, id string, k int) ([]RelatedEntry, error) {
	if s.related == nil {
		return nil, ErrNotConfigured
	}
	if k <= 0 {
		k = DefaultRelatedLimit
	}

	entry, ok := s.store.Get(ctx, id)
	if !ok {
		return nil, ErrNotFound
	}

	matches, err := s.related.Similar(ctx, entry, k)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to find related entries", "entry_id", id, "error", err)
		return nil, wrapKind(ErrExternalService, err, "failed to find related entries")
	}

	byID := make(map[string]journal.Entry)
	for _, e := range s.store.List(ctx).Entries {
		byID[e.ID] = e
	}

	out := make([]RelatedEntry, 0, len(matches))
	for _, m := range matches {
		if e, ok := byID[m.EntryID]; ok {
			out = append(out, RelatedEntry{Entry: e, Score: m.Score})
		}
	}
	return out, nil
}

func (s *journalService) Export(ctx context.Context) ([]byte, error) {
	data, err := s.store.Export(ctx)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to export journal", "error", err)
		return nil, WrapError(err, "failed to export journal")
	}
	return data, nil
}

// Import replaces the journal. A rejected blob is reported through the
// result, not as an error. Imported entries are reindexed best-effort.
func (s *journalService) Import(ctx context.Context, blob []byte) (journal.ImportResult, error) {
	result, err := s.store.Import(ctx, blob)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to import journal", "error", err)
		return journal.ImportResult{}, storeError(err, "failed to import journal")
	}
	if result.Success && s.related != nil {
		if _, err := s.Reindex(ctx); err != nil {
			s.log(ctx).WarnContext(ctx, "failed to reindex imported entries", "error", err)
		}
	}
	return result, nil
}

// Reindex indexes every entry and returns how many were indexed. It keeps
// going past individual failures and returns the first one.
func (s *journalService) Reindex(ctx context.Context) (int, error) {
	if s.related == nil {
		return 0, ErrNotConfigured
	}

	var firstErr error
	indexed := 0
	for _, e := range s.store.List(ctx).Entries {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := s.related.IndexEntry(ctx, e); err != nil {
			if firstErr == nil {
				firstErr = wrapKind(ErrExternalService, err, "failed to index entry")
			}
			continue
		}
		indexed++
	}

	s.log(ctx).InfoContext(ctx, "related index rebuilt", "indexed", indexed)
	return indexed, firstErr
}

// index keeps the related index in step with a written entry. Failures are
// logged and never fail the journal write.
func (s *journalService) index(ctx context.Context, e journal.Entry) {
	if s.related == nil {
		return
	}
	if err := s.related.IndexEntry(ctx, e); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to index entry", "entry_id", e.ID, "error", err)
	}
}
