// Package related finds journal entries that are semantically close to each
// other by embedding their text into a vector collection.
package related

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clarify/internal/contextutil"
	"clarify/internal/journal"
	"clarify/internal/vectorstore"
)

const (
	payloadEntryID = "entry_id"
	payloadTitle   = "title"
)

// pointNamespace derives stable point ids for entry ids that are not UUIDs,
// such as ids carried over from an import.
var pointNamespace = uuid.MustParse("8f0b7c52-3c1e-4a8e-9a4d-2f6f0f3b1c7e")

// Embedder turns text into a vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Match is an entry similar to the queried one.
type Match struct {
	EntryID string
	Score   float32
}

// Index keeps one vector point per journal entry.
type Index struct {
	store      vectorstore.VectorStore
	embedder   Embedder
	collection string
}

// NewIndex creates an Index over the given collection.
func NewIndex(store vectorstore.VectorStore, embedder Embedder, collection string) *Index {
	return &Index{
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// PointID maps an entry id to its vector point id.
func PointID(entryID string) string {
	if id, err := uuid.Parse(entryID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(entryID)).String()
}

// Text is the text embedded for an entry.
func Text(e journal.Entry) string {
	parts := make([]string, 0, 4)
	if t := strings.TrimSpace(e.Title); t != "" {
		parts = append(parts, t)
	}
	if c := strings.TrimSpace(e.Content); c != "" {
		parts = append(parts, c)
	}
	if len(e.Assumptions) > 0 {
		parts = append(parts, "Assumptions: "+strings.Join(e.Assumptions, "; "))
	}
	if len(e.Uncertainties) > 0 {
		parts = append(parts, "Uncertainties: "+strings.Join(e.Uncertainties, "; "))
	}
	return strings.Join(parts, "\n\n")
}

// IndexEntry embeds the entry and upserts its point. Entries without text are
// removed from the index instead.
func (i *Index) IndexEntry(ctx context.Context, e journal.Entry) error {
	text := Text(e)
	if text == "" {
		return i.RemoveEntry(ctx, e.ID)
	}

	vec, err := i.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed entry %s: %w", e.ID, err)
	}

	point := vectorstore.Point{
		ID:  PointID(e.ID),
		Vec: vec,
		Meta: map[string]any{
			payloadEntryID: e.ID,
			payloadTitle:   e.Title,
		},
	}
	if err := i.store.Upsert(ctx, i.collection, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("failed to index entry %s: %w", e.ID, err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "entry indexed", "entry_id", e.ID, "point_id", point.ID)
	return nil
}

// RemoveEntry deletes the entry's point.
func (i *Index) RemoveEntry(ctx context.Context, entryID string) error {
	if err := i.store.Delete(ctx, i.collection, []string{PointID(entryID)}); err != nil {
		return fmt.Errorf("failed to remove entry %s from index: %w", entryID, err)
	}
	return nil
}

// Similar returns up to k entries closest to e, excluding e itself.
func (i *Index) Similar(ctx context.Context, e journal.Entry, k int) ([]Match, error) {
	text := Text(e)
	if text == "" {
		return []Match{}, nil
	}

	vec, err := i.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed entry %s: %w", e.ID, err)
	}

	results, err := i.store.Search(ctx, i.collection, vec, k, vectorstore.SearchOptions{
		ExcludeIDs: []string{PointID(e.ID)},
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		entryID, _ := r.Meta[payloadEntryID].(string)
		if entryID == "" || entryID == e.ID {
			continue
		}
		matches = append(matches, Match{EntryID: entryID, Score: r.Score})
	}
	return matches, nil
}

// Ping checks that the collection is reachable.
func (i *Index) Ping(ctx context.Context) error {
	exists, err := i.store.CollectionExists(ctx, i.collection)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("collection %s does not exist", i.collection)
	}
	return nil
}
