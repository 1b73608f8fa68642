package journal

import "time"

// Entry is a single journal document with versioned content and reflective tags.
type Entry struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Assumptions    []string  `json:"assumptions"`
	Uncertainties  []string  `json:"uncertainties"`
	KeyQuestion    string    `json:"keyQuestion,omitempty"`
	RelatedTopicID string    `json:"relatedTopicId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Version        int       `json:"version"`
}

// HistoryRecord is an immutable snapshot of an entry taken just before an update.
// Version is the entry's version at the time of the snapshot.
type HistoryRecord struct {
	EntryID       string    `json:"entryId"`
	Version       int       `json:"version"`
	Content       string    `json:"content"`
	Assumptions   []string  `json:"assumptions"`
	Uncertainties []string  `json:"uncertainties"`
	SavedAt       time.Time `json:"savedAt"`
}

// EntryInput holds the caller-supplied fields of a new entry.
type EntryInput struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Assumptions    []string `json:"assumptions"`
	Uncertainties  []string `json:"uncertainties"`
	KeyQuestion    string   `json:"keyQuestion,omitempty"`
	RelatedTopicID string   `json:"relatedTopicId,omitempty"`
}

// EntryPatch is a partial update. Nil fields are left unchanged; a non-nil
// empty slice clears the list.
type EntryPatch struct {
	Title          *string  `json:"title,omitempty"`
	Content        *string  `json:"content,omitempty"`
	Assumptions    []string `json:"assumptions,omitempty"`
	Uncertainties  []string `json:"uncertainties,omitempty"`
	KeyQuestion    *string  `json:"keyQuestion,omitempty"`
	RelatedTopicID *string  `json:"relatedTopicId,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Assumptions == nil &&
		p.Uncertainties == nil && p.KeyQuestion == nil && p.RelatedTopicID == nil
}

// EntryList is the result of List. Recovered is set when the stored table
// could not be read or parsed and an empty baseline was substituted.
type EntryList struct {
	Entries   []Entry
	Recovered bool
}

// HistoryList is the result of GetHistory, ordered by version descending.
type HistoryList struct {
	Records   []HistoryRecord
	Recovered bool
}

// Snapshot is the self-describing backup document produced by Export.
type Snapshot struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Entries    []Entry         `json:"entries"`
	History    []HistoryRecord `json:"history"`
}

// ImportResult reports the outcome of Import.
type ImportResult struct {
	Success         bool `json:"success"`
	EntriesImported int  `json:"entriesImported"`
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func normalizeEntry(e Entry) Entry {
	e.Assumptions = cloneStrings(e.Assumptions)
	e.Uncertainties = cloneStrings(e.Uncertainties)
	return e
}

func normalizeRecord(h HistoryRecord) HistoryRecord {
	h.Assumptions = cloneStrings(h.Assumptions)
	h.Uncertainties = cloneStrings(h.Uncertainties)
	return h
}

// apply merges the patch over e and returns the result.
func (p EntryPatch) apply(e Entry) Entry {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Assumptions != nil {
		e.Assumptions = cloneStrings(p.Assumptions)
	}
	if p.Uncertainties != nil {
		e.Uncertainties = cloneStrings(p.Uncertainties)
	}
	if p.KeyQuestion != nil {
		e.KeyQuestion = *p.KeyQuestion
	}
	if p.RelatedTopicID != nil {
		e.RelatedTopicID = *p.RelatedTopicID
	}
	return e
}

// snapshot captures the pre-update state of e.
func snapshot(e Entry, savedAt time.Time) HistoryRecord {
	return HistoryRecord{
		EntryID:       e.ID,
		Version:       e.Version,
		Content:       e.Content,
		Assumptions:   cloneStrings(e.Assumptions),
		Uncertainties: cloneStrings(e.Uncertainties),
		SavedAt:       savedAt,
	}
}
