package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func records(entryID string, versions ...int) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(versions))
	for _, v := range versions {
		out = append(out, HistoryRecord{EntryID: entryID, Version: v})
	}
	return out
}

func versionsOf(history []HistoryRecord) map[string][]int {
	out := make(map[string][]int)
	for _, h := range history {
		out[h.EntryID] = append(out[h.EntryID], h.Version)
	}
	return out
}

func TestApplyRetention(t *testing.T) {
	tests := []struct {
		name       string
		history    []HistoryRecord
		limit      int
		want       map[string][]int
		wantPruned int
	}{
		{
			name:       "empty",
			history:    nil,
			limit:      3,
			want:       map[string][]int{},
			wantPruned: 0,
		},
		{
			name:       "under limit is only sorted",
			history:    records("a", 1, 3, 2),
			limit:      5,
			want:       map[string][]int{"a": {3, 2, 1}},
			wantPruned: 0,
		},
		{
			name:       "over limit keeps highest versions",
			history:    records("a", 1, 2, 3, 4, 5),
			limit:      2,
			want:       map[string][]int{"a": {5, 4}},
			wantPruned: 3,
		},
		{
			name:       "limits each entry independently",
			history:    append(records("a", 1, 2, 3), records("b", 1, 2)...),
			limit:      2,
			want:       map[string][]int{"a": {3, 2}, "b": {2, 1}},
			wantPruned: 1,
		},
		{
			name:       "interleaved entries",
			history:    []HistoryRecord{{EntryID: "a", Version: 1}, {EntryID: "b", Version: 1}, {EntryID: "a", Version: 2}},
			limit:      1,
			want:       map[string][]int{"a": {2}, "b": {1}},
			wantPruned: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pruned := applyRetention(tt.history, tt.limit)
			assert.Equal(t, tt.want, versionsOf(got))
			assert.Equal(t, tt.wantPruned, pruned)
		})
	}
}

func TestApplyRetention_KeepsFirstSeenGroupOrder(t *testing.T) {
	history := []HistoryRecord{
		{EntryID: "b", Version: 1},
		{EntryID: "a", Version: 1},
		{EntryID: "b", Version: 2},
	}

	got, _ := applyRetention(history, 10)

	assert.Equal(t, []HistoryRecord{
		{EntryID: "b", Version: 2},
		{EntryID: "b", Version: 1},
		{EntryID: "a", Version: 1},
	}, got)
}
