package journal

import "sort"

// DefaultHistoryLimit is the number of prior versions kept per entry.
const DefaultHistoryLimit = 50

// applyRetention groups history by entry, orders each group by version
// descending and keeps at most limit records per entry. Groups appear in the
// order their entry was first seen. It returns the kept records and the
// number discarded.
func applyRetention(history []HistoryRecord, limit int) ([]HistoryRecord, int) {
	order := make([]string, 0)
	groups := make(map[string][]HistoryRecord)
	for _, h := range history {
		if _, ok := groups[h.EntryID]; !ok {
			order = append(order, h.EntryID)
		}
		groups[h.EntryID] = append(groups[h.EntryID], h)
	}

	kept := make([]HistoryRecord, 0, len(history))
	for _, id := range order {
		items := groups[id]
		sortByVersionDesc(items)
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		kept = append(kept, items...)
	}
	return kept, len(history) - len(kept)
}

func sortByVersionDesc(records []HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Version > records[j].Version
	})
}
