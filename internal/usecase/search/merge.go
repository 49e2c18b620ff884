package search

import (
	"sort"

	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
)

// merge deduplicates by bookmark ID, keeping the highest score seen for each
// bookmark. Strategy scales differ (similarity, overlap fraction, flat 1.0);
// the strongest single signal wins. Display fields come from the first
// occurrence. The result is sorted by score and capped at limit.
func merge(limit int, lists ...[]result.Result) []result.Result {
	byID := make(map[int64]int)
	merged := make([]result.Result, 0)

	for _, list := range lists {
		for i := range list {
			r := &list[i]
			pos, seen := byID[r.ID()]
			if !seen {
				byID[r.ID()] = len(merged)
				merged = append(merged, *r)
				continue
			}
			if r.Score() > merged[pos].Score() {
				merged[pos] = merged[pos].WithScore(r.Score(), r.Strategy())
			}
		}
	}

	sortByScore(merged)

	if limit < 0 {
		limit = 0
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// sortByScore orders by descending score, then ascending ID for determinism.
func sortByScore(rs []result.Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score() != rs[j].Score() {
			return rs[i].Score() > rs[j].Score()
		}
		return rs[i].ID() < rs[j].ID()
	})
}
