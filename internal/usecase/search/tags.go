package search

import (
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"
)

// searchTags scores bookmarks by |requested ∩ stored| / |requested|.
// requested must be non-empty and free of duplicates.
func searchTags(requested []string, candidates []dombm.Bookmark) []result.Result {
	want := make(map[string]struct{}, len(requested))
	for _, t := range requested {
		want[t] = struct{}{}
	}

	var out []result.Result
	for i := range candidates {
		b := &candidates[i]
		matched := make(map[string]struct{})
		for _, t := range b.Tags() {
			if _, ok := want[t]; ok {
				matched[t] = struct{}{}
			}
		}
		if len(matched) == 0 {
			continue
		}
		score := float64(len(matched)) / float64(len(want))
		out = append(out, newResult(b, score, strategy.Tag))
	}
	sortByScore(out)
	return out
}
