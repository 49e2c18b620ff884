package search

import (
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"
)

// dateScore is the flat score for any bookmark inside the window.
const dateScore = 1.0

// searchDates includes bookmarks created within the inclusive window.
func searchDates(dr request.DateRange, candidates []dombm.Bookmark) []result.Result {
	var out []result.Result
	for i := range candidates {
		b := &candidates[i]
		if dr.Contains(b.CreatedAt()) {
			out = append(out, newResult(b, dateScore, strategy.Date))
		}
	}
	return out
}
