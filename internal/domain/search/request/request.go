package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	// DefaultLimit applies when the caller sends no limit at all.
	DefaultLimit = 10
)

// DateRangeInput carries raw, unparsed date range boundaries from the caller.
type DateRangeInput struct {
	Start string
	End   string
}

// Request is a validated search query.
type Request struct {
	query     string
	filters   map[string]any
	tags      []string
	dateRange *DateRange
	limit     int
}

// New validates and normalizes search parameters.
// A nil limit means DefaultLimit; an explicit 0 asks for no results.
// The query may be blank, in which case only tag and date scoring apply.
// Tags are trimmed, deduplicated and empty entries dropped.
// filters is carried through unchanged and not interpreted by any strategy.
func New(
	query string,
	tags []string,
	dateRange *DateRangeInput,
	filters map[string]any,
	limit *int,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidRequest)
	}
	n := DefaultLimit
	if limit != nil {
		if *limit < 0 {
			return Request{}, fmt.Errorf("limit must not be negative: %w", domain.ErrInvalidRequest)
		}
		n = *limit
	}

	var dr *DateRange
	if dateRange != nil {
		parsed, err := NewDateRange(dateRange.Start, dateRange.End)
		if err != nil {
			return Request{}, err
		}
		dr = &parsed
	}

	return Request{
		query:     query,
		filters:   filters,
		tags:      normalizeTags(tags),
		dateRange: dr,
		limit:     n,
	}, nil
}

// Query returns the free-text query.
func (r *Request) Query() string { return r.query }

// HasQuery reports whether the query carries any text to embed.
func (r *Request) HasQuery() bool { return strings.TrimSpace(r.query) != "" }

// Filters returns the reserved metadata filter, unused by scoring.
func (r *Request) Filters() map[string]any { return r.filters }

// Tags returns the requested tag set (nil when the tag strategy should not run).
func (r *Request) Tags() []string { return r.tags }

// HasTags reports whether the tag strategy applies.
func (r *Request) HasTags() bool { return len(r.tags) > 0 }

// DateRange returns the creation window (nil when the date strategy should not run).
func (r *Request) DateRange() *DateRange { return r.dateRange }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
