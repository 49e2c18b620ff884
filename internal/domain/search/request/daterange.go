package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DateRange is an inclusive creation-time window.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange parses both boundaries. Unparsable or inverted boundaries are ErrInvalidDateRange.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := parseBoundary(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start: %w", err)
	}
	e, err := parseBoundary(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end: %w", err)
	}
	if s.After(e) {
		return DateRange{}, fmt.Errorf("start %s is after end %s: %w",
			s.Format(time.RFC3339Nano), e.Format(time.RFC3339Nano), domain.ErrInvalidDateRange)
	}
	return DateRange{start: s, end: e}, nil
}

// Start returns the inclusive lower bound.
func (d DateRange) Start() time.Time { return d.start }

// End returns the inclusive upper bound.
func (d DateRange) End() time.Time { return d.end }

// Contains reports whether t falls within [start, end].
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.start) && !t.After(d.end)
}

func parseBoundary(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty boundary: %w", domain.ErrInvalidDateRange)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable boundary %q: %w", v, domain.ErrInvalidDateRange)
}
