package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("golang generics", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "golang generics" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.HasTags() {
		t.Error("HasTags() should be false without tags")
	}
	if r.DateRange() != nil {
		t.Error("DateRange() should be nil without input")
	}
}

func intPtr(v int) *int { return &v }

func TestNew_BlankQueryAllowed(t *testing.T) {
	for _, q := range []string{"", "   "} {
		r, err := New(q, []string{"go"}, nil, nil, nil)
		if err != nil {
			t.Fatalf("New(%q) unexpected error: %v", q, err)
		}
		if r.HasQuery() {
			t.Errorf("New(%q).HasQuery() = true, want false", q)
		}
		if !r.HasTags() {
			t.Errorf("New(%q) must keep tags", q)
		}
	}

	r, err := New("golang", nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !r.HasQuery() {
		t.Error("HasQuery() = false for non-blank query")
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxQueryLength+1), nil, nil, nil, intPtr(10))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_Limit(t *testing.T) {
	tests := []struct {
		name  string
		in    *int
		want  int
		isErr bool
	}{
		{"absent", nil, DefaultLimit, false},
		{"explicit", intPtr(3), 3, false},
		{"explicit zero", intPtr(0), 0, false},
		{"large kept as sent", intPtr(500), 500, false},
		{"negative", intPtr(-1), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("q", nil, nil, nil, tt.in)
			if tt.isErr {
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Limit() != tt.want {
				t.Errorf("Limit() = %d, want %d", r.Limit(), tt.want)
			}
		})
	}
}

func TestNew_TagsNormalized(t *testing.T) {
	r, err := New("q", []string{" ai ", "news", "", "ai"}, nil, nil, intPtr(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.Tags()
	if len(got) != 2 || got[0] != "ai" || got[1] != "news" {
		t.Errorf("Tags() = %v, want [ai news]", got)
	}
}

func TestNew_OnlyBlankTagsDisablesTagStrategy(t *testing.T) {
	r, err := New("q", []string{" ", ""}, nil, nil, intPtr(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasTags() {
		t.Error("blank tags must not enable the tag strategy")
	}
}

func TestNew_InvalidDateRange(t *testing.T) {
	_, err := New("q", nil, &DateRangeInput{Start: "yesterday", End: "2024-01-02"}, nil, intPtr(10))
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestNew_FiltersPassThrough(t *testing.T) {
	r, err := New("q", nil, nil, map[string]any{"lang": "en"}, intPtr(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Filters()["lang"] != "en" {
		t.Errorf("Filters() = %v", r.Filters())
	}
}
