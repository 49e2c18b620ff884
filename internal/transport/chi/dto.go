package chi

import (
	"time"

	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeInvalidDateRange       = "invalid_date_range"
	codeBookmarkNotFound       = "bookmark_not_found"
	codeStoreUnavailable       = "store_unavailable"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeInternalError          = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateBookmarkRequest is the POST /bookmarks body.
type CreateBookmarkRequest struct {
	URL      string         `json:"url"`
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	MetaData map[string]any `json:"meta_data,omitempty"`
}

// BookmarkResponse is a stored bookmark as returned by the API.
type BookmarkResponse struct {
	ID               int64          `json:"id"`
	URL              string         `json:"url"`
	Title            *string        `json:"title"`
	Content          *string        `json:"content"`
	ProcessedContent *string        `json:"processed_content"`
	Summary          *string        `json:"summary"`
	MetaData         map[string]any `json:"meta_data"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        *time.Time     `json:"updated_at"`
}

// DateRangeRequest carries raw date range boundaries.
type DateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SearchRequest is the POST /bookmarks/search body.
type SearchRequest struct {
	Query     string            `json:"query"`
	Filters   map[string]any    `json:"filters,omitempty"`
	DateRange *DateRangeRequest `json:"date_range,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Limit     *int              `json:"limit,omitempty"`
}

// SearchResultItem is one ranked search hit.
type SearchResultItem struct {
	ID             int64          `json:"id"`
	URL            string         `json:"url"`
	Title          *string        `json:"title"`
	Summary        *string        `json:"summary"`
	RelevanceScore float64        `json:"relevance_score"`
	MetaData       map[string]any `json:"meta_data"`
}

func bookmarkFromCreate(req CreateBookmarkRequest) (dombm.Bookmark, error) {
	b, err := dombm.New(req.URL, deref(req.Title), deref(req.Content))
	if err != nil {
		return dombm.Bookmark{}, err
	}
	if req.MetaData != nil {
		b.SetMetadata(req.MetaData)
	}
	return b, nil
}

func bookmarkToResponse(b *dombm.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:               b.ID(),
		URL:              b.URL(),
		Title:            optional(b.Title()),
		Content:          optional(b.Content()),
		ProcessedContent: optional(b.ProcessedContent()),
		Summary:          optional(b.Summary()),
		MetaData:         b.Metadata(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}

func searchRequestFromBody(req SearchRequest) (request.Request, error) {
	var dr *request.DateRangeInput
	if req.DateRange != nil {
		dr = &request.DateRangeInput{Start: req.DateRange.Start, End: req.DateRange.End}
	}
	return request.New(req.Query, req.Tags, dr, req.Filters, req.Limit)
}

func searchResultToItem(r *result.Result) SearchResultItem {
	meta := r.Metadata()
	if meta == nil {
		meta = map[string]any{}
	}
	return SearchResultItem{
		ID:             r.ID(),
		URL:            r.URL(),
		Title:          optional(r.Title()),
		Summary:        optional(r.Summary()),
		RelevanceScore: r.Score(),
		MetaData:       meta,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
