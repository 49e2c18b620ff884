package bookmark

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/vector"
)

// Service handles bookmark storage with content vectorization at creation.
type Service struct {
	repo            Repository
	embedder        Embedder
	dim             int
	defaultPageSize int
	maxPageSize     int
}

// New creates a bookmark service. dim is the expected embedding length (0 disables the check).
func New(repo Repository, embedder Embedder, dim int) *Service {
	return &Service{
		repo:            repo,
		embedder:        embedder,
		dim:             dim,
		defaultPageSize: 100,
		maxPageSize:     1000,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create embeds the content (when present) and persists the bookmark.
// The store assigns the id and creation time.
func (s *Service) Create(ctx context.Context, b *dombm.Bookmark) (dombm.Bookmark, error) {
	if b.Content() != "" {
		res, err := s.embedder.Embed(ctx, b.Content())
		if err != nil {
			return dombm.Bookmark{}, fmt.Errorf("vectorize bookmark: %w", err)
		}
		if s.dim > 0 && len(res.Embedding) != s.dim {
			return dombm.Bookmark{}, fmt.Errorf(
				"vector dimension mismatch: got %d, want %d: %w",
				len(res.Embedding), s.dim, domain.ErrVectorDimMismatch,
			)
		}
		b.SetEmbedding(vector.Encode(res.Embedding))
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}
	return created, nil
}

// Get retrieves a bookmark by id.
func (s *Service) Get(ctx context.Context, id int64) (dombm.Bookmark, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

// List returns bookmarks ordered by id, skipping the first skip entries.
func (s *Service) List(ctx context.Context, skip, limit int) ([]dombm.Bookmark, error) {
	if skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	bms, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bms, nil
}
