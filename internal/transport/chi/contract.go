package chi

import (
	"context"

	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/bookmarkd/internal/usecase/health"
)

// BookmarkService stores and reads bookmarks.
type BookmarkService interface {
	Create(ctx context.Context, b *dombm.Bookmark) (dombm.Bookmark, error)
	Get(ctx context.Context, id int64) (dombm.Bookmark, error)
	List(ctx context.Context, skip, limit int) ([]dombm.Bookmark, error)
}

// SearchService runs hybrid bookmark search.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
