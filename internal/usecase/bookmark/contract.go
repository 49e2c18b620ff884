package bookmark

import (
	"context"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
)

// Repository defines the storage contract for bookmarks.
type Repository interface {
	Create(ctx context.Context, b *dombm.Bookmark) (dombm.Bookmark, error)
	Get(ctx context.Context, id int64) (dombm.Bookmark, error)
	List(ctx context.Context, skip, limit int) ([]dombm.Bookmark, error)
}

// Embedder vectorizes bookmark content.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
