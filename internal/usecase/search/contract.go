package search

import (
	"context"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/domain/analysis"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
)

// Repository provides the full candidate set. Implementations must not truncate.
type Repository interface {
	All(ctx context.Context) ([]dombm.Bookmark, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Analyzer interprets the query through an external language model.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Analysis, error)
}

// AnalysisHook receives a successful query analysis. It runs beside scoring and
// cannot change the ranked results.
type AnalysisHook func(ctx context.Context, req *request.Request, a analysis.Analysis)
