package search

import (
	"context"

	"go.uber.org/zap"

	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"
	"github.com/kailas-cloud/bookmarkd/internal/domain/vector"
	"github.com/kailas-cloud/bookmarkd/internal/index"
	"github.com/kailas-cloud/bookmarkd/internal/metrics"
)

// searchSemantic ranks every bookmark with a usable embedding by L2 distance
// to the query embedding. Bookmarks without content or with a corrupt
// embedding are skipped; they stay eligible for tag and date scoring.
func (s *Service) searchSemantic(ctx context.Context, query string, candidates []dombm.Bookmark) []result.Result {
	owners := make([]*dombm.Bookmark, 0, len(candidates))
	vectors := make([][]float32, 0, len(candidates))

	for i := range candidates {
		b := &candidates[i]
		if !b.HasEmbedding() {
			continue
		}
		v, err := vector.Decode(b.Embedding(), s.dim)
		if err != nil {
			metrics.CorruptEmbeddingsTotal.Inc()
			s.log(ctx).Debug("Skipping bookmark with corrupt embedding",
				zap.Int64("bookmark_id", b.ID()),
				zap.Error(err),
			)
			continue
		}
		owners = append(owners, b)
		vectors = append(vectors, v)
	}

	if len(vectors) == 0 {
		return nil
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.log(ctx).Warn("Query embedding failed, semantic strategy skipped", zap.Error(err))
		return nil
	}

	dim := s.dim
	if dim == 0 {
		dim = len(emb.Embedding)
	}
	idx := index.NewFlatL2(dim)
	added := make([]*dombm.Bookmark, 0, len(vectors))
	for i, v := range vectors {
		if err := idx.Add(v); err != nil {
			// Only reachable when dim was inferred from the query.
			s.log(ctx).Debug("Skipping bookmark with mismatched embedding",
				zap.Int64("bookmark_id", owners[i].ID()),
				zap.Error(err),
			)
			continue
		}
		added = append(added, owners[i])
	}

	neighbors, err := idx.Search(emb.Embedding)
	if err != nil {
		s.log(ctx).Error("Query embedding does not match stored dimensionality",
			zap.Int("query_dim", len(emb.Embedding)),
			zap.Int("index_dim", dim),
			zap.Error(err),
		)
		return nil
	}

	out := make([]result.Result, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, newResult(added[n.Pos], index.Score(n.Distance), strategy.Semantic))
	}
	sortByScore(out)
	return out
}
