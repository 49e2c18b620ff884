package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"
	logpkg "github.com/kailas-cloud/bookmarkd/internal/logger"
	"github.com/kailas-cloud/bookmarkd/internal/metrics"
)

// DefaultAnalyzerTimeout bounds the analysis call when no timeout is configured.
const DefaultAnalyzerTimeout = 5 * time.Second

// Service searches the bookmark collection with semantic, tag and date strategies.
// It keeps no per-request state; a single instance serves concurrent requests.
type Service struct {
	repo            Repository
	embed           Embedder
	dim             int
	analyzer        Analyzer
	analyzerTimeout time.Duration
	onAnalysis      AnalysisHook
	logger          *zap.Logger
}

// New creates a search service. dim is the embedding dimensionality stored
// bookmarks must match (0 accepts the query vector's length).
func New(repo Repository, embed Embedder, dim int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, dim: dim, logger: logger}
}

// WithAnalyzer enables best-effort query analysis bounded by timeout.
func (s *Service) WithAnalyzer(a Analyzer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultAnalyzerTimeout
	}
	s.analyzer = a
	s.analyzerTimeout = timeout
	return s
}

// WithAnalysisHook registers the consumer of successful analyses.
func (s *Service) WithAnalysisHook(h AnalysisHook) *Service {
	s.onAnalysis = h
	return s
}

// Search runs every applicable strategy over the full candidate set and
// returns the merged, deduplicated ranking capped at req.Limit().
// Only a failed candidate fetch is fatal here; date boundaries were validated
// when req was built.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	candidates, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w: %w", domain.ErrStoreUnavailable, err)
	}
	metrics.SearchCandidates.Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		return []result.Result{}, nil
	}

	// One slot per strategy; each goroutine writes only its own slot.
	var semantic, tagged, dated []result.Result

	g, gctx := errgroup.WithContext(ctx)

	if s.analyzer != nil && req.HasQuery() {
		// Detached so the response never waits on it; enrich applies its own timeout.
		go s.enrich(context.WithoutCancel(ctx), req)
	}

	if req.HasQuery() {
		g.Go(func() error {
			semantic = s.timed(strategy.Semantic, func() []result.Result {
				return s.searchSemantic(gctx, req.Query(), candidates)
			})
			return nil
		})
	}

	if req.HasTags() {
		g.Go(func() error {
			tagged = s.timed(strategy.Tag, func() []result.Result {
				return searchTags(req.Tags(), candidates)
			})
			return nil
		})
	}

	if dr := req.DateRange(); dr != nil {
		g.Go(func() error {
			dated = s.timed(strategy.Date, func() []result.Result {
				return searchDates(*dr, candidates)
			})
			return nil
		})
	}

	_ = g.Wait() // runners degrade instead of failing

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return merge(req.Limit(), semantic, tagged, dated), nil
}

// enrich calls the analyzer once, bounded by analyzerTimeout. Failures are
// logged and swallowed. It runs after Search may already have returned.
func (s *Service) enrich(ctx context.Context, req *request.Request) {
	ctx, cancel := context.WithTimeout(ctx, s.analyzerTimeout)
	defer cancel()

	a, err := s.analyzer.Analyze(ctx, req.Query())
	if err != nil {
		metrics.AnalyzerRequestsTotal.WithLabelValues("error").Inc()
		s.log(ctx).Warn("Query analysis failed, continuing without enrichment",
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
		return
	}
	metrics.AnalyzerRequestsTotal.WithLabelValues("success").Inc()

	s.log(ctx).Debug("Query analysis completed",
		zap.String("model", a.Model),
		zap.Int("completion_tokens", a.CompletionTokens),
	)
	if s.onAnalysis != nil && !a.IsEmpty() {
		s.onAnalysis(ctx, req, a)
	}
}

// log returns the request-scoped logger when the transport installed one.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

func (s *Service) timed(st strategy.Strategy, run func() []result.Result) []result.Result {
	start := time.Now()
	out := run()
	metrics.SearchStrategyDuration.WithLabelValues(string(st)).Observe(time.Since(start).Seconds())
	metrics.SearchStrategyResults.WithLabelValues(string(st)).Observe(float64(len(out)))
	return out
}

func newResult(b *dombm.Bookmark, score float64, st strategy.Strategy) result.Result {
	return result.New(b.ID(), b.URL(), b.Title(), b.Summary(), b.Metadata(), score, st)
}
