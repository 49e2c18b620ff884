package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// InstrumentedEmbedder wraps an Embedder with logging and the dimension
// guard. Transport metrics (requests, duration, tokens) are recorded by the
// providers themselves.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	dim      int
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. dim > 0 rejects vectors of any other length.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, dim int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		dim:      dim,
		logger:   logger,
	}
}

// Embed delegates to the inner embedder and logs the outcome.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrEmbeddingProviderError) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dim > 0 && len(result.Embedding) != p.dim {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embed: provider returned %d dimensions, want %d: %w",
			len(result.Embedding), p.dim, domain.ErrVectorDimMismatch,
		)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
