package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/bookmarkd/internal/db"
	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/domain/vector"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{Model: "m", Dim: 3})
	ctx := context.Background()

	var stored []byte
	ms.setFn = func(_ context.Context, _ string, v []byte) error {
		stored = v
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if len(stored) != 12 {
		t.Fatalf("expected 12 cached bytes, got %d", len(stored))
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{Model: "m", Dim: 3})

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vector.ToBytes([]float32{0.4, 0.5, 0.6}), nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.4 {
		t.Errorf("expected cached vector, got %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Errorf("cache hit must report zero tokens, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner embedder called %d times on hit", inner.calls)
	}
}

func TestEmbed_CachedWrongDimensionIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{Model: "m", Dim: 3})

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vector.ToBytes([]float32{9, 9}), nil
	}

	result, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 || result.Embedding[0] != 1 {
		t.Errorf("expected fallback to inner embedder, calls=%d vec=%v", inner.calls, result.Embedding)
	}
}

func TestEmbed_StoreErrorDegrades(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection reset")
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("store failure must not fail the embed: %v", err)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	ce, _ := newTestCachedEmbedder(t, inner, Options{})

	_, err := ce.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbed_TTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{TTL: time.Hour})

	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Error("Set must not be used when TTL is configured")
		return nil
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", gotTTL)
	}
}

func TestCacheKey_NamespacedByModel(t *testing.T) {
	a, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{Model: "model-a"})
	b, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{Model: "model-b"})

	if a.cacheKey("hello") == b.cacheKey("hello") {
		t.Error("different models must not share cache keys")
	}
	if a.cacheKey("hello") != a.cacheKey("hello") {
		t.Error("cache key must be deterministic")
	}
	if a.cacheKey("hello")[:len(cacheKeyPrefix)] != cacheKeyPrefix {
		t.Errorf("missing prefix: %s", a.cacheKey("hello"))
	}
}
