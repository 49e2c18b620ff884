//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/metrics"
)

const provider = "fastembed"

var models = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
}

// Embedder encodes text with a local ONNX model. Documents and queries go
// through the same plain Embed call so both land in one vector space.
type Embedder struct {
	model *fastembed.FlagEmbedding
	name  string
	dim   int
	mu    sync.Mutex
}

// New loads the model, downloading it into cfg.CacheDir on first use.
func New(cfg Config) (*Embedder, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	model, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("fastembed: unsupported model %q", name)
	}
	dim, err := Dimension(name)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}
	showProgress := false

	fe, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("init fastembed: %w", err)
	}

	return &Embedder{model: fe, name: name, dim: dim}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	e.mu.Lock()
	out, err := e.model.Embed([]string{text}, 1)
	e.mu.Unlock()

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.name, "inference").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if len(out) == 0 || len(out[0]) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.name, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed returned no vector: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.name).Observe(time.Since(start).Seconds())

	return domain.EmbeddingResult{Embedding: out[0]}, nil
}

// Model returns the model name.
func (e *Embedder) Model() string { return e.name }

// Dimension returns the vector length the model produces.
func (e *Embedder) Dimension() int { return e.dim }

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Destroy()
	e.model = nil
	return err
}
