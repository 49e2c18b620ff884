//go:build !cgo

package fastembed

import (
	"context"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// Embedder is a stub for builds without cgo.
type Embedder struct{}

// New returns ErrNotAvailable.
func New(_ Config) (*Embedder, error) {
	return nil, ErrNotAvailable
}

// Embed returns ErrNotAvailable.
func (e *Embedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, ErrNotAvailable
}

// Model returns an empty name.
func (e *Embedder) Model() string { return "" }

// Dimension returns 0.
func (e *Embedder) Dimension() int { return 0 }

// Close is a no-op.
func (e *Embedder) Close() error { return nil }
