// Package fastembed runs sentence-embedding models locally via ONNX runtime.
package fastembed

import (
	"errors"
	"fmt"
)

// DefaultModel is the sentence-transformers model bookmarks are encoded with.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// ErrNotAvailable is returned when the binary was built without cgo.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without cgo, use the openai provider)")

// Config holds local model settings.
type Config struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// modelDimensions lists supported models and their output dimensions.
var modelDimensions = map[string]int{
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
}

// Dimension returns the output dimension of a supported model.
func Dimension(model string) (int, error) {
	if model == "" {
		model = DefaultModel
	}
	dim, ok := modelDimensions[model]
	if !ok {
		return 0, fmt.Errorf("fastembed: unsupported model %q", model)
	}
	return dim, nil
}
