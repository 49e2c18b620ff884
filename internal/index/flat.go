// Package index implements the exact nearest-neighbour structure used by
// semantic search. A FlatL2 index is built for a single request and discarded.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// Neighbor is one ranked entry: the position the vector was added at and its distance to the query.
type Neighbor struct {
	Pos      int
	Distance float64
}

// FlatL2 is a brute-force Euclidean index. Not safe for concurrent mutation.
type FlatL2 struct {
	dim     int
	vectors [][]float32
}

// NewFlatL2 creates an empty index for vectors of the given dimensionality.
func NewFlatL2(dim int) *FlatL2 {
	return &FlatL2{dim: dim}
}

// Dim returns the index dimensionality.
func (f *FlatL2) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *FlatL2) Len() int { return len(f.vectors) }

// Add appends a vector. Its position is the number of vectors added before it.
func (f *FlatL2) Add(v []float32) error {
	if len(v) != f.dim {
		return fmt.Errorf("add: got %d, want %d: %w", len(v), f.dim, domain.ErrVectorDimMismatch)
	}
	f.vectors = append(f.vectors, v)
	return nil
}

// Search ranks every stored vector by ascending L2 distance to q.
// Equal distances keep insertion order.
func (f *FlatL2) Search(q []float32) ([]Neighbor, error) {
	if len(q) != f.dim {
		return nil, fmt.Errorf("search: got %d, want %d: %w", len(q), f.dim, domain.ErrVectorDimMismatch)
	}
	out := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		out[i] = Neighbor{Pos: i, Distance: L2(q, v)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out, nil
}

// L2 returns the Euclidean distance between two equal-length vectors.
// Accumulates in float64.
func L2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Score converts a distance to a similarity in (0, 1], decreasing in distance.
func Score(distance float64) float64 {
	return 1 / (1 + distance)
}
