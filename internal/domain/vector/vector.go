// Package vector serializes embedding vectors for storage.
//
// The wire form is the little-endian IEEE-754 float32 bytes of the vector,
// base64 encoded (standard alphabet) so it fits a text column or hash field.
package vector

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
)

// ElementSize is the byte width of one serialized vector element.
const ElementSize = 4

// Encode serializes a vector to its storage text form.
func Encode(v []float32) string {
	return base64.StdEncoding.EncodeToString(ToBytes(v))
}

// Decode parses the storage text form back into a vector.
// dim > 0 enforces the expected dimensionality. Any mismatch is ErrCorruptEmbedding.
func Decode(s string, dim int) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64: %w: %w", domain.ErrCorruptEmbedding, err)
	}
	return FromBytes(raw, dim)
}

// ToBytes packs a vector into little-endian float32 bytes.
func ToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*ElementSize)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*ElementSize:], math.Float32bits(f))
	}
	return buf
}

// FromBytes unpacks little-endian float32 bytes. dim > 0 enforces the expected length.
func FromBytes(b []byte, dim int) ([]float32, error) {
	if len(b) == 0 || len(b)%ElementSize != 0 {
		return nil, fmt.Errorf("len=%d (not a positive multiple of %d): %w", len(b), ElementSize, domain.ErrCorruptEmbedding)
	}
	if dim > 0 && len(b) != dim*ElementSize {
		return nil, fmt.Errorf("len=%d, want %d for dim %d: %w", len(b), dim*ElementSize, dim, domain.ErrCorruptEmbedding)
	}
	v := make([]float32, len(b)/ElementSize)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*ElementSize:]))
	}
	return v, nil
}
