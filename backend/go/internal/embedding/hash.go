package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// HashModel derives a unit vector from the FNV hash of the text. Equal texts
// get equal vectors; different texts are close to orthogonal.
type HashModel struct {
	dimensions int
}

// NewHashModel creates a HashModel. A non-positive size defaults to 384.
func NewHashModel(dimensions int) *HashModel {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashModel{dimensions: dimensions}
}

// Dimensions returns the vector size.
func (m *HashModel) Dimensions() int {
	return m.dimensions
}

func (m *HashModel) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / float64(math.MaxInt64)
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (m *HashModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = m.Embed(ctx, t)
	}
	return out, nil
}
