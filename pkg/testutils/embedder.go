package testutils

import (
	"context"
	"math"
	"sync"
	"time"
)

// Orthogonal is returned by VectorEmbedder for texts it has no vector for.
var Orthogonal = []float32{0, 1}

// Reference is the unit vector that Unit measures against.
var Reference = []float32{1, 0}

// Unit returns a 2-d unit vector whose cosine similarity with Reference is cos.
func Unit(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

// VectorEmbedder is a deterministic embedder backed by a lookup table. It is safe for
// concurrent use.
type VectorEmbedder struct {
	Vectors map[string][]float32
	Err     error
	// Delay is applied to every batch and honours context cancellation.
	Delay time.Duration

	mu      sync.Mutex
	batches int
}

func NewVectorEmbedder(vectors map[string][]float32) *VectorEmbedder {
	return &VectorEmbedder{Vectors: vectors}
}

func (v *VectorEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	v.mu.Lock()
	v.batches++
	v.mu.Unlock()

	if v.Delay > 0 {
		select {
		case <-time.After(v.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if v.Err != nil {
		return nil, v.Err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := v.Vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = Orthogonal
	}
	return out, nil
}

// Batches returns the number of EmbedTexts calls so far.
func (v *VectorEmbedder) Batches() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.batches
}
