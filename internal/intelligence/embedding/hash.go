package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// DefaultHashDimension matches the hidden size of base-sized encoders so the
// hash provider is a drop-in stand-in for the hosted model.
const DefaultHashDimension = 768

// bigramWeight scales the contribution of the (previous, current) token pair
// relative to the token itself.
const bigramWeight = 0.5

// HashEmbedder is a deterministic local provider.  Each token and each
// adjacent token pair is hashed into a pseudo-random direction; the per
// position vectors are mean-pooled.  Identical text gives identical vectors
// and texts sharing most tokens land close together, which is what the
// plausibility thresholds need.
type HashEmbedder struct {
	dim int
	tok *Tokenizer
}

// NewHashEmbedder returns a hash embedder; non-positive arguments take the
// defaults.
func NewHashEmbedder(dim, maxTokens int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim, tok: NewTokenizer(maxTokens)}
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Name() string { return fmt.Sprintf("hash-%d", h.dim) }

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := h.tok.Tokenize(text)
	rows := make([][]float32, len(tokens))
	for i, t := range tokens {
		row := make([]float32, h.dim)
		h.accumulate(row, "u:"+t, 1)
		if i > 0 {
			h.accumulate(row, "b:"+tokens[i-1]+"|"+t, bigramWeight)
		}
		rows[i] = row
	}
	return MeanPool(rows)
}

// accumulate adds weight times the unit-variance direction seeded by key.
func (h *HashEmbedder) accumulate(dst []float32, key string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(key))
	state := f.Sum64()
	scale := weight * math.Sqrt(3)
	for j := range dst {
		state = splitmix64(state)
		// uniform in [-1, 1), scaled to unit variance
		u := float64(state>>11)/float64(1<<53)*2 - 1
		dst[j] += float32(u * scale)
	}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

//Personal.AI order the ending
