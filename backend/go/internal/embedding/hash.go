package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashModel is a deterministic in-process embedding. Lower-cased word
// unigrams and bigrams are hashed into a fixed number of signed buckets and
// the result is L2 normalised, so texts sharing phrases land close together.
type HashModel struct {
	dim int
}

// NewHashModel returns a HashModel producing vectors of length dim.
func NewHashModel(dim int) (*HashModel, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hash embedding dimension must be positive, got %d", dim)
	}
	return &HashModel{dim: dim}, nil
}

// Embed never fails; the error is there to satisfy Embedding.
func (m *HashModel) Embed(_ context.Context, text string) ([]float32, error) {
	return m.vector(text), nil
}

func (m *HashModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *HashModel) vector(text string) []float32 {
	vec := make([]float32, m.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		m.add(vec, tok, 1)
		if i > 0 {
			m.add(vec, tokens[i-1]+" "+tok, 1)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func (m *HashModel) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(m.dim))
	// top bit picks the sign so collisions tend to cancel out
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
