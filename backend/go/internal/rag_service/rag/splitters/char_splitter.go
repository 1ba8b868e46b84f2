package splitters

import (
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// CharSplitter implements the Splitter interface with a fixed-width window
// over the characters of each page. Boundaries may fall inside words.
type CharSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharSplitter creates a CharSplitter. The overlap must be smaller than the
// size, otherwise the window would never advance.
func NewCharSplitter(chunkSize, chunkOverlap int) (*CharSplitter, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d, need 0 <= overlap < size", errs.ErrChunkConfig, chunkSize, chunkOverlap)
	}
	return &CharSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split cuts every page independently. A page no longer than ChunkSize yields
// exactly one chunk; the last window of a page is allowed to be short.
func (s *CharSplitter) Split(ctx context.Context, pages []schema.Page) ([]*schema.Chunk, error) {
	var chunks []*schema.Chunk
	step := s.ChunkSize - s.ChunkOverlap

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runes := []rune(page.Text)

		for start := 0; start < len(runes); start += step {
			end := start + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}

			chunks = append(chunks, &schema.Chunk{
				ID:         uuid.New().String(),
				Text:       string(runes[start:end]),
				PageNumber: page.Number,
				Index:      len(chunks),
			})

			if end == len(runes) {
				break
			}
		}
	}

	return chunks, nil
}

// compile-time check to ensure CharSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharSplitter)(nil)
