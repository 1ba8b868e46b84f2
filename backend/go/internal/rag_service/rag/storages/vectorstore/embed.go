package vectorstore

import (
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// embedChunksText embeds texts in batches of batchSize, running at most
// workers batches concurrently. The result is index-aligned with texts.
func embedChunksText(ctx context.Context, emb embedding.Embedding, texts []string, batchSize, workers int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	if workers <= 0 {
		workers = 1
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := emb.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedding returned %d vectors for %d texts", len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", errs.ErrIndexWrite, err)
	}
	return vectors, nil
}
