package pipeline

import (
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"fmt"

	"DocQA/backend/go/pkg/logger"
)

// DefaultTopK is the number of sources returned when the caller does not ask for a count.
const DefaultTopK = 5

// RetrievalPipeline finds the chunks closest to a query.
type RetrievalPipeline struct {
	vectorStore interfaces.VectorStore
	maxDistance float64 // 0 disables the cutoff
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline. A positive
// maxDistance drops sources farther than it from the query.
func NewRetrievalPipeline(vectorStore interfaces.VectorStore, maxDistance float64, log *logger.Logger) *RetrievalPipeline {
	return &RetrievalPipeline{
		vectorStore: vectorStore,
		maxDistance: maxDistance,
		log:         log,
	}
}

// Run returns up to topK sources ordered by ascending distance. An empty
// folderID searches the whole collection.
func (p *RetrievalPipeline) Run(ctx context.Context, query, folderID string, topK int) ([]schema.Source, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	p.log.Debug(fmt.Sprintf("Starting retrieval for query: '%s' in folder: '%s'", query, folderID))

	sources, err := p.vectorStore.Query(ctx, query, folderID, topK)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to query VectorStore: %v", err))
		return nil, err
	}

	if p.maxDistance > 0 {
		kept := sources[:0]
		for _, s := range sources {
			if s.Score <= p.maxDistance {
				kept = append(kept, s)
			}
		}
		sources = kept
	}

	p.log.Debug(fmt.Sprintf("Retrieved %d sources", len(sources)))
	return sources, nil
}
