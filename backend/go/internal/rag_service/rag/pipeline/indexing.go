package pipeline

import (
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"fmt"

	"DocQA/backend/go/pkg/logger"
)

// DocumentRef identifies the document whose chunks are being indexed.
type DocumentRef struct {
	DocumentID string
	Title      string
	FolderID   string
}

// IndexingPipeline orchestrates loading, splitting and storing one document.
type IndexingPipeline struct {
	loader      interfaces.Loader
	splitter    interfaces.Splitter
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	loader interfaces.Loader,
	splitter interfaces.Splitter,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		loader:      loader,
		splitter:    splitter,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run extracts the file at path, chunks it and writes the chunks with the
// document's metadata. It returns the number of chunks indexed; a file with
// no extractable text indexes zero chunks without error.
func (p *IndexingPipeline) Run(ctx context.Context, path string, doc DocumentRef) (int, error) {
	log := p.log.WithPayload(map[string]interface{}{"document_id": doc.DocumentID, "folder_id": doc.FolderID})
	log.Info(fmt.Sprintf("Starting indexing for: %s", doc.Title))

	// 1. Load the pages
	pages, err := p.loader.Load(ctx, path)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to load data: %v", err))
		return 0, err
	}

	// 2. Split pages into chunks
	chunks, err := p.splitter.Split(ctx, pages)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to split pages: %v", err))
		return 0, err
	}
	log.Info(fmt.Sprintf("Loaded %d pages, split into %d chunks", len(pages), len(chunks)))

	// 3. Attach metadata
	for _, c := range chunks {
		c.Metadata = schema.ChunkMetadata{
			DocumentID:    doc.DocumentID,
			DocumentTitle: doc.Title,
			FolderID:      doc.FolderID,
			PageNumber:    c.PageNumber,
			ChunkIndex:    c.Index,
		}
	}

	// 4. Store
	n, err := p.vectorStore.Add(ctx, chunks)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to add chunks to VectorStore: %v", err))
		return 0, err
	}

	log.Info(fmt.Sprintf("Successfully finished indexing for: %s", doc.Title))
	return n, nil
}
