package interfaces

import (
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
)

// Loader extracts the text layer of a file as an ordered list of pages.
type Loader interface {
	Load(ctx context.Context, path string) ([]schema.Page, error)
}

// Splitter cuts pages into chunks. Chunk.Index runs across the whole input.
type Splitter interface {
	Split(ctx context.Context, pages []schema.Page) ([]*schema.Chunk, error)
}

// VectorStore persists chunks and answers filtered nearest-neighbour queries.
// Embedding happens inside the store; callers only deal with text.
type VectorStore interface {
	// Add inserts every chunk with its metadata and returns how many were written.
	Add(ctx context.Context, chunks []*schema.Chunk) (int, error)
	// DeleteByDocument removes every chunk of a document. Missing ids are not an error.
	DeleteByDocument(ctx context.Context, documentID string) error
	// Query returns the topK closest chunks, restricted to folderID when it is not empty.
	Query(ctx context.Context, text, folderID string, topK int) ([]schema.Source, error)
	// DocumentIDs lists the distinct document ids present in the collection.
	DocumentIDs(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// LLM is a single-turn text completion backend.
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Synthesizer turns a question and its retrieved sources into an answer.
// It never fails; provider problems are reported inside the answer text.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, sources []schema.Source) string
}
