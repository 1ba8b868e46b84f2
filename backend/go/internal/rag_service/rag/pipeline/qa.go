package pipeline

import (
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
)

// Answer is the result of one question.
type Answer struct {
	Answer  string          `json:"answer"`
	Sources []schema.Source `json:"sources"`
}

// QAPipeline retrieves sources for a question and synthesizes the answer.
type QAPipeline struct {
	retrieval   *RetrievalPipeline
	synthesizer interfaces.Synthesizer
	topK        int
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(retrieval *RetrievalPipeline, synthesizer interfaces.Synthesizer, topK int) *QAPipeline {
	return &QAPipeline{
		retrieval:   retrieval,
		synthesizer: synthesizer,
		topK:        topK,
	}
}

// Run fails only when retrieval fails; model problems end up in Answer.Answer.
func (p *QAPipeline) Run(ctx context.Context, question, folderID string) (*Answer, error) {
	sources, err := p.retrieval.Run(ctx, question, folderID, p.topK)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []schema.Source{}
	}
	return &Answer{
		Answer:  p.synthesizer.Synthesize(ctx, question, sources),
		Sources: sources,
	}, nil
}
