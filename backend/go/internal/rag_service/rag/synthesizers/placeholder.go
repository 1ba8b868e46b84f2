package synthesizers

import (
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"fmt"
)

// placeholderContextLimit is how many characters of context the no-model answer echoes.
const placeholderContextLimit = 500

// PlaceholderSynthesizer is used when no model credential is configured. Its
// answer is a deterministic excerpt of the context.
type PlaceholderSynthesizer struct{}

func NewPlaceholderSynthesizer() *PlaceholderSynthesizer {
	return &PlaceholderSynthesizer{}
}

func (PlaceholderSynthesizer) Synthesize(_ context.Context, _ string, sources []schema.Source) string {
	excerpt := []rune(BuildContext(sources))
	if len(excerpt) > placeholderContextLimit {
		excerpt = excerpt[:placeholderContextLimit]
	}
	return fmt.Sprintf("Based on the documents, here is the information:\n\n%s...\n\n(Note: Connect an OPENAI_API_KEY in .env to get a real synthesized answer.)", string(excerpt))
}

var _ interfaces.Synthesizer = (*PlaceholderSynthesizer)(nil)
