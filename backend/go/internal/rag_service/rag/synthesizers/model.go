package synthesizers

import (
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"DocQA/backend/go/pkg/circuitbreaker"
	"DocQA/backend/go/pkg/logger"
	"context"
	"fmt"
	"time"
)

// SystemPrompt restricts the model to the retrieved context.
const SystemPrompt = "You are a helpful assistant. Answer the user's question using ONLY the provided context. " +
	"If the answer is not in the context, say that you don't know. " +
	"Cite the document titles and page numbers you used."

// ModelSynthesizer asks a language model to answer from the context block.
// Any model failure becomes the answer text instead of an error.
type ModelSynthesizer struct {
	llm     interfaces.LLM
	breaker *circuitbreaker.Breaker
	timeout time.Duration
	log     *logger.Logger
}

// NewModelSynthesizer wraps llm. breaker may be nil; timeout 0 means no per-call deadline.
func NewModelSynthesizer(llm interfaces.LLM, breaker *circuitbreaker.Breaker, timeout time.Duration, log *logger.Logger) *ModelSynthesizer {
	return &ModelSynthesizer{llm: llm, breaker: breaker, timeout: timeout, log: log}
}

// UserPrompt is the user turn sent alongside SystemPrompt.
func UserPrompt(question, contextText string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}

func (m *ModelSynthesizer) Synthesize(ctx context.Context, question string, sources []schema.Source) string {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	prompt := UserPrompt(question, BuildContext(sources))
	var answer string
	call := func() error {
		var err error
		answer, err = m.llm.Complete(ctx, SystemPrompt, prompt)
		return err
	}

	var err error
	if m.breaker != nil {
		err = m.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		m.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "ModelCallError"}).
			Warn("Answer synthesis degraded to error message")
		return fmt.Sprintf("Error generating answer: %v", err)
	}
	return answer
}

var _ interfaces.Synthesizer = (*ModelSynthesizer)(nil)
