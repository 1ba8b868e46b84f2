package synthesizers

import (
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"fmt"
	"strings"
)

// BuildContext renders the sources as the context block shown to the model:
// one "Source (<title>, p.<page>): <snippet>" entry per source, separated by
// a blank line.
func BuildContext(sources []schema.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("Source (%s, p.%d): %s", s.DocumentTitle, s.PageNumber, s.Snippet)
	}
	return strings.Join(parts, "\n\n")
}
