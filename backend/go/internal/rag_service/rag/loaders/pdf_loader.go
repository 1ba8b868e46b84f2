package loaders

import (
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PdfLoader implements the Loader interface for reading the text layer of PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load opens the PDF at path and returns one Page per page that has
// extractable text, numbered from 1. Pages with no text are dropped.
func (l *PdfLoader) Load(ctx context.Context, path string) (pages []schema.Page, err error) {
	// The parser panics on some malformed inputs instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", errs.ErrExtraction, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errs.ErrExtraction, path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", errs.ErrExtraction, i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, schema.Page{Number: i, Text: text})
	}

	return pages, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
