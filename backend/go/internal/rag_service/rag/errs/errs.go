// Package errs defines the error taxonomy shared by the RAG pipeline and the
// service layer. Components wrap one of these sentinels with
// fmt.Errorf("%w: ...", errs.X) and callers classify with errors.Is.
package errs

import "errors"

var (
	// ErrExtraction is returned when a PDF cannot be read (corrupt, encrypted, unsupported).
	ErrExtraction = errors.New("extraction failed")
	// ErrChunkConfig is returned for an invalid chunk size / overlap pair.
	ErrChunkConfig = errors.New("invalid chunk configuration")
	// ErrIndexWrite is returned when the vector store rejects a write or is unreachable.
	ErrIndexWrite = errors.New("index write failed")
	// ErrModelCall is returned by LLM clients. It never reaches an API caller.
	ErrModelCall = errors.New("model call failed")
	// ErrNotFound is returned for unknown folder or document ids.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a folder name is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidArgument is returned for malformed client input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsIngestion reports whether err should mark a document as failed ingestion.
func IsIngestion(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrIndexWrite) || errors.Is(err, ErrChunkConfig)
}
