package models

import "time"

// DocumentEventType names a document lifecycle transition.
type DocumentEventType string

const (
	DocumentEventIndexed DocumentEventType = "document.indexed"
	DocumentEventFailed  DocumentEventType = "document.failed"
	DocumentEventDeleted DocumentEventType = "document.deleted"
)

// DocumentEvent is published after a document changes state.
type DocumentEvent struct {
	Type          DocumentEventType `json:"type"`
	DocumentID    string            `json:"document_id"`
	FolderID      string            `json:"folder_id"`
	Filename      string            `json:"filename"`
	ChunksIndexed int               `json:"chunks_indexed,omitempty"`
	Error         string            `json:"error,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
