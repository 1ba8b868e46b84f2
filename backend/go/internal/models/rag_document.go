package models

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStatus is the ingestion lifecycle of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusError      DocumentStatus = "error"
)

// RagDocument is the relational record of one uploaded file.
// Its chunks live only in the vector store, keyed by ID in chunk metadata.
type RagDocument struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Filename  string         `gorm:"index;not null;size:512" json:"filename"`
	FolderID  string         `gorm:"index;not null;size:36" json:"folder_id"`
	Status    DocumentStatus `gorm:"size:16;default:uploaded" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName keeps the table name stable regardless of the struct name.
func (RagDocument) TableName() string {
	return "documents"
}

// BeforeCreate assigns a uuid when the caller did not provide one.
func (d *RagDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// StoredName is the name the uploaded file is persisted under: the document
// id plus the original extension.
func (d *RagDocument) StoredName() string {
	return d.ID + filepath.Ext(d.Filename)
}
