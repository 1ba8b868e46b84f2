package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RagFolder groups uploaded documents. Names are unique across the service.
// Deleting a folder cascades to its documents at the database level.
type RagFolder struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	Name      string        `gorm:"uniqueIndex;not null;size:255" json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	Documents []RagDocument `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the table name stable regardless of the struct name.
func (RagFolder) TableName() string {
	return "folders"
}

// BeforeCreate assigns a uuid when the caller did not provide one.
func (f *RagFolder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
