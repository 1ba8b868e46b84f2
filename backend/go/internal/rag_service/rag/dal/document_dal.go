package dal

import (
	"context"
	"errors"
	"fmt"

	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"gorm.io/gorm"
)

// DocumentDAL provides data access methods for uploaded documents.
type DocumentDAL struct {
	db *gorm.DB
}

// NewDocumentDAL creates a new DocumentDAL.
func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// CreateDocument inserts doc, assigning its ID when empty.
func (dal *DocumentDAL) CreateDocument(ctx context.Context, doc *models.RagDocument) error {
	return dal.db.WithContext(ctx).Create(doc).Error
}

// GetDocument returns errs.ErrNotFound for an unknown id.
func (dal *DocumentDAL) GetDocument(ctx context.Context, documentID string) (*models.RagDocument, error) {
	var doc models.RagDocument
	err := dal.db.WithContext(ctx).Where("id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: document %s", errs.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus records an ingestion lifecycle transition.
func (dal *DocumentDAL) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus) error {
	return dal.db.WithContext(ctx).Model(&models.RagDocument{}).
		Where("id = ?", documentID).
		Update("status", status).Error
}

// ListByFolder returns the folder's documents, oldest first.
func (dal *DocumentDAL) ListByFolder(ctx context.Context, folderID string) ([]*models.RagDocument, error) {
	docs := []*models.RagDocument{}
	if err := dal.db.WithContext(ctx).Where("folder_id = ?", folderID).Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes the row. A missing row is not an error.
func (dal *DocumentDAL) DeleteDocument(ctx context.Context, documentID string) error {
	return dal.db.WithContext(ctx).Where("id = ?", documentID).Delete(&models.RagDocument{}).Error
}

// ExistingIDs reports which of ids have a document row.
func (dal *DocumentDAL) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	// keep the IN list well under driver parameter limits
	const batch = 500
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		var present []string
		err := dal.db.WithContext(ctx).Model(&models.RagDocument{}).
			Where("id IN ?", ids[start:end]).
			Pluck("id", &present).Error
		if err != nil {
			return nil, err
		}
		for _, id := range present {
			found[id] = true
		}
	}
	return found, nil
}
