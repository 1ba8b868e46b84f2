package dal

import (
	"context"
	"errors"
	"fmt"

	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"gorm.io/gorm"
)

// Migrate creates or updates the folders and documents tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.RagFolder{}, &models.RagDocument{})
}

// FolderDAL provides data access methods for RAG folders.
type FolderDAL struct {
	db *gorm.DB
}

// NewFolderDAL creates a new FolderDAL.
func NewFolderDAL(db *gorm.DB) *FolderDAL {
	return &FolderDAL{db: db}
}

// CreateFolder creates a new folder.
// It returns errs.ErrDuplicate if a folder with the same name already exists.
func (dal *FolderDAL) CreateFolder(ctx context.Context, folderName string) (*models.RagFolder, error) {
	taken, err := dal.nameTaken(ctx, folderName, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: folder %q", errs.ErrDuplicate, folderName)
	}

	folder := &models.RagFolder{Name: folderName}
	if err := dal.db.WithContext(ctx).Create(folder).Error; err != nil {
		// Handle a concurrent insert of the same name
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: folder %q", errs.ErrDuplicate, folderName)
		}
		return nil, err
	}
	return folder, nil
}

// GetFolder returns errs.ErrNotFound for an unknown id.
func (dal *FolderDAL) GetFolder(ctx context.Context, folderID string) (*models.RagFolder, error) {
	var folder models.RagFolder
	err := dal.db.WithContext(ctx).Where("id = ?", folderID).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: folder %s", errs.ErrNotFound, folderID)
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder changes a folder's name. Renaming to the current name is allowed.
func (dal *FolderDAL) RenameFolder(ctx context.Context, folderID, newName string) (*models.RagFolder, error) {
	folder, err := dal.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	taken, err := dal.nameTaken(ctx, newName, folderID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: folder %q", errs.ErrDuplicate, newName)
	}

	err = dal.db.WithContext(ctx).Model(folder).Update("name", newName).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: folder %q", errs.ErrDuplicate, newName)
	}
	if err != nil {
		return nil, err
	}
	folder.Name = newName
	return folder, nil
}

// ListFolders retrieves all folders, oldest first.
func (dal *FolderDAL) ListFolders(ctx context.Context) ([]*models.RagFolder, error) {
	folders := []*models.RagFolder{}
	if err := dal.db.WithContext(ctx).Order("created_at, name").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// DeleteFolder deletes a folder by its ID; its documents go with it.
func (dal *FolderDAL) DeleteFolder(ctx context.Context, folderID string) error {
	return dal.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Drivers without enforced foreign keys still get the cascade
		if err := tx.Where("folder_id = ?", folderID).Delete(&models.RagDocument{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", folderID).Delete(&models.RagFolder{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: folder %s", errs.ErrNotFound, folderID)
		}
		return nil
	})
}

func (dal *FolderDAL) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var count int64
	q := dal.db.WithContext(ctx).Model(&models.RagFolder{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
