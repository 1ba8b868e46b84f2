package dal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"DocQA/backend/go/internal/database/sqldb"
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqldb.OpenSQLite(filepath.Join(t.TempDir(), "rag_app.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { sqldb.Close(db) })
	return db
}

func TestFolderDAL_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	folders := NewFolderDAL(newTestDB(t))

	first, err := folders.CreateFolder(ctx, "Contracts")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}

	if _, err := folders.CreateFolder(ctx, "Contracts"); !errors.Is(err, errs.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	list, err := folders.ListFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != first.ID || list[0].Name != "Contracts" {
		t.Errorf("first folder changed or duplicated: %+v", list)
	}
}

func TestFolderDAL_Rename(t *testing.T) {
	ctx := context.Background()
	folders := NewFolderDAL(newTestDB(t))
	a, _ := folders.CreateFolder(ctx, "A")
	folders.CreateFolder(ctx, "B")

	renamed, err := folders.RenameFolder(ctx, a.ID, "C")
	if err != nil || renamed.Name != "C" {
		t.Fatalf("RenameFolder() = %+v, %v", renamed, err)
	}
	if _, err := folders.RenameFolder(ctx, a.ID, "C"); err != nil {
		t.Errorf("renaming to the same name should succeed, got %v", err)
	}
	if _, err := folders.RenameFolder(ctx, a.ID, "B"); !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := folders.RenameFolder(ctx, "missing", "D"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := folders.GetFolder(ctx, a.ID)
	if got.Name != "C" {
		t.Errorf("stored name = %q, want C", got.Name)
	}
}

func TestFolderDAL_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	folders, docs := NewFolderDAL(db), NewDocumentDAL(db)

	f, _ := folders.CreateFolder(ctx, "Reports")
	doc := &models.RagDocument{Filename: "q1.pdf", FolderID: f.ID, Status: models.DocumentStatusIndexed}
	if err := docs.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := folders.DeleteFolder(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if _, err := docs.GetDocument(ctx, doc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("document should be gone, got %v", err)
	}
	if err := folders.DeleteFolder(ctx, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDocumentDAL_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	folders, docs := NewFolderDAL(db), NewDocumentDAL(db)
	f, _ := folders.CreateFolder(ctx, "Manuals")

	doc := &models.RagDocument{Filename: "guide.PDF", FolderID: f.ID, Status: models.DocumentStatusProcessing}
	if err := docs.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.StoredName() != doc.ID+".PDF" {
		t.Errorf("StoredName() = %q", doc.StoredName())
	}

	if err := docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusIndexed); err != nil {
		t.Fatal(err)
	}
	got, err := docs.GetDocument(ctx, doc.ID)
	if err != nil || got.Status != models.DocumentStatusIndexed {
		t.Fatalf("GetDocument() = %+v, %v", got, err)
	}

	list, _ := docs.ListByFolder(ctx, f.ID)
	if len(list) != 1 || list[0].ID != doc.ID {
		t.Errorf("ListByFolder() = %+v", list)
	}
	empty, _ := docs.ListByFolder(ctx, "other")
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListByFolder(other) = %#v, want empty slice", empty)
	}

	found, err := docs.ExistingIDs(ctx, []string{doc.ID, "ghost"})
	if err != nil || !found[doc.ID] || found["ghost"] {
		t.Errorf("ExistingIDs() = %v, %v", found, err)
	}

	if err := docs.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := docs.GetDocument(ctx, doc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
