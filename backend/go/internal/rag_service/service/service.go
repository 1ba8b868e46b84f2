package service

import (
	"DocQA/backend/go/internal/database/sqldb"
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/cache"
	"DocQA/backend/go/internal/rag_service/events"
	"DocQA/backend/go/internal/rag_service/rag/dal"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/filestore"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/pipeline"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"DocQA/backend/go/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sniffLen is how much of an upload is read to detect its content type.
const sniffLen = 3072

// Dependencies are the components a Service is assembled from.
type Dependencies struct {
	DB          *gorm.DB
	Files       filestore.FileStore
	VectorStore interfaces.VectorStore
	Loader      interfaces.Loader
	Splitter    interfaces.Splitter
	Synthesizer interfaces.Synthesizer
	Cache       *cache.QueryCache // nil disables caching
	Events      events.Publisher  // nil disables events
	TopK        int
	MaxDistance float64
	Log         *logger.Logger
}

// Service orchestrates folders, uploads, deletions and questions over the
// relational store, the file store and the vector store.
type Service struct {
	log       *logger.Logger
	db        *gorm.DB
	folders   *dal.FolderDAL
	documents *dal.DocumentDAL
	files     filestore.FileStore
	vectors   interfaces.VectorStore
	indexing  *pipeline.IndexingPipeline
	qa        *pipeline.QAPipeline
	cache     *cache.QueryCache
	events    events.Publisher
}

// UploadResult is returned by a successful upload.
type UploadResult struct {
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// New wires the pipelines around deps.
func New(deps Dependencies) *Service {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	retrieval := pipeline.NewRetrievalPipeline(deps.VectorStore, deps.MaxDistance, deps.Log)
	return &Service{
		log:       deps.Log,
		db:        deps.DB,
		folders:   dal.NewFolderDAL(deps.DB),
		documents: dal.NewDocumentDAL(deps.DB),
		files:     deps.Files,
		vectors:   deps.VectorStore,
		indexing:  pipeline.NewIndexingPipeline(deps.Loader, deps.Splitter, deps.VectorStore, deps.Log),
		qa:        pipeline.NewQAPipeline(retrieval, deps.Synthesizer, deps.TopK),
		cache:     deps.Cache,
		events:    publisher,
	}
}

// CreateFolder creates a folder with a unique, non-blank name.
func (s *Service) CreateFolder(ctx context.Context, name string) (*models.RagFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", errs.ErrInvalidArgument)
	}
	return s.folders.CreateFolder(ctx, name)
}

func (s *Service) RenameFolder(ctx context.Context, folderID, name string) (*models.RagFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", errs.ErrInvalidArgument)
	}
	return s.folders.RenameFolder(ctx, folderID, name)
}

func (s *Service) ListFolders(ctx context.Context) ([]*models.RagFolder, error) {
	return s.folders.ListFolders(ctx)
}

// ListDocuments returns the documents of an existing folder.
func (s *Service) ListDocuments(ctx context.Context, folderID string) ([]*models.RagDocument, error) {
	if _, err := s.folders.GetFolder(ctx, folderID); err != nil {
		return nil, err
	}
	return s.documents.ListByFolder(ctx, folderID)
}

// DeleteFolder removes the folder's vectors and files, then the folder row
// together with its document rows.
func (s *Service) DeleteFolder(ctx context.Context, folderID string) error {
	if _, err := s.folders.GetFolder(ctx, folderID); err != nil {
		return err
	}
	docs, err := s.documents.ListByFolder(ctx, folderID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		s.purgeDocument(ctx, doc)
	}
	if err := s.folders.DeleteFolder(ctx, folderID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	for _, doc := range docs {
		s.publish(ctx, models.DocumentEvent{Type: models.DocumentEventDeleted, DocumentID: doc.ID, FolderID: folderID, Filename: doc.Filename})
	}
	s.log.Info(fmt.Sprintf("Deleted folder %s with %d documents", folderID, len(docs)))
	return nil
}

// Upload stores a PDF, records it and indexes it synchronously. A document
// that fails ingestion keeps its row with status error and the ingestion
// error is returned.
func (s *Service) Upload(ctx context.Context, folderID, filename string, r io.Reader, size int64) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: a file name is required", errs.ErrInvalidArgument)
	}
	if _, err := s.folders.GetFolder(ctx, folderID); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if mt := mimetype.Detect(head); !mt.Is("application/pdf") {
		return nil, fmt.Errorf("%w: only PDF files are accepted, got %s", errs.ErrInvalidArgument, mt.String())
	}

	doc := &models.RagDocument{
		ID:       uuid.NewString(),
		Filename: filename,
		FolderID: folderID,
		Status:   models.DocumentStatusProcessing,
	}
	log := s.log.WithPayload(map[string]interface{}{"document_id": doc.ID, "folder_id": folderID})

	// 1. Persist the file
	if err := s.files.Save(ctx, doc.StoredName(), io.MultiReader(bytes.NewReader(head), r), size); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	// 2. Record the document
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		if derr := s.files.Delete(ctx, doc.StoredName()); derr != nil {
			log.Warn(fmt.Sprintf("Failed to remove orphaned upload %s: %v", doc.StoredName(), derr))
		}
		return nil, err
	}

	// 3. Index
	chunks, err := s.index(ctx, doc)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: ingestionErrorType(err)}).
			Error(fmt.Sprintf("Ingestion failed for %s", filename))
		if uerr := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusError); uerr != nil {
			log.Error(fmt.Sprintf("Failed to mark document as failed: %v", uerr))
		}
		// drop whatever part of the document made it into the index
		if derr := s.vectors.DeleteByDocument(ctx, doc.ID); derr != nil {
			log.Warn(fmt.Sprintf("Failed to clean up partial chunks: %v", derr))
		}
		s.publish(ctx, models.DocumentEvent{Type: models.DocumentEventFailed, DocumentID: doc.ID, FolderID: folderID, Filename: filename, Error: err.Error()})
		return nil, err
	}

	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusIndexed); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	s.publish(ctx, models.DocumentEvent{Type: models.DocumentEventIndexed, DocumentID: doc.ID, FolderID: folderID, Filename: filename, ChunksIndexed: chunks})
	log.Info(fmt.Sprintf("Indexed %s: %d chunks", filename, chunks))

	return &UploadResult{Status: "success", ChunksIndexed: chunks}, nil
}

func (s *Service) index(ctx context.Context, doc *models.RagDocument) (int, error) {
	path, release, err := s.files.LocalPath(ctx, doc.StoredName())
	if err != nil {
		return 0, err
	}
	defer release()
	return s.indexing.Run(ctx, path, pipeline.DocumentRef{
		DocumentID: doc.ID,
		Title:      doc.Filename,
		FolderID:   doc.FolderID,
	})
}

// DeleteDocument removes a document everywhere. Vector and file removal are
// best effort; the relational delete always proceeds.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	s.purgeDocument(ctx, doc)
	if err := s.documents.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	s.publish(ctx, models.DocumentEvent{Type: models.DocumentEventDeleted, DocumentID: doc.ID, FolderID: doc.FolderID, Filename: doc.Filename})
	return nil
}

// purgeDocument removes a document's chunks and file, logging failures.
func (s *Service) purgeDocument(ctx context.Context, doc *models.RagDocument) {
	if err := s.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
		s.log.Warn(fmt.Sprintf("Error deleting vectors for document %s: %v", doc.ID, err))
	}
	if err := s.files.Delete(ctx, doc.StoredName()); err != nil {
		s.log.Warn(fmt.Sprintf("Error deleting file %s: %v", doc.StoredName(), err))
	}
}

// Query answers question from the documents of folderID, or of every
// folder when folderID is empty. Model failures are reported inside the
// answer, never as an error.
func (s *Service) Query(ctx context.Context, question, folderID string) (*pipeline.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", errs.ErrInvalidArgument)
	}

	// The key pins the generation seen before retrieval.
	key, err := s.cache.Key(ctx, folderID, question)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Query cache unavailable: %v", err))
	}
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn(fmt.Sprintf("Query cache read failed: %v", err))
	} else if ok {
		s.log.Debug("Query cache hit")
		return cached, nil
	}

	answer, err := s.qa.Run(ctx, question, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, key, answer); err != nil {
		s.log.Warn(fmt.Sprintf("Query cache write failed: %v", err))
	}
	return answer, nil
}

// Reconcile deletes chunks whose document no longer has a relational row and
// returns how many documents were purged from the index.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	ids, err := s.vectors.DocumentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list indexed documents: %w", err)
	}
	existing, err := s.documents.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if existing[id] {
			continue
		}
		if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
			return removed, fmt.Errorf("failed to delete orphaned chunks of %s: %w", id, err)
		}
		removed++
	}
	if removed > 0 {
		s.invalidateCache(ctx)
		s.log.Info(fmt.Sprintf("Reconcile removed chunks of %d orphaned documents", removed))
	}
	return removed, nil
}

// StartReconciler runs Reconcile every interval until ctx is done.
func (s *Service) StartReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Reconcile(ctx); err != nil {
					s.log.Error(fmt.Sprintf("Periodic reconcile failed: %v", err))
				}
			}
		}
	}()
}

// HealthCheck pings every backing store.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := sqldb.HealthCheck(ctx, s.db); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := s.vectors.HealthCheck(ctx); err != nil {
		return fmt.Errorf("vector store: %w", err)
	}
	if err := s.files.HealthCheck(ctx); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn(fmt.Sprintf("Query cache invalidation failed: %v", err))
	}
}

func (s *Service) publish(ctx context.Context, ev models.DocumentEvent) {
	ev.OccurredAt = time.Now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to publish %s event: %v", ev.Type, err))
	}
}

func ingestionErrorType(err error) string {
	switch {
	case errors.Is(err, errs.ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, errs.ErrIndexWrite):
		return "IndexWriteError"
	case errors.Is(err, errs.ErrChunkConfig):
		return "ChunkConfigError"
	default:
		return "InternalError"
	}
}
