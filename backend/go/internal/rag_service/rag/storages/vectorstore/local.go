package vectorstore

import (
	"DocQA/backend/go/internal/database/sqldb"
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"DocQA/backend/go/pkg/logger"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// chunkRecord is one row of the embedded index.
type chunkRecord struct {
	ID            string    `gorm:"primaryKey;size:64"`
	DocumentID    string    `gorm:"index;size:64"`
	DocumentTitle string    `gorm:"size:1024"`
	FolderID      string    `gorm:"index;size:64"`
	PageNumber    int
	ChunkIndex    int
	Text          string
	Embedding     datatypes.JSONType[[]float32]
}

func (chunkRecord) TableName() string {
	return "chunks"
}

// LocalStore is an embedded, on-disk vector store: a SQLite file holding the
// chunk rows and their embeddings, searched by brute-force squared L2.
type LocalStore struct {
	log       *logger.Logger
	db        *gorm.DB
	embedder  embedding.Embedding
	batchSize int
	workers   int
	// dimWarned limits the stale-dimension warning to once per store.
	dimWarned atomic.Bool
}

// LocalOptions tune how Add computes embeddings.
type LocalOptions struct {
	BatchSize int
	Workers   int
}

// NewLocalStore opens (or creates) the index in dir.
func NewLocalStore(dir string, embedder embedding.Embedding, opts LocalOptions, log *logger.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vector store directory %q: %w", dir, err)
	}
	db, err := sqldb.OpenSQLite(filepath.Join(dir, "index.db"), nil)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&chunkRecord{}); err != nil {
		sqldb.Close(db)
		return nil, fmt.Errorf("failed to migrate vector store schema: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &LocalStore{
		log:       log,
		db:        db,
		embedder:  embedder,
		batchSize: opts.BatchSize,
		workers:   opts.Workers,
	}, nil
}

// Add embeds and inserts the chunks in a single transaction.
func (s *LocalStore) Add(ctx context.Context, chunks []*schema.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedChunksText(ctx, s.embedder, texts, s.batchSize, s.workers)
	if err != nil {
		return 0, err
	}

	records := make([]chunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = chunkRecord{
			ID:            c.ID,
			DocumentID:    c.Metadata.DocumentID,
			DocumentTitle: c.Metadata.DocumentTitle,
			FolderID:      c.Metadata.FolderID,
			PageNumber:    c.Metadata.PageNumber,
			ChunkIndex:    c.Metadata.ChunkIndex,
			Text:          c.Text,
			Embedding:     datatypes.NewJSONType(vectors[i]),
		}
	}

	if err := s.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIndexWrite, err)
	}
	s.log.Debug(fmt.Sprintf("Inserted %d chunks into local vector store", len(records)))
	return len(records), nil
}

func (s *LocalStore) DeleteByDocument(ctx context.Context, documentID string) error {
	res := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&chunkRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete chunks of document %s: %w", documentID, res.Error)
	}
	s.log.Debug(fmt.Sprintf("Deleted %d chunks of document %s", res.RowsAffected, documentID))
	return nil
}

// Query scans every row matching the folder filter and keeps the topK closest.
func (s *LocalStore) Query(ctx context.Context, text, folderID string, topK int) ([]schema.Source, error) {
	if topK <= 0 {
		return nil, nil
	}
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	tx := s.db.WithContext(ctx).Model(&chunkRecord{})
	if folderID != "" {
		tx = tx.Where("folder_id = ?", folderID)
	}

	var hits []scored
	var batch []chunkRecord
	skipped, staleDim := 0, 0
	res := tx.FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
		for _, r := range batch {
			vec := r.Embedding.Data()
			if len(vec) != len(query) {
				skipped++
				staleDim = len(vec)
				continue
			}
			hits = append(hits, scored{rec: r, dist: squaredL2(query, vec)})
		}
		return nil
	})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to scan vector store: %w", res.Error)
	}
	if skipped > 0 && s.dimWarned.CompareAndSwap(false, true) {
		s.log.Warn(fmt.Sprintf("Skipped %d chunks with embedding dimension %d (query has %d); "+
			"the embedding provider changed, re-index the documents", skipped, staleDim, len(query)))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].dist < hits[j].dist
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	sources := make([]schema.Source, len(hits))
	for i, h := range hits {
		sources[i] = schema.Source{
			DocumentID:    h.rec.DocumentID,
			DocumentTitle: h.rec.DocumentTitle,
			PageNumber:    h.rec.PageNumber,
			Snippet:       h.rec.Text,
			Score:         h.dist,
		}
	}
	return sources, nil
}

func (s *LocalStore) DocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&chunkRecord{}).Distinct().Pluck("document_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}
	return ids, nil
}

func (s *LocalStore) HealthCheck(ctx context.Context) error {
	return sqldb.HealthCheck(ctx, s.db)
}

func (s *LocalStore) Close() error {
	return sqldb.Close(s.db)
}

type scored struct {
	rec  chunkRecord
	dist float64
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// compile-time check to ensure LocalStore implements the VectorStore interface
var _ interfaces.VectorStore = (*LocalStore)(nil)
