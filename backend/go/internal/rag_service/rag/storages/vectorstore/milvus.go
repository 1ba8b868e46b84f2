package vectorstore

import (
	"DocQA/backend/go/internal/database/milvus"
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"DocQA/backend/go/pkg/logger"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// Schema fields for the Milvus collection that we want to filter on or output.
	FieldID            = "id"
	FieldEmbedding     = "embedding"
	FieldText          = "text"
	FieldDocumentID    = "document_id"
	FieldDocumentTitle = "document_title"
	FieldFolderID      = "folder_id"
	FieldPageNumber    = "page_number"
	FieldChunkIndex    = "chunk_index"
)

const (
	// documentIDPage bounds one round of DocumentIDs.
	documentIDPage = 1000
	// maxTitleBytes is the VarChar limit of FieldDocumentTitle. A 512 character
	// filename fits even when every character takes four bytes.
	maxTitleBytes = 2048
)

// MilvusStore implements VectorStore on a Milvus collection. Embeddings are
// computed client-side with the same local embedding function as LocalStore.
type MilvusStore struct {
	log        *logger.Logger
	milvus     *milvus.MilvusClient
	client     client.Client
	embedder   embedding.Embedding
	collection string
	batchSize  int
	workers    int
}

// NewMilvusStore creates the collection when missing and loads it.
func NewMilvusStore(ctx context.Context, milvusClient *milvus.MilvusClient, collectionName string, embedder embedding.Embedding, dim int, opts LocalOptions, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}

	s := &MilvusStore{
		log:        log,
		milvus:     milvusClient,
		client:     milvusClient.Client,
		embedder:   embedder,
		collection: collectionName,
		batchSize:  opts.BatchSize,
		workers:    opts.Workers,
	}
	if err := milvusClient.EnsureCollection(ctx, s.schema(dim), FieldEmbedding); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) schema(dim int) *entity.Schema {
	return entity.NewSchema().
		WithName(s.collection).
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(FieldDocumentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldDocumentTitle).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTitleBytes)).
		WithField(entity.NewField().WithName(FieldFolderID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldPageNumber).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldChunkIndex).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
}

// Add inserts the chunks column by column.
func (s *MilvusStore) Add(ctx context.Context, chunks []*schema.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	n := len(chunks)
	ids := make([]string, n)
	texts := make([]string, n)
	documentIDs := make([]string, n)
	titles := make([]string, n)
	folderIDs := make([]string, n)
	pages := make([]int64, n)
	indexes := make([]int64, n)
	for i, c := range chunks {
		ids[i] = c.ID
		texts[i] = c.Text
		documentIDs[i] = c.Metadata.DocumentID
		titles[i] = truncateUTF8(c.Metadata.DocumentTitle, maxTitleBytes)
		folderIDs[i] = c.Metadata.FolderID
		pages[i] = int64(c.Metadata.PageNumber)
		indexes[i] = int64(c.Metadata.ChunkIndex)
	}

	vectors, err := embedChunksText(ctx, s.embedder, texts, s.batchSize, s.workers)
	if err != nil {
		return 0, err
	}

	s.log.Info(fmt.Sprintf("Inserting %d chunks into Milvus collection: %s", n, s.collection))
	_, err = s.client.Insert(ctx, s.collection, "", /* default partition */
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldDocumentID, documentIDs),
		entity.NewColumnVarChar(FieldDocumentTitle, titles),
		entity.NewColumnVarChar(FieldFolderID, folderIDs),
		entity.NewColumnInt64(FieldPageNumber, pages),
		entity.NewColumnInt64(FieldChunkIndex, indexes),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnFloatVector(FieldEmbedding, len(vectors[0]), vectors),
	)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to insert data into Milvus: %v", err))
		return 0, fmt.Errorf("%w: milvus insert: %v", errs.ErrIndexWrite, err)
	}
	return n, nil
}

func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := eqExpr(FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete from Milvus with %q: %w", expr, err)
	}
	return nil
}

// Query performs a filtered vector search with strong consistency so chunks
// inserted by a just-finished upload are visible.
func (s *MilvusStore) Query(ctx context.Context, text, folderID string, topK int) ([]schema.Source, error) {
	if topK <= 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filterExpr := ""
	if folderID != "" {
		filterExpr = eqExpr(FieldFolderID, folderID)
	}
	searchParams, err := s.milvus.SearchParam()
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	outputFields := []string{FieldDocumentID, FieldDocumentTitle, FieldPageNumber, FieldText}
	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(vec)},
		FieldEmbedding, s.milvus.MetricType(), topK, searchParams,
		client.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to search in Milvus: %v", err))
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var sources []schema.Source
	for _, res := range searchResults {
		docIDCol, _ := res.Fields.GetColumn(FieldDocumentID).(*entity.ColumnVarChar)
		titleCol, _ := res.Fields.GetColumn(FieldDocumentTitle).(*entity.ColumnVarChar)
		pageCol, _ := res.Fields.GetColumn(FieldPageNumber).(*entity.ColumnInt64)
		textCol, _ := res.Fields.GetColumn(FieldText).(*entity.ColumnVarChar)
		if docIDCol == nil || titleCol == nil || pageCol == nil || textCol == nil {
			s.log.Warn("Search result is missing output fields, skipping.")
			continue
		}
		docIDs, titles, pageNums, texts := docIDCol.Data(), titleCol.Data(), pageCol.Data(), textCol.Data()

		for i := 0; i < res.ResultCount; i++ {
			sources = append(sources, schema.Source{
				DocumentID:    docIDs[i],
				DocumentTitle: titles[i],
				PageNumber:    int(pageNums[i]),
				Snippet:       texts[i],
				Score:         float64(res.Scores[i]),
			})
		}
	}
	return sources, nil
}

// DocumentIDs pages through the collection, excluding ids already seen, until
// no new document id comes back.
func (s *MilvusStore) DocumentIDs(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	for {
		expr := FieldDocumentID + ` != ""`
		if len(ids) > 0 {
			quoted := make([]string, len(ids))
			for i, id := range ids {
				quoted[i] = quote(id)
			}
			expr = fmt.Sprintf("%s not in [%s]", FieldDocumentID, strings.Join(quoted, ","))
		}

		rs, err := s.client.Query(ctx, s.collection, []string{}, expr, []string{FieldDocumentID},
			client.WithLimit(documentIDPage),
			client.WithSearchQueryConsistencyLevel(entity.ClStrong),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query document ids from Milvus: %w", err)
		}
		col, _ := rs.GetColumn(FieldDocumentID).(*entity.ColumnVarChar)
		if col == nil || col.Len() == 0 {
			return ids, nil
		}

		added := 0
		for _, id := range col.Data() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
				added++
			}
		}
		if added == 0 {
			return ids, nil
		}
	}
}

func (s *MilvusStore) HealthCheck(ctx context.Context) error {
	return s.milvus.HealthCheck(ctx)
}

func (s *MilvusStore) Close() error {
	return s.milvus.Close()
}

func eqExpr(field, value string) string {
	return fmt.Sprintf("%s == %s", field, quote(value))
}

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// quote renders a Milvus string literal.
func quote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
