package vectorstore

import (
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"DocQA/backend/go/pkg/logger"
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	emb, err := embedding.NewHashModel(256)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewLocalStore(t.TempDir(), emb, LocalOptions{BatchSize: 2, Workers: 2}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeChunks(docID, folderID, title string, texts ...string) []*schema.Chunk {
	chunks := make([]*schema.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &schema.Chunk{
			ID:         uuid.New().String(),
			Text:       text,
			PageNumber: i + 1,
			Index:      i,
			Metadata: schema.ChunkMetadata{
				DocumentID:    docID,
				DocumentTitle: title,
				FolderID:      folderID,
				PageNumber:    i + 1,
				ChunkIndex:    i,
			},
		}
	}
	return chunks
}

func TestLocalStore_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chunks := makeChunks("doc-1", "folder-a", "biology.pdf",
		"Photosynthesis converts light energy into chemical energy stored in glucose.",
		"The mitochondria is the powerhouse of the cell and produces ATP.",
		"Ribosomes translate messenger RNA into proteins.",
	)
	n, err := s.Add(ctx, chunks)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Add() = %d, want 3", n)
	}

	sources, err := s.Query(ctx, "mitochondria is the powerhouse of the cell", "", 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	top := sources[0]
	if top.Snippet != chunks[1].Text || top.PageNumber != 2 || top.DocumentTitle != "biology.pdf" || top.DocumentID != "doc-1" {
		t.Errorf("unexpected top source: %+v", top)
	}
	if sources[0].Score > sources[1].Score {
		t.Errorf("sources not ordered by distance: %v > %v", sources[0].Score, sources[1].Score)
	}
}

func TestLocalStore_AddEmpty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.Add(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("Add(nil) = %d, %v; want 0, nil", n, err)
	}
}

func TestLocalStore_FolderFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, makeChunks("doc-a", "folder-a", "a.pdf", "shared phrase about invoices", "other text in a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, makeChunks("doc-b", "folder-b", "b.pdf", "shared phrase about invoices", "other text in b")); err != nil {
		t.Fatal(err)
	}

	sources, err := s.Query(ctx, "shared phrase about invoices", "folder-b", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources in folder-b, got %d", len(sources))
	}
	for _, src := range sources {
		if src.DocumentID != "doc-b" {
			t.Errorf("folder-scoped query returned chunk of %s", src.DocumentID)
		}
	}

	all, err := s.Query(ctx, "shared phrase about invoices", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("unfiltered query returned %d sources, want 4", len(all))
	}
}

func TestLocalStore_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, makeChunks("doc-1", "f", "one.pdf", "alpha beta", "gamma delta", "epsilon")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, makeChunks("doc-2", "f", "two.pdf", "alpha beta")); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteByDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	// deleting again is a no-op
	if err := s.DeleteByDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("second DeleteByDocument() error = %v", err)
	}

	for _, folder := range []string{"", "f"} {
		sources, err := s.Query(ctx, "alpha beta", folder, 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, src := range sources {
			if src.DocumentID == "doc-1" {
				t.Errorf("deleted document returned for folder %q", folder)
			}
		}
	}

	ids, err := s.DocumentIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "doc-2" {
		t.Errorf("DocumentIDs() = %v, want [doc-2]", ids)
	}
}

func TestLocalStore_QueryEmpty(t *testing.T) {
	s := newTestStore(t)
	sources, err := s.Query(context.Background(), "anything at all", "", 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
}

func TestLocalStore_DocumentIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Add(ctx, makeChunks("d1", "f", "1.pdf", "a", "b"))
	s.Add(ctx, makeChunks("d2", "g", "2.pdf", "c"))

	ids, err := s.DocumentIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "d1" || ids[1] != "d2" {
		t.Errorf("DocumentIDs() = %v", ids)
	}
	if err := s.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestQuote(t *testing.T) {
	if got := eqExpr(FieldFolderID, `a"b\c`); got != `folder_id == "a\"b\\c"` {
		t.Errorf("eqExpr() = %s", got)
	}
}

func TestTruncateUTF8(t *testing.T) {
	long := strings.Repeat("文", 512) // 1536 bytes
	if got := truncateUTF8(long, maxTitleBytes); got != long {
		t.Error("a 512 character title must fit unchanged")
	}
	if got := truncateUTF8("ab文", 4); got != "ab" {
		t.Errorf("truncateUTF8() = %q, want a cut on a character boundary", got)
	}
	if got := truncateUTF8("abc", 10); got != "abc" {
		t.Errorf("truncateUTF8() = %q", got)
	}
}

func TestLocalStore_WarnsOnceOnDimensionChange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	small, err := embedding.NewHashModel(64)
	if err != nil {
		t.Fatal(err)
	}
	old, err := NewLocalStore(dir, small, LocalOptions{}, logger.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := old.Add(ctx, makeChunks("doc-1", "f1", "a.pdf", "alpha beta", "gamma delta")); err != nil {
		t.Fatal(err)
	}
	old.Close()

	large, err := embedding.NewHashModel(128)
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	s, err := NewLocalStore(dir, large, LocalOptions{}, logger.NewWriter(&logs))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	for i := 0; i < 2; i++ {
		got, err := s.Query(ctx, "alpha", "", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("Query() returned %d sources with mismatched dimensions", len(got))
		}
	}
	if n := strings.Count(logs.String(), "re-index"); n != 1 {
		t.Errorf("dimension warning logged %d times, want 1; logs:\n%s", n, logs.String())
	}
}
