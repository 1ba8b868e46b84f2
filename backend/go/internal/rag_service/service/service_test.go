package service

import (
	"DocQA/backend/go/internal/database/sqldb"
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/cache"
	"DocQA/backend/go/internal/rag_service/rag/dal"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/rag/filestore"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"DocQA/backend/go/internal/rag_service/rag/splitters"
	"DocQA/backend/go/internal/rag_service/rag/storages/vectorstore"
	"DocQA/backend/go/internal/rag_service/rag/synthesizers"
	"DocQA/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const pdfHeader = "%PDF-1.4\n"

// textLoader treats everything after the PDF header as the text layer,
// one page per form feed. A body of "CORRUPT" fails extraction.
type textLoader struct{}

func (textLoader) Load(_ context.Context, path string) ([]schema.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrExtraction, err)
	}
	body := strings.TrimPrefix(string(data), pdfHeader)
	if body == "CORRUPT" {
		return nil, fmt.Errorf("%w: malformed xref table", errs.ErrExtraction)
	}
	var pages []schema.Page
	for i, text := range strings.Split(body, "\f") {
		if strings.TrimSpace(text) != "" {
			pages = append(pages, schema.Page{Number: i + 1, Text: text})
		}
	}
	return pages, nil
}

type countingSynth struct{ calls int }

func (c *countingSynth) Synthesize(_ context.Context, question string, sources []schema.Source) string {
	c.calls++
	return fmt.Sprintf("%s (%d sources)", question, len(sources))
}

// hookSynth runs during once, inside the next Synthesize call, to simulate
// a write that lands while a query is in flight.
type hookSynth struct{ during func() }

func (h *hookSynth) Synthesize(_ context.Context, question string, sources []schema.Source) string {
	if fn := h.during; fn != nil {
		h.during = nil
		fn()
	}
	return fmt.Sprintf("%s (%d sources)", question, len(sources))
}

type failingLLM struct{}

func (failingLLM) Complete(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: 401 invalid api key", errs.ErrModelCall)
}

type fixture struct {
	svc     *Service
	vectors *vectorstore.LocalStore
	dir     string
}

func newFixture(t *testing.T, synth interfaces.Synthesizer, queryCache *cache.QueryCache) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := sqldb.OpenSQLite(filepath.Join(dir, "rag_app.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dal.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqldb.Close(db) })

	emb, err := embedding.NewHashModel(256)
	if err != nil {
		t.Fatal(err)
	}
	vectors, err := vectorstore.NewLocalStore(filepath.Join(dir, "chroma_db"), emb, vectorstore.LocalOptions{}, logger.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vectors.Close() })

	files, err := filestore.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	splitter, err := splitters.NewCharSplitter(200, 40)
	if err != nil {
		t.Fatal(err)
	}
	if synth == nil {
		synth = synthesizers.NewPlaceholderSynthesizer()
	}

	svc := New(Dependencies{
		DB:          db,
		Files:       files,
		VectorStore: vectors,
		Loader:      textLoader{},
		Splitter:    splitter,
		Synthesizer: synth,
		Cache:       queryCache,
		TopK:        5,
		Log:         logger.NewDiscard(),
	})
	return &fixture{svc: svc, vectors: vectors, dir: dir}
}

func (f *fixture) folder(t *testing.T, name string) string {
	t.Helper()
	folder, err := f.svc.CreateFolder(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return folder.ID
}

func (f *fixture) upload(t *testing.T, folderID, filename string, pages ...string) *UploadResult {
	t.Helper()
	body := pdfHeader + strings.Join(pages, "\f")
	res, err := f.svc.Upload(context.Background(), folderID, filename, strings.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("Upload(%q) error = %v", filename, err)
	}
	return res
}

func titles(sources []schema.Source) map[string]bool {
	out := map[string]bool{}
	for _, s := range sources {
		out[s.DocumentTitle] = true
	}
	return out
}

func TestUpload_VerbatimPhraseIsRetrieved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Manuals")

	phrase := "the backup generator must be tested every first monday"
	res := f.upload(t, folderID, "ops.pdf", "introduction to the facility", phrase)
	if res.Status != "success" || res.ChunksIndexed != 2 {
		t.Fatalf("Upload() = %+v", res)
	}
	f.upload(t, folderID, "menu.pdf", "soup of the day is tomato basil")

	ans, err := f.svc.Query(ctx, phrase, folderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ans.Sources) == 0 {
		t.Fatal("expected sources")
	}
	top := ans.Sources[0]
	if top.DocumentTitle != "ops.pdf" || top.PageNumber != 2 || top.Snippet != phrase {
		t.Errorf("top source = %+v", top)
	}
	for i := 1; i < len(ans.Sources); i++ {
		if ans.Sources[i].Score < ans.Sources[i-1].Score {
			t.Errorf("sources not ordered by distance: %+v", ans.Sources)
		}
	}

	docs, err := f.svc.ListDocuments(ctx, folderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Status != models.DocumentStatusIndexed {
		t.Errorf("documents = %+v", docs)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "uploads", docs[0].StoredName())); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestDeleteDocument_RemovesAllChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Reports")
	f.upload(t, folderID, "q1.pdf", strings.Repeat("quarterly revenue grew ", 40), "margins held steady")
	f.upload(t, folderID, "q2.pdf", "second quarter outlook")

	docs, _ := f.svc.ListDocuments(ctx, folderID)
	var q1 *models.RagDocument
	for _, d := range docs {
		if d.Filename == "q1.pdf" {
			q1 = d
		}
	}
	if q1 == nil {
		t.Fatal("q1.pdf not listed")
	}

	if err := f.svc.DeleteDocument(ctx, q1.ID); err != nil {
		t.Fatal(err)
	}
	ids, err := f.vectors.DocumentIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if id == q1.ID {
			t.Fatal("chunks of deleted document still indexed")
		}
	}
	ans, _ := f.svc.Query(ctx, "quarterly revenue grew", "")
	if titles(ans.Sources)["q1.pdf"] {
		t.Errorf("deleted document still retrieved: %+v", ans.Sources)
	}

	if err := f.svc.DeleteDocument(ctx, q1.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestQuery_FolderIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	a := f.folder(t, "A")
	b := f.folder(t, "B")
	f.upload(t, a, "a.pdf", "shared topic: vacation policy for team A")
	f.upload(t, b, "b.pdf", "shared topic: vacation policy for team B")

	ans, err := f.svc.Query(ctx, "vacation policy", a)
	if err != nil {
		t.Fatal(err)
	}
	got := titles(ans.Sources)
	if !got["a.pdf"] || got["b.pdf"] {
		t.Errorf("folder A query returned %v", got)
	}

	ans, _ = f.svc.Query(ctx, "vacation policy", "")
	got = titles(ans.Sources)
	if !got["a.pdf"] || !got["b.pdf"] {
		t.Errorf("unscoped query returned %v", got)
	}
}

func TestQuery_EmptyCollection(t *testing.T) {
	f := newFixture(t, nil, nil)
	ans, err := f.svc.Query(context.Background(), "anything at all?", "")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Sources == nil || len(ans.Sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil slice", ans.Sources)
	}
	if !strings.HasPrefix(ans.Answer, "Based on the documents") {
		t.Errorf("answer = %q", ans.Answer)
	}
}

func TestQuery_BlankQuestion(t *testing.T) {
	f := newFixture(t, nil, nil)
	if _, err := f.svc.Query(context.Background(), "   ", ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("Query() error = %v, want ErrInvalidArgument", err)
	}
}

func TestQuery_ModelFailureDegrades(t *testing.T) {
	synth := synthesizers.NewModelSynthesizer(failingLLM{}, nil, time.Second, logger.NewDiscard())
	f := newFixture(t, synth, nil)
	folderID := f.folder(t, "Docs")
	f.upload(t, folderID, "doc.pdf", "some indexed text")

	ans, err := f.svc.Query(context.Background(), "what is indexed?", folderID)
	if err != nil {
		t.Fatalf("Query() error = %v, want degraded answer", err)
	}
	if !strings.HasPrefix(ans.Answer, "Error generating answer: ") {
		t.Errorf("answer = %q", ans.Answer)
	}
	if len(ans.Sources) != 1 {
		t.Errorf("sources = %+v", ans.Sources)
	}
}

func TestFolders_DuplicateAndRename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	id := f.folder(t, "Legal")

	if _, err := f.svc.CreateFolder(ctx, "Legal"); !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("duplicate create error = %v", err)
	}
	if _, err := f.svc.CreateFolder(ctx, " "); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("blank create error = %v", err)
	}

	other := f.folder(t, "Finance")
	if _, err := f.svc.RenameFolder(ctx, other, "Legal"); !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("rename onto taken name error = %v", err)
	}
	renamed, err := f.svc.RenameFolder(ctx, id, "Legal 2024")
	if err != nil || renamed.Name != "Legal 2024" {
		t.Errorf("RenameFolder() = %+v, %v", renamed, err)
	}
	if _, err := f.svc.RenameFolder(ctx, uuid.NewString(), "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("rename unknown error = %v", err)
	}

	folders, err := f.svc.ListFolders(ctx)
	if err != nil || len(folders) != 2 {
		t.Errorf("ListFolders() = %d, %v", len(folders), err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Inbox")

	_, err := f.svc.Upload(ctx, folderID, "notes.txt", strings.NewReader("plain text, not a pdf"), -1)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("non-PDF upload error = %v", err)
	}
	_, err = f.svc.Upload(ctx, uuid.NewString(), "a.pdf", strings.NewReader(pdfHeader+"text"), -1)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown folder upload error = %v", err)
	}

	docs, _ := f.svc.ListDocuments(ctx, folderID)
	if len(docs) != 0 {
		t.Errorf("rejected uploads left %d documents", len(docs))
	}
}

func TestUpload_ExtractionFailureMarksError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Broken")

	_, err := f.svc.Upload(ctx, folderID, "bad.pdf", strings.NewReader(pdfHeader+"CORRUPT"), -1)
	if !errors.Is(err, errs.ErrExtraction) {
		t.Fatalf("Upload() error = %v, want ErrExtraction", err)
	}
	docs, _ := f.svc.ListDocuments(ctx, folderID)
	if len(docs) != 1 || docs[0].Status != models.DocumentStatusError {
		t.Errorf("documents = %+v, want one with status error", docs)
	}
}

func TestUpload_NoTextIndexesZeroChunks(t *testing.T) {
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Scans")
	res := f.upload(t, folderID, "scan.pdf", "   ", "")
	if res.ChunksIndexed != 0 {
		t.Errorf("ChunksIndexed = %d, want 0", res.ChunksIndexed)
	}
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Temp")
	f.upload(t, folderID, "t.pdf", "temporary content")

	if err := f.svc.DeleteFolder(ctx, folderID); err != nil {
		t.Fatal(err)
	}
	ids, _ := f.vectors.DocumentIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("vectors left after folder delete: %v", ids)
	}
	if _, err := f.svc.ListDocuments(ctx, folderID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("ListDocuments() on deleted folder error = %v", err)
	}
	if err := f.svc.DeleteFolder(ctx, folderID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second DeleteFolder() error = %v", err)
	}
}

func TestReconcile_RemovesOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	folderID := f.folder(t, "Live")
	f.upload(t, folderID, "kept.pdf", "kept content")

	orphan := &schema.Chunk{
		ID:   uuid.NewString(),
		Text: "left behind by a crashed delete",
		Metadata: schema.ChunkMetadata{
			DocumentID:    "ghost",
			DocumentTitle: "ghost.pdf",
			FolderID:      folderID,
			PageNumber:    1,
		},
	}
	if _, err := f.vectors.Add(ctx, []*schema.Chunk{orphan}); err != nil {
		t.Fatal(err)
	}

	removed, err := f.svc.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Reconcile() removed %d, want 1", removed)
	}
	ids, _ := f.vectors.DocumentIDs(ctx)
	if len(ids) != 1 || ids[0] == "ghost" {
		t.Errorf("remaining document ids = %v", ids)
	}
}

func TestQuery_CacheInvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewMemoryStore(32, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	synth := &countingSynth{}
	f := newFixture(t, synth, cache.New(store, time.Minute))
	folderID := f.folder(t, "Cached")
	f.upload(t, folderID, "one.pdf", "first document")

	first, _ := f.svc.Query(ctx, "first?", folderID)
	second, _ := f.svc.Query(ctx, "first?", folderID)
	if synth.calls != 1 {
		t.Errorf("synthesizer called %d times, want 1", synth.calls)
	}
	if first.Answer != second.Answer {
		t.Errorf("cached answer %q != %q", second.Answer, first.Answer)
	}

	f.upload(t, folderID, "two.pdf", "second document")
	third, _ := f.svc.Query(ctx, "first?", folderID)
	if synth.calls != 2 {
		t.Errorf("synthesizer called %d times after upload, want 2", synth.calls)
	}
	if len(third.Sources) != 2 {
		t.Errorf("post-upload sources = %d, want 2", len(third.Sources))
	}
}

func TestQuery_DeleteDuringQueryNotServedFromCache(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewMemoryStore(32, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	synth := &hookSynth{}
	f := newFixture(t, synth, cache.New(store, time.Minute))
	folderID := f.folder(t, "Policies")
	f.upload(t, folderID, "handbook.pdf", "Vacation requests need two weeks notice.")

	docs, err := f.svc.ListDocuments(ctx, folderID)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments() = %v, %v", docs, err)
	}
	docID := docs[0].ID
	synth.during = func() {
		if err := f.svc.DeleteDocument(ctx, docID); err != nil {
			t.Errorf("DeleteDocument() error = %v", err)
		}
	}

	const question = "How much notice do vacation requests need?"
	inFlight, err := f.svc.Query(ctx, question, folderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(inFlight.Sources) == 0 {
		t.Fatal("in-flight query should still see the document it retrieved")
	}

	after, err := f.svc.Query(ctx, question, folderID)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range after.Sources {
		if src.DocumentID == docID || src.DocumentTitle == "handbook.pdf" {
			t.Errorf("query after delete returned deleted document source %+v", src)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, nil, nil)
	if err := f.svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
}
