package app

import (
	"DocQA/backend/go/internal/config"
	"DocQA/backend/go/pkg/logger"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func localConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Databases.Relational.SQLite.Path = filepath.Join(dir, "rag_app.db")
	cfg.VectorStore.Path = filepath.Join(dir, "chroma_db")
	cfg.Storage.Dir = filepath.Join(dir, "uploads")
	cfg.LLM.APIKey = ""
	return cfg
}

func TestNew_DefaultsServeRequests(t *testing.T) {
	cfg := localConfig(t)
	cfg.Cache.Type = "memory"
	cfg.Middleware.RateLimiter.Enabled = true

	a, err := New(context.Background(), cfg, logger.NewDiscard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"hello?"}`))
	req.Header.Set("Content-Type", "application/json")
	a.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Based on the documents") {
		t.Errorf("query: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNew_RejectsUnknownBackends(t *testing.T) {
	for name, mutate := range map[string]func(*config.AppConfig){
		"vector store": func(c *config.AppConfig) { c.VectorStore.Type = "faiss" },
		"storage":      func(c *config.AppConfig) { c.Storage.Type = "ftp" },
		"cache":        func(c *config.AppConfig) { c.Cache.Type = "memcached" },
		"embedding":    func(c *config.AppConfig) { c.Embedding.Provider = "word2vec" },
	} {
		cfg := localConfig(t)
		mutate(cfg)
		if _, err := New(context.Background(), cfg, logger.NewDiscard()); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
