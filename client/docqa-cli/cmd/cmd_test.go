package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"answer":"42","sources":[{"document_title":"guide.pdf","page_number":3,"snippet":"s","score":0.25}]}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "query", "--folder", "f-1", "what is the answer?")
	if err != nil {
		t.Fatal(err)
	}
	if got["question"] != "what is the answer?" || got["folder_id"] != "f-1" {
		t.Errorf("request body = %v", got)
	}
	if !strings.Contains(out, "42") || !strings.Contains(out, "guide.pdf, p.3") {
		t.Errorf("output = %q", out)
	}
}

func TestUploadCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/f-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "report.pdf" || string(data) != "%PDF-1.4 body" {
			t.Errorf("got %s %q", header.Filename, data)
		}
		w.Write([]byte(`{"status":"success","chunks_indexed":7}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, srv, "upload", "f-9", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "7 chunks indexed") {
		t.Errorf("output = %q", out)
	}
}

func TestErrorDetailIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"record already exists: folder \"Legal\""}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "folder", "create", "Legal")
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *apiError", err)
	}
	if apiErr.Status != http.StatusBadRequest || !strings.Contains(apiErr.Detail, "already exists") {
		t.Errorf("apiError = %+v", apiErr)
	}
}

func TestFolderListCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a1","name":"Contracts","created_at":"2024-05-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "folder", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "a1") || !strings.Contains(out, "Contracts") || !strings.Contains(out, "2024-05-01 10:00:00") {
		t.Errorf("output = %q", out)
	}
}
