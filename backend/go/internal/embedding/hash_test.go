package embedding

import (
	"context"
	"math"
	"testing"
)

func l2(a, b []float32) float64 {
	var d float64
	for i := range a {
		diff := float64(a[i] - b[i])
		d += diff * diff
	}
	return d
}

func TestHashModel_Deterministic(t *testing.T) {
	m, err := NewHashModel(64)
	if err != nil {
		t.Fatalf("NewHashModel() error = %v", err)
	}
	a, _ := m.Embed(context.Background(), "The quick brown fox")
	b, _ := m.Embed(context.Background(), "the QUICK brown, fox!")
	if l2(a, b) != 0 {
		t.Errorf("expected case and punctuation insensitive vectors to match, distance = %v", l2(a, b))
	}
}

func TestHashModel_Normalised(t *testing.T) {
	m, _ := NewHashModel(384)
	vec, _ := m.Embed(context.Background(), "retrieval augmented generation over pdf folders")
	if len(vec) != 384 {
		t.Fatalf("len = %d, want 384", len(vec))
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestHashModel_EmptyText(t *testing.T) {
	m, _ := NewHashModel(16)
	vec, err := m.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for blank text, got %v", vec)
		}
	}
}

func TestHashModel_SharedPhraseIsCloser(t *testing.T) {
	m, _ := NewHashModel(384)
	ctx := context.Background()
	query, _ := m.Embed(ctx, "mitochondria is the powerhouse of the cell")
	related, _ := m.Embed(ctx, "In biology class we learned that mitochondria is the powerhouse of the cell.")
	unrelated, _ := m.Embed(ctx, "Quarterly revenue grew eleven percent on strong hardware sales.")
	if l2(query, related) >= l2(query, unrelated) {
		t.Errorf("related distance %v should be below unrelated distance %v", l2(query, related), l2(query, unrelated))
	}
}

func TestHashModel_EmbedBatchOrder(t *testing.T) {
	m, _ := NewHashModel(32)
	ctx := context.Background()
	texts := []string{"alpha", "beta gamma", ""}
	batch, err := m.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	for i, text := range texts {
		single, _ := m.Embed(ctx, text)
		if l2(single, batch[i]) != 0 {
			t.Errorf("batch[%d] differs from Embed(%q)", i, text)
		}
	}
}

func TestNewEmdModel(t *testing.T) {
	if _, err := NewEmdModel("hash", "", "", 8); err != nil {
		t.Errorf("hash provider: unexpected error %v", err)
	}
	if _, err := NewEmdModel("ollama", "all-minilm", "http://127.0.0.1:11434", 0); err != nil {
		t.Errorf("ollama provider: unexpected error %v", err)
	}
	if _, err := NewEmdModel("word2vec", "", "", 8); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewHashModel(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestDimension(t *testing.T) {
	m, _ := NewHashModel(48)
	dim, err := Dimension(context.Background(), m)
	if err != nil || dim != 48 {
		t.Errorf("Dimension() = %d, %v; want 48, nil", dim, err)
	}
}
