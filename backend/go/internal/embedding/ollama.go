package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const (
	defaultOllamaURL     = "http://localhost:11434"
	defaultOllamaTimeout = 120 * time.Second
)

// OllamaModel 通过本机运行的 Ollama 服务计算 chunk 与问题的 embedding。
type OllamaModel struct {
	client *ollama.Client
	model  string
}

// NewOllamaModel 创建 OllamaModel。baseURL 为空时使用本机默认端口。
func NewOllamaModel(model, baseURL string) (*OllamaModel, error) {
	return newOllamaModel(model, baseURL, &http.Client{Timeout: defaultOllamaTimeout})
}

func newOllamaModel(model, baseURL string, hc *http.Client) (*OllamaModel, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama embedding model name is required")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}
	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Embed 计算单个文本的向量, 用于检索时的问题。
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch 一次请求计算一批 chunk 的向量, 返回顺序与输入一致。
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed with model %s: %w", m.model, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

var _ Embedding = (*OllamaModel)(nil)
