package llm

import (
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于本机 Ollama 服务的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。baseURL 为空时默认为 "http://localhost:11434"。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{
		Timeout: 300 * time.Second,
	}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete 以非流式方式调用 generate 接口。
func (o *Ollama) Complete(ctx context.Context, system, user string) (string, error) {
	stream := false
	var answer string
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: user,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		answer += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrModelCall, err)
	}
	return answer, nil
}
