package embedding

import (
	"context"
	"fmt"
)

// NewEmdModel 根据指定的提供商创建并返回一个新的 Embedding 实例。
//
// 参数:
//
//	provider: "hash" 或 "ollama"。
//	model: Ollama 模型名称。
//	baseURL: Ollama 服务地址 (可选)。
//	dim: hash 向量维度。
func NewEmdModel(provider, model, baseURL string, dim int) (Embedding, error) {
	switch ModelType(provider) {
	case Hash, "":
		return NewHashModel(dim)
	case Ollama:
		return NewOllamaModel(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// Dimension 通过嵌入一段探测文本得到向量维度。
func Dimension(ctx context.Context, m Embedding) (int, error) {
	if h, ok := m.(*HashModel); ok {
		return h.dim, nil
	}
	vec, err := m.Embed(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("embedding model returned an empty vector")
	}
	return len(vec), nil
}
