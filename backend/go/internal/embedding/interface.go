package embedding

import "context"

// Embedding 定义了向量库内部使用的本地 embedding 函数需要实现的接口。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量，返回顺序与输入一致。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType 表示本地 embedding 函数的实现。
type ModelType string

const (
	Hash   ModelType = "hash"   // 进程内特征哈希。
	Ollama ModelType = "ollama" // 本机 Ollama 服务。
)
