package llm

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
)

// LLM 定义了回答生成所需的单轮补全接口。
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Configured 判断当前配置是否具备调用模型的条件。
// openai 与 gemini 需要 API 密钥；ollama 在本机运行，只要选择了它即视为可用。
func Configured(cfg config.LLMConfig) bool {
	switch cfg.Provider {
	case "ollama":
		return true
	default:
		return cfg.APIKey != ""
	}
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL), nil
	case "gemini":
		return NewGemini(ctx, cfg.Model, cfg.APIKey)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
