package llm

import (
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini 是一个用于 Gemini API 的 LLM 客户端。
type Gemini struct {
	client    *genai.Client // GenAI 客户端，关闭时使用。
	modelName string
}

// NewGemini 使用 API 密钥创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("无法创建 GenAI 客户端: %w", err)
	}
	return &Gemini{client: client, modelName: model}, nil
}

// Complete 将 system 作为系统指令，user 作为单轮输入，返回第一个候选的全部文本。
func (g *Gemini) Complete(ctx context.Context, system, user string) (string, error) {
	// 每次调用新建模型句柄，SystemInstruction 不会在请求之间共享。
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrModelCall, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", errs.ErrModelCall)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close 释放底层的 gRPC 连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}
