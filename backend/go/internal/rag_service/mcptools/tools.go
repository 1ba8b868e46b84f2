// Package mcptools exposes the document QA service as MCP tools so agents
// can browse folders and ask questions over stdio, SSE or streamable HTTP.
package mcptools

import (
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/pipeline"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version 是 MCP 服务的版本号
var Version = "1.0.0"

// Backend is the part of the service the tools call into.
type Backend interface {
	ListFolders(ctx context.Context) ([]*models.RagFolder, error)
	ListDocuments(ctx context.Context, folderID string) ([]*models.RagDocument, error)
	Query(ctx context.Context, question, folderID string) (*pipeline.Answer, error)
}

// Tools holds the tool handlers.
type Tools struct {
	backend Backend
}

func NewTools(backend Backend) *Tools {
	return &Tools{backend: backend}
}

// NewServer 创建注册了全部文档问答工具的 MCP 服务。
func NewServer(backend Backend) *server.MCPServer {
	t := NewTools(backend)
	s := server.NewMCPServer(
		"docqa",
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool(
		"list_folders",
		mcp.WithDescription("List the document folders. Each folder has an id to scope questions with."),
	), t.HandleListFolders)

	s.AddTool(mcp.NewTool(
		"list_documents",
		mcp.WithDescription("List the PDF documents in a folder with their ingestion status."),
		mcp.WithString("folder_id",
			mcp.Description("Id of the folder, as returned by list_folders"),
			mcp.Required(),
		),
	), t.HandleListDocuments)

	s.AddTool(mcp.NewTool(
		"ask_documents",
		mcp.WithDescription("Answer a question from the uploaded PDFs. Returns the answer and the cited passages with document title and page."),
		mcp.WithString("question",
			mcp.Description("The question to answer"),
			mcp.Required(),
		),
		mcp.WithString("folder_id",
			mcp.Description("Restrict the search to this folder. Omit to search every folder."),
		),
	), t.HandleAsk)

	return s
}

func (t *Tools) HandleListFolders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folders, err := t.backend.ListFolders(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list folders: %v", err)), nil
	}
	return jsonResult(folders)
}

func (t *Tools) HandleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folderID, err := request.RequireString("folder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := t.backend.ListDocuments(ctx, folderID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list documents: %v", err)), nil
	}
	return jsonResult(docs)
}

func (t *Tools) HandleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := t.backend.Query(ctx, question, request.GetString("folder_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to answer: %v", err)), nil
	}
	return jsonResult(answer)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
