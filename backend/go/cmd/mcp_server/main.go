package main

import (
	"DocQA/backend/go/internal/config"
	"DocQA/backend/go/internal/rag_service/app"
	"DocQA/backend/go/internal/rag_service/mcptools"
	"context"
	"flag"
	"fmt"
	"os"

	"DocQA/backend/go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// Define command-line flags
	transport := flag.String("transport", "stdio", "Transport method: stdio, sse, or httpstream")
	port := flag.String("port", "8090", "Port for HTTP-based transports (sse, httpstream)")
	configPath := flag.String("config", "config/config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout 留给 MCP 协议
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	logger.SetOutput(os.Stderr)
	log := logger.New("DocQAMCP", "", "")

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to build application: %v", err))
	}
	defer a.Close()

	s := mcptools.NewServer(a.Service)

	// Start server based on transport selection
	switch *transport {
	case "sse":
		log.Info(fmt.Sprintf("Starting DocQA MCP server with SSE transport on port %s", *port))
		if err := server.NewSSEServer(s).Start(":" + *port); err != nil {
			log.Error(fmt.Sprintf("Server error: %v", err))
		}
	case "httpstream":
		log.Info(fmt.Sprintf("Starting DocQA MCP server with StreamableHTTP transport on port %s", *port))
		if err := server.NewStreamableHTTPServer(s).Start(":" + *port); err != nil {
			log.Error(fmt.Sprintf("Server error: %v", err))
		}
	case "stdio":
		log.Info("Starting DocQA MCP server with STDIO transport")
		if err := server.ServeStdio(s); err != nil {
			log.Error(fmt.Sprintf("Server error: %v", err))
		}
	default:
		log.Error(fmt.Sprintf("Unknown transport: %s. Use stdio, sse, or httpstream", *transport))
	}
}

// STDIO transport (default)
//go run ./backend/go/cmd/mcp_server -transport=stdio

// StreamableHTTP transport on port 9000
//go run ./backend/go/cmd/mcp_server -transport=httpstream -port=9000
