package main

import (
	"Recall_1.0/backend/go/internal/bootstrap"
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/mcp"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	transport := flag.String("transport", "stdio", "Transport method: stdio, sse, or httpstream")
	port := flag.String("port", "8081", "Port for HTTP-based transports (sse, httpstream)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	if *transport == "stdio" {
		// stdout carries the protocol.
		logger.SetOutput(os.Stderr)
	}
	appLogger := logger.New("memory_mcp", "", "")

	components, err := bootstrap.Build(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer components.Close(context.Background())

	s := server.NewMCPServer("recall-memory", cfg.App.Version)
	mcp.NewHandler(components.Memory, components.Relationships).Register(s)

	switch *transport {
	case "sse":
		appLogger.Info("starting MCP server with SSE transport on port " + *port)
		if err := server.NewSSEServer(s).Start(":" + *port); err != nil {
			appLogger.Fatal("SSE server error: " + err.Error())
		}
	case "httpstream":
		appLogger.Info("starting MCP server with StreamableHTTP transport on port " + *port)
		if err := server.NewStreamableHTTPServer(s).Start(":" + *port); err != nil {
			appLogger.Fatal("HTTP server error: " + err.Error())
		}
	case "stdio":
		if err := server.ServeStdio(s); err != nil {
			appLogger.Fatal("STDIO server error: " + err.Error())
		}
	default:
		appLogger.Fatal("unknown transport " + *transport + ", use stdio, sse, or httpstream")
	}
}
