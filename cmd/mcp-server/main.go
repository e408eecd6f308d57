// Package main provides the MCP server entry point. It runs standalone
// over stdio with a local SQLite archive - no external databases.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindwell-assessment-server/internal/config"
	"github.com/mindwell-assessment-server/internal/mcp"
	"github.com/mindwell-assessment-server/internal/setup"
)

func main() {
	// Handle setup subcommand before starting the server
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI()
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	// Load lightweight configuration from environment
	cfg := config.LoadLiteConfig()

	log.Printf("Starting MindWell MCP Server, data directory: %s", cfg.DataDir)

	// Create MCP server
	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("MindWell MCP Server stopped")
}
