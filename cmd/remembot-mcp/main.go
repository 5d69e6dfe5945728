// Command remembot-mcp serves the content store to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raymondclowe/RememBot/internal/classifier"
	"github.com/raymondclowe/RememBot/internal/config"
	"github.com/raymondclowe/RememBot/internal/extractor"
	"github.com/raymondclowe/RememBot/internal/mcp"
	"github.com/raymondclowe/RememBot/internal/search"
	"github.com/raymondclowe/RememBot/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("RememBot MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr, stdout is reserved for the MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("remembot mcp server starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName,
		"db", cfg.DatabasePath)

	store, err := storage.NewSQLiteStore(cfg.DatabasePath, &storage.Options{
		DisableFTS: cfg.DisableFTS,
	})
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	engine := search.NewEngine(store, logger)
	pipeline := extractor.New(&http.Client{Timeout: cfg.RequestTimeout}, logger)

	// Same taxonomy chain as the parser binary: LLM when a key is
	// configured, keyword heuristic always
	links := []classifier.Classifier{}
	if cfg.OpenRouterAPIKey != "" {
		links = append(links, classifier.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, ""))
	}
	links = append(links, classifier.NewKeyword())
	chain := classifier.NewChain(logger, links...)

	server, err := mcp.NewServer(store, engine, pipeline, chain, cfg.MaxAttempts)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("mcp server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
