// Command remembot-parser runs the background extraction worker. It polls
// the pending queue, fetches and extracts content, and assigns taxonomy.
//
// Usage:
//
//	remembot-parser                run the polling loop until interrupted
//	remembot-parser --once         process one batch and exit
//	remembot-parser --reset-failed requeue permanently failed items and exit
//	remembot-parser --stats        print queue statistics and exit
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
	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	store, err := storage.NewSQLiteStore(cfg.DatabasePath, &storage.Options{
		DisableFTS: cfg.DisableFTS,
	})
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--reset-failed":
			revived, err := store.ResetFailed(context.Background(), cfg.MaxAttempts)
			if err != nil {
				logger.Error("reset failed", "error", err)
				os.Exit(1)
			}
			fmt.Printf("revived %d items\n", revived)
			return
		case "--stats":
			stats, err := store.ParseStats(context.Background(), cfg.MaxAttempts)
			if err != nil {
				logger.Error("stats failed", "error", err)
				os.Exit(1)
			}
			fmt.Printf("pending:    %d\n", stats.Pending)
			fmt.Printf("processing: %d\n", stats.Processing)
			fmt.Printf("complete:   %d\n", stats.Complete)
			fmt.Printf("error:      %d\n", stats.Error)
			fmt.Printf("failed:     %d\n", stats.Failed)
			return
		case "--once", "":
			// Handled below
		default:
			fmt.Fprintf(os.Stderr, "unknown flag %q\n", os.Args[1])
			os.Exit(2)
		}
	}

	logger.Info("remembot parser starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"db", cfg.DatabasePath)

	pipeline := extractor.New(&http.Client{Timeout: cfg.RequestTimeout}, logger)

	// Taxonomy chain: LLM when a key is configured, keyword heuristic always
	links := []classifier.Classifier{}
	if cfg.OpenRouterAPIKey != "" {
		links = append(links, classifier.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, ""))
	}
	links = append(links, classifier.NewKeyword())
	chain := classifier.NewChain(logger, links...)

	w := worker.New(store, pipeline, chain, worker.Config{
		PollInterval:      cfg.PollInterval,
		ErrorBackoff:      cfg.ErrorBackoff,
		BatchSize:         cfg.BatchSize,
		Concurrency:       cfg.Concurrency,
		MaxAttempts:       cfg.MaxAttempts,
		ProcessingTimeout: cfg.ProcessingTimeout,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		if err := w.RunCycle(ctx); err != nil {
			logger.Error("cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("parser stopped")
}
