package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/pkg/types"
)

// Store is the subset of the storage layer the worker needs
type Store interface {
	PendingItems(ctx context.Context, limit, maxAttempts int) ([]*storage.ContentItem, error)
	MarkProcessing(ctx context.Context, itemID int64) (bool, error)
	MarkComplete(ctx context.Context, itemID int64, outcome storage.CompletedParse) error
	MarkError(ctx context.Context, itemID int64, message string) error
}

// Extractor turns a raw submission into searchable text and metadata
type Extractor interface {
	Extract(ctx context.Context, item *storage.ContentItem) types.Outcome
}

// Classifier assigns a taxonomy to extracted text. Optional: classification
// failure never fails the item.
type Classifier interface {
	Classify(ctx context.Context, text string) (types.Blob, error)
}

// Config controls the polling loop and the per-item pipeline
type Config struct {
	PollInterval      time.Duration // Delay between queue polls
	ErrorBackoff      time.Duration // Extra delay after a failed cycle
	BatchSize         int           // Items fetched per cycle
	Concurrency       int           // Items processed in parallel
	MaxAttempts       int           // Attempt cap before items age out
	ProcessingTimeout time.Duration // Per-item deadline
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ErrorBackoff == 0 {
		c.ErrorBackoff = 10 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.ProcessingTimeout == 0 {
		c.ProcessingTimeout = 5 * time.Minute
	}
}

// Worker drains the pending queue: it claims items, runs extraction and
// classification, and records terminal outcomes. Multiple workers can share
// one database; the claim step guarantees each item is processed once.
type Worker struct {
	store      Store
	extractor  Extractor
	classifier Classifier
	cfg        Config
	logger     *slog.Logger
}

// New creates a worker. classifier may be nil to skip taxonomy assignment.
func New(store Store, extractor Extractor, classifier Classifier, cfg Config, logger *slog.Logger) *Worker {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run polls the queue until ctx is cancelled. A failed cycle backs off and
// the loop continues; in-flight items finish before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.Info("worker started",
		"poll_interval", w.cfg.PollInterval,
		"batch_size", w.cfg.BatchSize,
		"concurrency", w.cfg.Concurrency)

	// Cancellation stops the loop between cycles; dispatched items run on a
	// detached context so they reach a terminal state instead of sticking in
	// processing. The per-item timeout still bounds each of them.
	workCtx := context.WithoutCancel(ctx)

	// Run immediately on start
	if err := w.RunCycle(workCtx); err != nil {
		w.backoff(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunCycle(workCtx); err != nil {
				w.backoff(ctx, err)
			}
		}
	}
}

func (w *Worker) backoff(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Error("processing cycle failed", "error", err, "backoff", w.cfg.ErrorBackoff)
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.ErrorBackoff):
	}
}

// RunCycle fetches one batch of pending items and processes them with
// bounded parallelism. Returns how the queue fetch went; individual item
// failures are recorded on the items, not returned.
func (w *Worker) RunCycle(ctx context.Context) error {
	items, err := w.store.PendingItems(ctx, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	w.logger.Debug("processing batch", "items", len(items))

	semaphore := make(chan struct{}, w.cfg.Concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for _, item := range items {
		item := item
		g.Go(func() error {
			select {
			case semaphore <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-semaphore }()

			w.ProcessItem(gctx, item)
			return nil
		})
	}

	return g.Wait()
}

// ProcessItem runs the full pipeline for one item. Items another worker
// already claimed are skipped quietly. Every path out of a successful claim
// lands in a terminal state, so items never stick in processing.
func (w *Worker) ProcessItem(ctx context.Context, item *storage.ContentItem) {
	claimed, err := w.store.MarkProcessing(ctx, item.ID)
	if err != nil {
		w.logger.Error("failed to claim item", "item", item.ID, "error", err)
		return
	}
	if !claimed {
		// Someone else got there first
		return
	}

	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, w.cfg.ProcessingTimeout)
	defer cancel()

	outcome := w.extractor.Extract(pctx, item)
	if outcome.Failed() {
		w.logger.Warn("extraction failed",
			"item", item.ID, "type", item.ContentType, "error", outcome.Err)
		if err := w.store.MarkError(ctx, item.ID, outcome.Err.Error()); err != nil {
			w.logger.Error("failed to record item error", "item", item.ID, "error", err)
		}
		return
	}

	taxonomy := outcome.Taxonomy
	if w.classifier != nil && outcome.ExtractedInfo != "" {
		blob, err := w.classifier.Classify(pctx, outcome.ExtractedInfo)
		if err != nil {
			// Classification is best-effort; the item still completes
			w.logger.Warn("classification failed", "item", item.ID, "error", err)
		} else {
			taxonomy = blob
		}
	}

	elapsed := float64(time.Since(start).Milliseconds())
	completed := storage.CompletedParse{
		ExtractedInfo:    &outcome.ExtractedInfo,
		ProcessingTimeMs: &elapsed,
	}
	if outcome.Metadata != "" {
		completed.Metadata = &outcome.Metadata
	}
	if taxonomy != "" {
		completed.Taxonomy = &taxonomy
	}

	if err := w.store.MarkComplete(ctx, item.ID, completed); err != nil {
		w.logger.Error("failed to record completed item", "item", item.ID, "error", err)
		return
	}

	w.logger.Info("item processed",
		"item", item.ID, "type", item.ContentType, "duration_ms", elapsed)
}
