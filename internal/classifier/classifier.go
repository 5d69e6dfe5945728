// Package classifier assigns library-style taxonomy to extracted text:
// a Dewey Decimal class, subject labels, and a confidence score. Two
// implementations exist: an LLM-backed classifier calling OpenRouter and a
// keyword heuristic that needs no network. Chain composes them so the
// heuristic answers whenever the LLM is unavailable.
package classifier

import (
	"context"
	"log/slog"

	"github.com/raymondclowe/RememBot/pkg/types"
)

// Classifier assigns a taxonomy blob to extracted text
type Classifier interface {
	Classify(ctx context.Context, text string) (types.Blob, error)
}

// Chain tries classifiers in order, returning the first success. A primary
// failure is logged and the next classifier answers; Chain only errors when
// every link does.
type Chain struct {
	links  []Classifier
	logger *slog.Logger
}

// NewChain composes classifiers with fallback semantics
func NewChain(logger *slog.Logger, links ...Classifier) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{links: links, logger: logger}
}

func (c *Chain) Classify(ctx context.Context, text string) (types.Blob, error) {
	var lastErr error
	for i, link := range c.links {
		blob, err := link.Classify(ctx, text)
		if err == nil {
			return blob, nil
		}
		lastErr = err
		if i < len(c.links)-1 {
			c.logger.Warn("classifier failed, trying next", "error", err)
		}
	}
	return "", lastErr
}

// unclassified is the taxonomy for text with nothing to go on
func unclassified() (types.Blob, error) {
	return (&types.TaxonomyView{
		Confidence: 0,
		Method:     "none",
	}).Encode()
}
