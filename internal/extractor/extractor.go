package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/pkg/types"
)

const (
	// maxBodyBytes bounds how much of a remote page is read
	maxBodyBytes = 10 << 20 // 10 MiB
	// maxExtractChars bounds stored extracted text
	maxExtractChars = 100_000

	userAgent = "RememBot/1.0 (+https://github.com/raymondclowe/RememBot)"
)

// Pipeline turns raw submissions into searchable text, dispatching on
// content type.
type Pipeline struct {
	client *http.Client
	logger *slog.Logger
}

// New creates an extraction pipeline. A nil client gets a default with a
// 30 second timeout.
func New(client *http.Client, logger *slog.Logger) *Pipeline {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{client: client, logger: logger}
}

// Extract produces the outcome for one item. Unknown content types and
// failed fetches fail the item; the caller decides on retries.
func (p *Pipeline) Extract(ctx context.Context, item *storage.ContentItem) types.Outcome {
	switch item.ContentType {
	case types.ContentText:
		return p.extractText(item)
	case types.ContentURL:
		return p.extractURL(ctx, item)
	case types.ContentImage:
		return placeholderOutcome(item, "image text extraction not available")
	case types.ContentDocument:
		return placeholderOutcome(item, "document text extraction not available")
	default:
		return types.Failure(fmt.Errorf("no extractor for content type %q", item.ContentType))
	}
}

// extractText passes the submission through, recording its length
func (p *Pipeline) extractText(item *storage.ContentItem) types.Outcome {
	text := strings.TrimSpace(item.OriginalShare)
	meta, err := (&types.MetadataView{ContentLength: len(text)}).Encode()
	if err != nil {
		return types.Failure(err)
	}
	return types.Outcome{ExtractedInfo: text, Metadata: meta}
}

// extractURL fetches the page and strips it down to title and readable text
func (p *Pipeline) extractURL(ctx context.Context, item *storage.ContentItem) types.Outcome {
	url := strings.TrimSpace(item.OriginalShare)
	if meta, err := types.DecodeMetadata(item.Metadata); err == nil && meta.URL != "" {
		url = meta.URL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Failure(fmt.Errorf("invalid url %q: %w", url, err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return types.Failure(fmt.Errorf("fetch failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return types.Failure(fmt.Errorf("fetch returned status %d", resp.StatusCode))
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	contentType := resp.Header.Get("Content-Type")

	var title, text string
	switch {
	case strings.Contains(contentType, "html"):
		title, text, err = readHTML(body)
		if err != nil {
			return types.Failure(fmt.Errorf("parse failed: %w", err))
		}
	case strings.HasPrefix(contentType, "text/"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return types.Failure(fmt.Errorf("read failed: %w", err))
		}
		text = string(raw)
	default:
		return types.Failure(fmt.Errorf("unsupported content type %q", contentType))
	}

	text = collapseWhitespace(text)
	if text == "" {
		// Pages with no readable text still become findable by their URL
		text = "URL: " + url
	}
	text = truncateRunes(text, maxExtractChars)
	if title != "" {
		text = title + "\n\n" + text
	}

	meta, err := (&types.MetadataView{
		Title:         title,
		URL:           url,
		ContentLength: len(text),
	}).Encode()
	if err != nil {
		return types.Failure(err)
	}
	return types.Outcome{ExtractedInfo: text, Metadata: meta}
}

// readHTML pulls the title and visible text out of a page
func readHTML(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	body := doc.Find("body")
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}
	return title, text, nil
}

// placeholderOutcome makes binary content findable by its caption or
// filename until a real extractor exists for it.
func placeholderOutcome(item *storage.ContentItem, note string) types.Outcome {
	text := strings.TrimSpace(item.OriginalShare)
	if meta, err := types.DecodeMetadata(item.Metadata); err == nil && meta.Note != "" {
		text = strings.TrimSpace(text + " " + meta.Note)
	}

	meta, err := (&types.MetadataView{Note: note}).Encode()
	if err != nil {
		return types.Failure(err)
	}
	return types.Outcome{ExtractedInfo: text, Metadata: meta}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes bounds s to max bytes, backing up so the cut never splits a
// multi-byte rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
