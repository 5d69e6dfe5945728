package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/pkg/types"
)

// minRankedQueryLen is the shortest trimmed query answered through the
// ranked index. Shorter queries match too broadly to rank usefully and go
// straight to the substring scan.
const minRankedQueryLen = 3

// Store is the subset of the storage layer the engine needs. Narrow on
// purpose so tests can substitute failing implementations.
type Store interface {
	FTSEnabled() bool
	SearchRanked(ctx context.Context, ownerID int64, query string, page storage.Page) ([]*storage.ContentItem, int, error)
	SearchSubstring(ctx context.Context, ownerID int64, query string, page storage.Page) ([]*storage.ContentItem, int, error)
	List(ctx context.Context, ownerID int64, page storage.Page) ([]*storage.ContentItem, int, error)
	LogActivity(ctx context.Context, rec storage.ActivityRecord) error
}

// Request contains parameters for a search operation
type Request struct {
	OwnerID        int64
	Query          string
	ContentType    string
	SourcePlatform string
	Limit          int
	Offset         int
	UseCache       bool
	CacheTTL       time.Duration
}

// Response contains search results and metadata
type Response struct {
	Items    []*storage.ContentItem
	Total    int
	Strategy types.SearchStrategy
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Engine answers queries over an owner's stored content. It prefers the
// ranked full-text path and quietly degrades to a substring scan; a query
// never fails just because the index is unavailable.
type Engine struct {
	store   Store
	logger  *slog.Logger
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewEngine creates a search engine over the given store
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	// LRU evicts least recently used entries past 1000
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Engine{store: store, logger: logger, cache: cache}
}

// Search executes a query for one owner. An empty query lists recent items.
// The response reports which strategy actually answered. Both the query and
// its result count land in the owner's activity trail; trail failures are
// logged, never surfaced.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	e.normalize(&req)

	trimmed := strings.TrimSpace(req.Query)

	if err := e.store.LogActivity(ctx, storage.ActivityRecord{
		OwnerID: req.OwnerID,
		Action:  types.ActionSearch,
		Query:   &trimmed,
	}); err != nil {
		e.logger.Warn("failed to log search activity", "owner", req.OwnerID, "error", err)
	}

	if req.UseCache {
		if cached := e.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			e.logResult(ctx, req.OwnerID, trimmed, cached.Total)
			return cached, nil
		}
	}

	page := storage.Page{
		ContentType:    req.ContentType,
		SourcePlatform: req.SourcePlatform,
		Limit:          req.Limit,
		Offset:         req.Offset,
	}

	response, err := e.execute(ctx, req.OwnerID, trimmed, page)
	if err != nil {
		return nil, err
	}
	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Items) > 0 {
		e.storeInCache(req, response)
	}

	e.logResult(ctx, req.OwnerID, trimmed, response.Total)
	return response, nil
}

// execute picks the strategy: listing for empty queries, ranked when the
// index is up and the query is long enough, substring otherwise. A ranked
// failure degrades to substring instead of surfacing.
func (e *Engine) execute(ctx context.Context, ownerID int64, query string, page storage.Page) (*Response, error) {
	if query == "" {
		items, total, err := e.store.List(ctx, ownerID, page)
		if err != nil {
			return nil, fmt.Errorf("listing failed: %w", err)
		}
		return &Response{Items: items, Total: total, Strategy: types.StrategyListing}, nil
	}

	if e.store.FTSEnabled() && len([]rune(query)) >= minRankedQueryLen {
		items, total, err := e.store.SearchRanked(ctx, ownerID, query, page)
		if err == nil {
			return &Response{Items: items, Total: total, Strategy: types.StrategyRanked}, nil
		}
		e.logger.Warn("ranked search failed, falling back to substring scan",
			"owner", ownerID, "error", err)
	}

	items, total, err := e.store.SearchSubstring(ctx, ownerID, query, page)
	if err != nil {
		return nil, fmt.Errorf("substring search failed: %w", err)
	}
	return &Response{Items: items, Total: total, Strategy: types.StrategyFallback}, nil
}

func (e *Engine) logResult(ctx context.Context, ownerID int64, query string, total int) {
	if err := e.store.LogActivity(ctx, storage.ActivityRecord{
		OwnerID:     ownerID,
		Action:      types.ActionSearchResult,
		Query:       &query,
		ResultCount: &total,
	}); err != nil {
		e.logger.Warn("failed to log search result activity", "owner", ownerID, "error", err)
	}
}

func (e *Engine) normalize(req *Request) {
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 5 * time.Minute
	}
}

// computeQueryHash keys the cache on everything that shapes the result set
func computeQueryHash(req Request) [32]byte {
	key := fmt.Sprintf("%d|%s|%s|%s|%d|%d",
		req.OwnerID, strings.TrimSpace(req.Query),
		req.ContentType, req.SourcePlatform, req.Limit, req.Offset)
	return sha256.Sum256([]byte(key))
}

// checkCache returns a copy of a live cached response, or nil on miss
func (e *Engine) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	e.cacheMu.RLock()
	entry, found := e.cache.Get(hash)
	if !found {
		e.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		e.cacheMu.RUnlock()
		e.cacheMu.Lock()
		e.cache.Remove(hash)
		e.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	e.cacheMu.RUnlock()
	return response
}

func (e *Engine) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}
	e.cacheMu.Lock()
	e.cache.Add(computeQueryHash(req), entry)
	e.cacheMu.Unlock()
}

// InvalidateOwner drops every cached response for one owner. Called after
// writes so a user never sees their own stale results.
func (e *Engine) InvalidateOwner(ownerID int64) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	for _, key := range e.cache.Keys() {
		entry, ok := e.cache.Peek(key)
		if !ok {
			continue
		}
		for _, item := range entry.response.Items {
			if item.OwnerID == ownerID {
				e.cache.Remove(key)
				break
			}
		}
	}
}

// copyResponse creates a copy so cache entries stay isolated from callers
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}
	dst := &Response{
		Total:    src.Total,
		Strategy: src.Strategy,
		CacheHit: src.CacheHit,
	}
	dst.Items = make([]*storage.ContentItem, len(src.Items))
	copy(dst.Items, src.Items)
	return dst
}
