package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/raymondclowe/RememBot/internal/search"
	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Item does not exist for this owner
	ErrorCodeEmptyContent  = -32004 // Content parameter is empty
)

// snippetLen bounds the extracted-text preview in search results
const snippetLen = 200

// handleSaveContent handles the save_content tool invocation
func (s *Server) handleSaveContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeEmptyContent, "content parameter is required and cannot be empty", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	contentType := types.ContentType(getStringDefault(args, "content_type", "text"))
	if !contentType.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid content_type", map[string]interface{}{
			"param":   "content_type",
			"value":   string(contentType),
			"allowed": []string{"text", "url", "image", "document"},
		})
	}

	metadata, err := metadataBlob(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid metadata", map[string]interface{}{
			"param":  "metadata",
			"reason": err.Error(),
		})
	}

	// URL submissions carry their URL in metadata so platform detection and
	// later re-fetching have it even when the caller sent none.
	if contentType == types.ContentURL {
		metadata, err = ensureMetadataURL(metadata, content)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to prepare metadata", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	params := storage.CreateParams{
		OwnerID:       ownerID,
		OriginalShare: content,
		ContentType:   contentType,
		Metadata:      metadata,
	}

	var duplicates []int64
	if contentType == types.ContentText {
		// Text needs no fetching: extract inline and store it complete
		outcome := s.pipeline.Extract(ctx, &storage.ContentItem{
			OriginalShare: content,
			Metadata:      metadata,
			ContentType:   contentType,
		})
		if outcome.Failed() {
			return nil, newMCPError(ErrorCodeInternalError, "extraction failed", map[string]interface{}{
				"error": outcome.Err.Error(),
			})
		}
		params.ExtractedInfo = &outcome.ExtractedInfo
		params.ParseStatus = types.StatusComplete
		params.Metadata, err = mergeBlobs(metadata, outcome.Metadata)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to merge metadata", map[string]interface{}{
				"error": err.Error(),
			})
		}

		// Taxonomy is best-effort at save time too
		if blob, cerr := s.taxonomy.Classify(ctx, outcome.ExtractedInfo); cerr != nil {
			slog.Warn("classification failed, saving without taxonomy", "error", cerr)
		} else {
			params.Taxonomy = blob
		}

		hash := storage.ContentHash(outcome.ExtractedInfo)
		existing, err := s.store.FindByHash(ctx, ownerID, hash, 5)
		if err == nil {
			for _, item := range existing {
				duplicates = append(duplicates, item.ID)
			}
		}
	}

	id, err := s.store.CreateItem(ctx, params)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save content", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.engine.InvalidateOwner(ownerID)

	status := params.ParseStatus
	if status == "" {
		status = types.StatusPending
	}
	response := map[string]interface{}{
		"item_id":      id,
		"content_type": string(contentType),
		"parse_status": string(status),
	}
	if len(duplicates) > 0 {
		response["duplicate_of"] = duplicates
		response["warning"] = "identical content already saved"
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchContent handles the search_content tool invocation
func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}

	limit, offset, err := pageParams(args)
	if err != nil {
		return nil, err
	}

	resp, err := s.engine.Search(ctx, search.Request{
		OwnerID:        ownerID,
		Query:          getStringDefault(args, "query", ""),
		ContentType:    getStringDefault(args, "content_type", ""),
		SourcePlatform: getStringDefault(args, "source_platform", ""),
		Limit:          limit,
		Offset:         offset,
		UseCache:       true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, summarizeItem(item))
	}

	response := map[string]interface{}{
		"results":     results,
		"total":       resp.Total,
		"strategy":    string(resp.Strategy),
		"duration_ms": resp.Duration.Milliseconds(),
		"cache_hit":   resp.CacheHit,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListContent handles the list_content tool invocation
func (s *Server) handleListContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}

	limit, offset, err := pageParams(args)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.List(ctx, ownerID, storage.Page{
		ContentType:    getStringDefault(args, "content_type", ""),
		SourcePlatform: getStringDefault(args, "source_platform", ""),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "listing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		results = append(results, summarizeItem(item))
	}

	response := map[string]interface{}{
		"items": results,
		"total": total,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetItem handles the get_item tool invocation
func (s *Server) handleGetItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}
	itemID, err := requireItemID(args)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetByID(ctx, ownerID, itemID)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeNotFound, "item not found", map[string]interface{}{
			"item_id": itemID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to fetch item", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"id":             item.ID,
		"content_type":   string(item.ContentType),
		"original_share": item.OriginalShare,
		"metadata":       decodeBlob(item.Metadata),
		"taxonomy":       decodeBlob(item.Taxonomy),
		"parse_status":   string(item.ParseStatus),
		"parse_attempts": item.ParseAttempts,
		"version":        item.Version,
		"created_at":     item.CreatedAt.Format(time.RFC3339),
		"updated_at":     item.UpdatedAt.Format(time.RFC3339),
	}
	if item.ExtractedInfo != nil {
		response["extracted_info"] = *item.ExtractedInfo
	}
	if item.SourcePlatform != nil {
		response["source_platform"] = *item.SourcePlatform
	}
	if item.ParseError != nil {
		response["parse_error"] = *item.ParseError
	}
	if item.ProcessingTimeMs != nil {
		response["processing_time_ms"] = *item.ProcessingTimeMs
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateItem handles the update_item tool invocation
func (s *Server) handleUpdateItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}
	itemID, err := requireItemID(args)
	if err != nil {
		return nil, err
	}

	var extractedInfo *string
	if v, ok := args["extracted_info"].(string); ok {
		extractedInfo = &v
	}

	var taxonomy *types.Blob
	if v, ok := args["taxonomy"].(map[string]interface{}); ok {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid taxonomy", map[string]interface{}{
				"param":  "taxonomy",
				"reason": err.Error(),
			})
		}
		blob := types.Blob(data)
		taxonomy = &blob
	}

	updated, err := s.store.Update(ctx, ownerID, itemID, extractedInfo, taxonomy)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "update failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !updated {
		return nil, newMCPError(ErrorCodeNotFound, "item not found", map[string]interface{}{
			"item_id": itemID,
		})
	}

	s.engine.InvalidateOwner(ownerID)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"updated": true,
		"item_id": itemID,
	})), nil
}

// handleDeleteItem handles the delete_item tool invocation
func (s *Server) handleDeleteItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}
	itemID, err := requireItemID(args)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.Delete(ctx, ownerID, itemID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !deleted {
		return nil, newMCPError(ErrorCodeNotFound, "item not found", map[string]interface{}{
			"item_id": itemID,
		})
	}

	s.engine.InvalidateOwner(ownerID)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": true,
		"item_id": itemID,
	})), nil
}

// handleGetRecentActivity handles the get_recent_activity tool invocation
func (s *Server) handleGetRecentActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ownerID, err := requireOwnerID(args)
	if err != nil {
		return nil, err
	}

	days := getIntDefault(args, "days", 7)
	if days < 1 || days > 365 {
		return nil, newMCPError(ErrorCodeInvalidParams, "days must be between 1 and 365", map[string]interface{}{
			"param": "days",
			"value": days,
		})
	}
	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	records, err := s.store.RecentActivity(ctx, ownerID, days, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read activity", map[string]interface{}{
			"error": err.Error(),
		})
	}

	activity := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		row := map[string]interface{}{
			"action":     string(rec.Action),
			"created_at": rec.CreatedAt.Format(time.RFC3339),
		}
		if rec.ItemID != nil {
			row["item_id"] = *rec.ItemID
		}
		if rec.Query != nil {
			row["query"] = *rec.Query
		}
		if rec.ResultCount != nil {
			row["result_count"] = *rec.ResultCount
		}
		activity = append(activity, row)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"activity": activity,
		"days":     days,
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	parseStats, err := s.store.ParseStats(ctx, s.maxAttempts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read queue statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
		"queue": map[string]interface{}{
			"pending":    parseStats.Pending,
			"processing": parseStats.Processing,
			"complete":   parseStats.Complete,
			"error":      parseStats.Error,
			"failed":     parseStats.Failed,
		},
		"health": map[string]interface{}{
			"fts_enabled": s.store.FTSEnabled(),
		},
	}

	if ownerID, ok := optionalOwnerID(args); ok {
		userStats, err := s.store.UserStats(ctx, ownerID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to read user statistics", map[string]interface{}{
				"error": err.Error(),
			})
		}
		user := map[string]interface{}{
			"total_items":       userStats.TotalItems,
			"items_by_type":     userStats.ItemsByType,
			"items_by_platform": userStats.ItemsByPlatform,
			"recent_items":      userStats.RecentItems,
			"recent_searches":   userStats.RecentSearches,
		}
		if userStats.AvgProcessingTimeMs != nil {
			user["avg_processing_time_ms"] = *userStats.AvgProcessingTimeMs
		}
		response["user"] = user
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// summarizeItem shapes one item for search and listing responses
func summarizeItem(item *storage.ContentItem) map[string]interface{} {
	out := map[string]interface{}{
		"id":           item.ID,
		"content_type": string(item.ContentType),
		"parse_status": string(item.ParseStatus),
		"created_at":   item.CreatedAt.Format(time.RFC3339),
	}
	if item.SourcePlatform != nil {
		out["source_platform"] = *item.SourcePlatform
	}
	if meta, err := types.DecodeMetadata(item.Metadata); err == nil {
		if meta.Title != "" {
			out["title"] = meta.Title
		}
		if meta.URL != "" {
			out["url"] = meta.URL
		}
	}
	if item.ExtractedInfo != nil {
		snippet := *item.ExtractedInfo
		if len(snippet) > snippetLen {
			cut := snippetLen
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut] + "..."
		}
		out["snippet"] = snippet
	}
	return out
}

// requireOwnerID extracts the mandatory owner_id parameter
func requireOwnerID(args map[string]interface{}) (int64, error) {
	id, ok := getInt64(args, "owner_id")
	if !ok || id <= 0 {
		return 0, newMCPError(ErrorCodeInvalidParams, "owner_id parameter is required", map[string]interface{}{
			"param":  "owner_id",
			"reason": "missing or not a positive integer",
		})
	}
	return id, nil
}

// optionalOwnerID extracts owner_id when present
func optionalOwnerID(args map[string]interface{}) (int64, bool) {
	id, ok := getInt64(args, "owner_id")
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireItemID extracts the mandatory item_id parameter
func requireItemID(args map[string]interface{}) (int64, error) {
	id, ok := getInt64(args, "item_id")
	if !ok || id <= 0 {
		return 0, newMCPError(ErrorCodeInvalidParams, "item_id parameter is required", map[string]interface{}{
			"param":  "item_id",
			"reason": "missing or not a positive integer",
		})
	}
	return id, nil
}

// pageParams validates the shared limit and offset parameters
func pageParams(args map[string]interface{}) (limit, offset int, err error) {
	limit = getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return 0, 0, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	offset = getIntDefault(args, "offset", 0)
	if offset < 0 {
		return 0, 0, newMCPError(ErrorCodeInvalidParams, "offset must not be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}
	return limit, offset, nil
}

// metadataBlob serializes the optional metadata argument
func metadataBlob(args map[string]interface{}) (types.Blob, error) {
	raw, ok := args["metadata"].(map[string]interface{})
	if !ok || len(raw) == 0 {
		return "", nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return types.Blob(data), nil
}

// ensureMetadataURL fills metadata.url from the submission when absent
func ensureMetadataURL(metadata types.Blob, url string) (types.Blob, error) {
	view, err := types.DecodeMetadata(metadata)
	if err != nil {
		return "", err
	}
	if view.URL != "" {
		return metadata, nil
	}
	patch, err := (&types.MetadataView{URL: url}).Encode()
	if err != nil {
		return "", err
	}
	return mergeBlobs(metadata, patch)
}

// mergeBlobs overlays the second JSON object onto the first, keeping keys
// only the first one has.
func mergeBlobs(base, overlay types.Blob) (types.Blob, error) {
	if base == "" {
		return overlay, nil
	}
	if overlay == "" {
		return base, nil
	}

	merged := map[string]interface{}{}
	if err := json.Unmarshal([]byte(base), &merged); err != nil {
		return "", err
	}
	patch := map[string]interface{}{}
	if err := json.Unmarshal([]byte(overlay), &patch); err != nil {
		return "", err
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return types.Blob(data), nil
}

// decodeBlob turns a stored JSON blob into a response value
func decodeBlob(b types.Blob) interface{} {
	if b == "" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(b), &v); err != nil {
		return string(b)
	}
	return v
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getInt64 extracts an integer parameter, tolerating JSON number decoding
func getInt64(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if v, ok := getInt64(args, key); ok {
		return int(v)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
