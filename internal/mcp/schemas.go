package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ownerIDProperty is shared by every tool: all data is scoped to one owner
func ownerIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Numeric ID of the owning user; all operations are scoped to this owner",
	}
}

// saveContentTool returns the tool definition for save_content
func saveContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_content",
		Description: "Save a piece of content (text, URL, image or document reference) to the owner's knowledge store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The raw submission: free text, a URL, or a file reference",
				},
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Kind of content being saved",
					"enum":        []string{"text", "url", "image", "document"},
					"default":     "text",
				},
				"metadata": map[string]interface{}{
					"type":        "object",
					"description": "Optional metadata such as title, url or note",
				},
			},
			Required: []string{"owner_id", "content"},
		},
	}
}

// searchContentTool returns the tool definition for search_content
func searchContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_content",
		Description: "Search the owner's saved content; an empty query lists recent items",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms; empty returns recent items",
				},
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Filter by content kind",
					"enum":        []string{"text", "url", "image", "document"},
				},
				"source_platform": map[string]interface{}{
					"type":        "string",
					"description": "Filter by detected source platform (e.g. twitter, github, web)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Results to skip for pagination",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"owner_id"},
		},
	}
}

// listContentTool returns the tool definition for list_content
func listContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_content",
		Description: "List the owner's saved items, newest first, with optional filters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Filter by content kind",
					"enum":        []string{"text", "url", "image", "document"},
				},
				"source_platform": map[string]interface{}{
					"type":        "string",
					"description": "Filter by detected source platform",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of items to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Items to skip for pagination",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"owner_id"},
		},
	}
}

// getItemTool returns the tool definition for get_item
func getItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_item",
		Description: "Fetch one saved item in full, including metadata and taxonomy",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"item_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the item to fetch",
				},
			},
			Required: []string{"owner_id", "item_id"},
		},
	}
}

// updateItemTool returns the tool definition for update_item
func updateItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_item",
		Description: "Overwrite the extracted text or taxonomy of a saved item",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"item_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the item to update",
				},
				"extracted_info": map[string]interface{}{
					"type":        "string",
					"description": "Replacement extracted text",
				},
				"taxonomy": map[string]interface{}{
					"type":        "object",
					"description": "Replacement taxonomy object",
				},
			},
			Required: []string{"owner_id", "item_id"},
		},
	}
}

// deleteItemTool returns the tool definition for delete_item
func deleteItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_item",
		Description: "Permanently delete one saved item",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"item_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the item to delete",
				},
			},
			Required: []string{"owner_id", "item_id"},
		},
	}
}

// getRecentActivityTool returns the tool definition for get_recent_activity
func getRecentActivityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_recent_activity",
		Description: "List the owner's recent actions (saves, searches, updates, deletes), newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerIDProperty(),
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Window in days to look back",
					"default":     7,
					"minimum":     1,
					"maximum":     365,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of activity rows to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"owner_id"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report processing queue health, and per-owner content statistics when owner_id is given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "integer",
					"description": "Optional owner to include per-user statistics for",
				},
			},
		},
	}
}
