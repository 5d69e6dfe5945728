// Package mcp implements the Model Context Protocol (MCP) server for RememBot.
//
// The MCP server exposes the content store to AI assistants through eight
// tools:
//   - save_content: Save text, a URL, or a file reference for an owner
//   - search_content: Query saved content; empty queries list recent items
//   - list_content: Page through saved items with filters
//   - get_item: Fetch one item in full
//   - update_item: Overwrite extracted text or taxonomy
//   - delete_item: Permanently remove an item
//   - get_recent_activity: The owner's recent saves, searches and edits
//   - get_stats: Queue health plus per-owner statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output.
//
// # Ownership
//
// Every tool takes owner_id and operates only on that owner's data. An item
// id belonging to someone else is reported as not found, never as a
// permission failure.
//
// # Save Semantics
//
// Plain text is extracted and classified inline and stored complete, with
// duplicate warnings when identical text was saved before. A classification
// failure is tolerated; the item saves without taxonomy. URLs, images and
// documents
// are stored pending; a background worker fetches and extracts them later,
// so save_content returns immediately with parse_status "pending".
//
// # Tool: save_content
//
//	Request:
//	{
//	  "name": "save_content",
//	  "arguments": {
//	    "owner_id": 12345,
//	    "content": "https://example.com/article",
//	    "content_type": "url"
//	  }
//	}
//
//	Response:
//	{
//	  "item_id": 42,
//	  "content_type": "url",
//	  "parse_status": "pending"
//	}
//
// # Tool: search_content
//
//	Request:
//	{
//	  "name": "search_content",
//	  "arguments": {
//	    "owner_id": 12345,
//	    "query": "database migrations",
//	    "limit": 10
//	  }
//	}
//
// The response carries result summaries, the total match count, and which
// strategy answered ("ranked", "fallback" or "listing").
//
// # Error Codes
//
//   - -32602 invalid parameters
//   - -32603 internal error
//   - -32001 item not found for this owner
//   - -32004 empty content
package mcp
