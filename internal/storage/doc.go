// Package storage provides SQLite-based persistence for saved content.
//
// The storage layer manages:
//   - Content items with owner scoping and optimistic versioning
//   - The parse lifecycle (pending, processing, complete, error)
//   - Full-text search indexes with a substring fallback
//   - Duplicate detection through content hashes
//   - A per-user activity audit trail
//   - Short-lived web viewing tokens
//
// # Database Schema
//
// Tables:
//   - content_items: Saved content, extraction results, taxonomy, lifecycle state
//   - user_activity: Append-only audit trail of user actions
//   - web_tokens: Expiring tokens for web access
//   - content_fts: FTS5 full-text index over extracted text (external content)
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.remembot/remembot.db", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	id, err := store.CreateItem(ctx, storage.CreateParams{
//	    OwnerID:       12345,
//	    OriginalShare: "https://example.com/article",
//	    ContentType:   types.ContentURL,
//	})
//
// # Ownership
//
// Every read and write is scoped by owner. An item id that exists but
// belongs to a different owner behaves exactly like a missing id: GetByID
// returns ErrNotFound, Update and Delete return false. Callers can never
// distinguish absence from denial.
//
// # Parse Lifecycle
//
// New items start pending. Background workers claim them through
// MarkProcessing, whose conditional update guarantees a single winner when
// workers race. Terminal outcomes are recorded with MarkComplete or
// MarkError; MarkError increments the attempt counter so items failing
// repeatedly age out of the pending queue. ResetFailed revives them.
//
// # Search
//
// SearchRanked matches through the FTS5 index with BM25 ranking; ties break
// by recency. When the index is unavailable (old SQLite, DisableFTS) the
// store reports FTSEnabled() == false and callers use SearchSubstring, a
// LIKE scan over extracted text and the raw submission.
//
// # Build Tags
//
// Two driver configurations are supported:
//
// CGO build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//   - Requires a C compiler and the fts5 tag
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite,fts5"
//
// Pure Go build (default):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed, FTS5 included
//
//     CGO_ENABLED=0 go build
package storage
