// Package search coordinates query answering over stored content.
//
// The engine resolves each request through one of three strategies:
//
//   - listing: an empty query returns the owner's recent items
//   - ranked: the full-text index with BM25 ranking, recency tie-break
//   - fallback: a substring scan when the index is down or the query is
//     too short to rank
//
// Degradation is silent. A ranked failure is logged and answered through
// the fallback; the caller only learns which strategy ran from the
// response, never through an error.
//
// Results are cached in a bounded LRU keyed on the full request shape.
// Cache expires after 5 minutes or 1000 entries. Writes should call
// InvalidateOwner so users see their own changes immediately.
//
// Every query is recorded twice in the owner's activity trail: the search
// itself before execution and the result count after.
package search
