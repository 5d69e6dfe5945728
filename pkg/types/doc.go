// Package types provides shared type definitions for RememBot.
//
// It defines the vocabulary used across the store, search engine, and batch
// worker: content and parse-status enums, the opaque Blob carrier for
// metadata/taxonomy payloads with typed views over the fields collaborators
// read, and the Outcome result type produced by item processing.
//
// # Blobs and views
//
// Metadata and taxonomy are persisted verbatim as serialized blobs. Code that
// needs a specific field decodes a view instead of poking at raw JSON:
//
//	meta, err := types.DecodeMetadata(item.Metadata)
//	if err == nil && meta.URL != "" {
//	    // ...
//	}
//
// # Processing outcomes
//
// The batch worker's per-item routine returns an Outcome rather than
// signalling failure through panics:
//
//	out := process(ctx, item)
//	if out.Failed() {
//	    store.MarkError(ctx, item.ID, out.Err.Error())
//	}
package types
