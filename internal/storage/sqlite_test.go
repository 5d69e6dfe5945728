package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raymondclowe/RememBot/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	store, err := NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func strPtr(s string) *string { return &s }

func blobPtr(b types.Blob) *types.Blob { return &b }

func TestNewSQLiteStore(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	assert.NotNil(t, store)
	assert.NotNil(t, store.db)
	assert.True(t, store.FTSEnabled())
}

func TestNewSQLiteStore_DisableFTS(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", &Options{DisableFTS: true})
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.FTSEnabled())
}

func TestClose(t *testing.T) {
	store := setupTestDB(t)
	err := store.Close()
	assert.NoError(t, err)
}

func TestCreateItem(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "hello world",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("hello world"),
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), item.OwnerID)
	assert.Equal(t, "hello world", item.OriginalShare)
	assert.Equal(t, types.ContentText, item.ContentType)
	assert.Equal(t, types.StatusPending, item.ParseStatus)
	assert.Equal(t, int64(1), item.Version)
	assert.Equal(t, 0, item.ParseAttempts)
	require.NotNil(t, item.ExtractedInfo)
	assert.Equal(t, "hello world", *item.ExtractedInfo)
	require.NotNil(t, item.ContentHash)
	assert.Equal(t, ContentHash("hello world"), *item.ContentHash)
}

func TestCreateItem_Validation(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()

	_, err := store.CreateItem(ctx, CreateParams{
		OwnerID:     100,
		ContentType: types.ContentText,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "x",
		ContentType:   types.ContentType("video"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateItem_DetectsPlatform(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	meta, err := (&types.MetadataView{URL: "https://github.com/golang/go"}).Encode()
	require.NoError(t, err)

	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "https://github.com/golang/go",
		Metadata:      meta,
		ContentType:   types.ContentURL,
	})
	require.NoError(t, err)

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	require.NotNil(t, item.SourcePlatform)
	assert.Equal(t, "github", *item.SourcePlatform)
}

func TestCreateItem_LogsStoreActivity(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "note",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	records, err := store.RecentActivity(ctx, 100, 1, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.ActionStore, records[0].Action)
	require.NotNil(t, records[0].ItemID)
	assert.Equal(t, id, *records[0].ItemID)
}

func TestGetByID_OwnerIsolation(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "mine",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	// Another owner sees the same id as missing
	_, err = store.GetByID(ctx, 200, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByID(ctx, 100, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "original",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("original"),
	})
	require.NoError(t, err)

	ok, err := store.Update(ctx, 100, id, strPtr("revised"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, "revised", *item.ExtractedInfo)
	assert.Equal(t, int64(2), item.Version)
	// Untouched fields survive
	assert.Equal(t, "original", item.OriginalShare)
}

func TestUpdate_NoFieldsIsNoOp(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "original",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	before, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)

	ok, err := store.Update(ctx, 100, id, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestUpdate_WrongOwner(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "original",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	ok, err := store.Update(ctx, 200, id, strPtr("stolen"), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Nil(t, item.ExtractedInfo)
}

func TestDelete(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "ephemeral",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("ephemeral note about gophers"),
	})
	require.NoError(t, err)

	ok, err := store.Delete(ctx, 200, id)
	require.NoError(t, err)
	assert.False(t, ok, "wrong owner must not delete")

	ok, err = store.Delete(ctx, 100, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.GetByID(ctx, 100, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// The full-text index entry is gone too
	items, total, err := store.SearchRanked(ctx, 100, "gophers", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
}

func TestFindByHash(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	hash := ContentHash("same text")

	for i := 0; i < 3; i++ {
		_, err := store.CreateItem(ctx, CreateParams{
			OwnerID:       100,
			OriginalShare: fmt.Sprintf("share %d", i),
			ContentType:   types.ContentText,
			ExtractedInfo: strPtr("Same Text  "),
		})
		require.NoError(t, err)
	}
	// Different owner, same text: invisible
	_, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       200,
		OriginalShare: "other",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("same text"),
	})
	require.NoError(t, err)

	matches, err := store.FindByHash(ctx, 100, hash, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// Newest first
	assert.Greater(t, matches[0].ID, matches[1].ID)
}

func TestContentHash_Normalization(t *testing.T) {
	assert.Equal(t, ContentHash("Hello World"), ContentHash("  hello world  "))
	assert.NotEqual(t, ContentHash("hello world"), ContentHash("hello worlds"))
}

func TestList(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		kind := types.ContentText
		if i%2 == 0 {
			kind = types.ContentURL
		}
		_, err := store.CreateItem(ctx, CreateParams{
			OwnerID:       100,
			OriginalShare: fmt.Sprintf("item %d", i),
			ContentType:   kind,
		})
		require.NoError(t, err)
	}

	items, total, err := store.List(ctx, 100, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 5)
	// Newest first
	assert.Equal(t, "item 4", items[0].OriginalShare)

	items, total, err = store.List(ctx, 100, Page{ContentType: "url", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	// Pagination
	items, total, err = store.List(ctx, 100, Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "item 2", items[0].OriginalShare)
}

func TestSearchRanked(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	texts := []string{
		"golang concurrency patterns with channels",
		"python asyncio tutorial",
		"concurrency in distributed systems",
	}
	for _, text := range texts {
		_, err := store.CreateItem(ctx, CreateParams{
			OwnerID:       100,
			OriginalShare: text,
			ContentType:   types.ContentText,
			ExtractedInfo: strPtr(text),
		})
		require.NoError(t, err)
	}

	items, total, err := store.SearchRanked(ctx, 100, "concurrency", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Contains(t, *item.ExtractedInfo, "concurrency")
	}

	// Multi-word queries require all tokens
	_, total, err = store.SearchRanked(ctx, 100, "concurrency channels", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSearchRanked_PunctuationSafe(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	_, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "note",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("migrating databases safely"),
	})
	require.NoError(t, err)

	// Operators and quotes in user input must not break query syntax
	for _, q := range []string{`databases AND`, `"unbalanced`, `databases*`, `(databases)`} {
		_, _, err := store.SearchRanked(ctx, 100, q, Page{Limit: 10})
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearchRanked_OwnerIsolation(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	_, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "secret",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("secret recipe for sourdough"),
	})
	require.NoError(t, err)

	_, total, err := store.SearchRanked(ctx, 200, "sourdough", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSearchSubstring(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	_, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "https://example.com/kubernetes-guide",
		ContentType:   types.ContentURL,
	})
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "plain note",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("all about kubernetes operators"),
	})
	require.NoError(t, err)

	// Matches extracted text and the raw submission
	items, total, err := store.SearchSubstring(ctx, 100, "kubernetes", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	// Recency order
	assert.Equal(t, "plain note", items[0].OriginalShare)
}

func TestSearchRanked_Disabled(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", &Options{DisableFTS: true})
	require.NoError(t, err)
	defer store.Close()

	_, _, err = store.SearchRanked(context.Background(), 100, "anything", Page{Limit: 10})
	assert.Error(t, err)
}

func TestSearchRanked_BackfillsAfterDegradedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "content.db")
	ctx := context.Background()

	// Items stored during a degraded run never pass through the index
	// triggers
	degraded, err := NewSQLiteStore(dbPath, &Options{DisableFTS: true})
	require.NoError(t, err)
	id, err := degraded.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "python tutorial for beginners",
		ContentType:   types.ContentText,
		ExtractedInfo: strPtr("python tutorial for beginners"),
		ParseStatus:   types.StatusComplete,
	})
	require.NoError(t, err)
	require.NoError(t, degraded.Close())

	// Reopening with the index available must make the old rows rankable
	store, err := NewSQLiteStore(dbPath, nil)
	require.NoError(t, err)
	defer store.Close()
	require.True(t, store.FTSEnabled())

	items, total, err := store.SearchRanked(ctx, 100, "python", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
}

func TestParseLifecycle(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "to process",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	pending, err := store.PendingItems(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	claimed, err := store.MarkProcessing(ctx, id)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim loses quietly
	claimed, err = store.MarkProcessing(ctx, id)
	require.NoError(t, err)
	assert.False(t, claimed)

	ms := 42.5
	err = store.MarkComplete(ctx, id, CompletedParse{
		ExtractedInfo:    strPtr("processed text"),
		ProcessingTimeMs: &ms,
	})
	require.NoError(t, err)

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, item.ParseStatus)
	assert.Equal(t, "processed text", *item.ExtractedInfo)
	require.NotNil(t, item.ProcessingTimeMs)
	assert.Equal(t, 42.5, *item.ProcessingTimeMs)
	require.NotNil(t, item.ContentHash)
	assert.Equal(t, ContentHash("processed text"), *item.ContentHash)
}

func TestMarkError_CountsAttempts(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "flaky",
		ContentType:   types.ContentURL,
	})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		claimed, err := store.MarkProcessing(ctx, id)
		require.NoError(t, err)
		assert.True(t, claimed, "errored items stay claimable")
		require.NoError(t, store.MarkError(ctx, id, "fetch failed"))

		item, err := store.GetByID(ctx, 100, id)
		require.NoError(t, err)
		assert.Equal(t, types.StatusError, item.ParseStatus)
		assert.Equal(t, i, item.ParseAttempts)
		assert.Equal(t, "fetch failed", *item.ParseError)
	}
}

func TestMarkError_NeverRegressesComplete(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "finished",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	require.NoError(t, store.MarkComplete(ctx, id, CompletedParse{
		ExtractedInfo: strPtr("finished"),
	}))

	require.NoError(t, store.MarkError(ctx, id, "late failure"))

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, item.ParseStatus)
	assert.Equal(t, 0, item.ParseAttempts)
	assert.Nil(t, item.ParseError)
}

func TestPendingItems_SkipsExhausted(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "doomed",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.MarkRetry(ctx, id))
	}

	pending, err := store.PendingItems(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending, "items at the attempt cap age out of the queue")
}

func TestMarkRetry_NeverRegressesComplete(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "done",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)
	require.NoError(t, store.MarkComplete(ctx, id, CompletedParse{ExtractedInfo: strPtr("done")}))

	require.NoError(t, store.MarkRetry(ctx, id))

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, item.ParseStatus)
}

func TestResetFailed(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "doomed",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.MarkProcessing(ctx, id)
		require.NoError(t, err)
		require.NoError(t, store.MarkError(ctx, id, "boom"))
	}

	revived, err := store.ResetFailed(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, revived)

	item, err := store.GetByID(ctx, 100, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, item.ParseStatus)
	assert.Equal(t, 0, item.ParseAttempts)
	assert.Nil(t, item.ParseError)

	pending, err := store.PendingItems(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestParseStats(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	mk := func() int64 {
		id, err := store.CreateItem(ctx, CreateParams{
			OwnerID:       100,
			OriginalShare: "x",
			ContentType:   types.ContentText,
		})
		require.NoError(t, err)
		return id
	}

	mk() // stays pending
	done := mk()
	require.NoError(t, store.MarkComplete(ctx, done, CompletedParse{}))
	failed := mk()
	for i := 0; i < 3; i++ {
		_, err := store.MarkProcessing(ctx, failed)
		require.NoError(t, err)
		require.NoError(t, store.MarkError(ctx, failed, "boom"))
	}

	stats, err := store.ParseStats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Complete)
	assert.Equal(t, 1, stats.Error)
	assert.Equal(t, 1, stats.Failed)
}

func TestUserStats(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	meta, err := (&types.MetadataView{URL: "https://old.reddit.com/r/golang"}).Encode()
	require.NoError(t, err)

	_, err = store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "https://old.reddit.com/r/golang",
		Metadata:      meta,
		ContentType:   types.ContentURL,
	})
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, CreateParams{
		OwnerID:       100,
		OriginalShare: "a note",
		ContentType:   types.ContentText,
	})
	require.NoError(t, err)

	query := "golang"
	count := 1
	require.NoError(t, store.LogActivity(ctx, ActivityRecord{
		OwnerID: 100,
		Action:  types.ActionSearch,
		Query:   &query,
	}))
	require.NoError(t, store.LogActivity(ctx, ActivityRecord{
		OwnerID:     100,
		Action:      types.ActionSearchResult,
		Query:       &query,
		ResultCount: &count,
	}))

	stats, err := store.UserStats(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.ItemsByType["url"])
	assert.Equal(t, 1, stats.ItemsByType["text"])
	assert.Equal(t, 1, stats.ItemsByPlatform["reddit"])
	assert.Equal(t, 1, stats.ItemsByPlatform["unknown"])
	assert.Equal(t, 2, stats.RecentItems)
	assert.Equal(t, 1, stats.RecentSearches, "only the search action counts, not its result record")
}

func TestRecentActivity_Order(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		q := fmt.Sprintf("query %d", i)
		require.NoError(t, store.LogActivity(ctx, ActivityRecord{
			OwnerID: 100,
			Action:  types.ActionSearch,
			Query:   &q,
		}))
	}

	records, err := store.RecentActivity(ctx, 100, 7, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "query 2", *records[0].Query)
	assert.Equal(t, "query 1", *records[1].Query)
}

func TestWebTokens(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	token, err := store.CreateWebToken(ctx, 100, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Greater(t, token.Expiry, time.Now().Unix())

	ok, err := store.ValidateWebToken(ctx, token.Token, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	// Wrong owner
	ok, err = store.ValidateWebToken(ctx, token.Token, 200)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown token
	ok, err = store.ValidateWebToken(ctx, "nope", 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebTokens_Expiry(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	token, err := store.CreateWebToken(ctx, 100, -time.Minute)
	require.NoError(t, err)

	ok, err := store.ValidateWebToken(ctx, token.Token, 100)
	require.NoError(t, err)
	assert.False(t, ok)

	// Expired tokens are removed on first rejection
	ok, err = store.ValidateWebToken(ctx, token.Token, 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectSourcePlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/user/status/1", "twitter"},
		{"https://x.com/user/status/1", "twitter"},
		{"https://www.youtube.com/watch?v=abc", "youtube"},
		{"https://youtu.be/abc", "youtube"},
		{"https://news.ycombinator.com/item?id=1", "hackernews"},
		{"https://arxiv.org/abs/2301.00001", "arxiv"},
		{"https://example.com/page", "web"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSourcePlatform(tt.url), tt.url)
	}
}
