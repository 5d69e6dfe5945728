package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raymondclowe/RememBot/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist or
	// belongs to another owner. Ownership misses are deliberately
	// indistinguishable from absence.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed or unsupported submissions
	ErrInvalidInput = errors.New("invalid input")
)

// Options configures store construction
type Options struct {
	// DisableFTS skips the full-text index entirely, forcing substring
	// search. Used for degraded deployments and fallback tests.
	DisableFTS bool
}

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	fts bool
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance. A nil opts uses
// defaults. The full-text index is probed at open; when unavailable the
// store runs in degraded mode and FTSEnabled reports false.
func NewSQLiteStore(dbPath string, opts *Options) (*SQLiteStore, error) {
	if opts == nil {
		opts = &Options{}
	}

	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	fts := false
	if !opts.DisableFTS {
		if err := applyFTS(context.Background(), db); err != nil {
			slog.Warn("full-text index unavailable, substring search only", "error", err)
		} else {
			fts = true
		}
	}

	return &SQLiteStore{db: db, fts: fts}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FTSEnabled reports whether the full-text index is available
func (s *SQLiteStore) FTSEnabled() bool {
	return s.fts
}

var itemColumnList = []string{
	"id", "user_id", "original_share", "metadata", "extracted_info", "taxonomy",
	"content_type", "source_platform", "processing_time_ms", "content_hash",
	"version", "parse_status", "parse_error", "parse_attempts", "created_at", "updated_at",
}

var itemColumns = strings.Join(itemColumnList, ", ")

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanItem reads one content item row in itemColumns order
func scanItem(r rowScanner) (*ContentItem, error) {
	var (
		item           ContentItem
		metadata       sql.NullString
		extractedInfo  sql.NullString
		taxonomy       sql.NullString
		sourcePlatform sql.NullString
		processingMs   sql.NullFloat64
		contentHash    sql.NullString
		parseError     sql.NullString
	)

	err := r.Scan(
		&item.ID, &item.OwnerID, &item.OriginalShare, &metadata, &extractedInfo, &taxonomy,
		&item.ContentType, &sourcePlatform, &processingMs, &contentHash,
		&item.Version, &item.ParseStatus, &parseError, &item.ParseAttempts,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Metadata = types.Blob(metadata.String)
	item.Taxonomy = types.Blob(taxonomy.String)
	if extractedInfo.Valid {
		item.ExtractedInfo = &extractedInfo.String
	}
	if sourcePlatform.Valid {
		item.SourcePlatform = &sourcePlatform.String
	}
	if processingMs.Valid {
		item.ProcessingTimeMs = &processingMs.Float64
	}
	if contentHash.Valid {
		item.ContentHash = &contentHash.String
	}
	if parseError.Valid {
		item.ParseError = &parseError.String
	}
	return &item, nil
}

// nullableBlob converts an optional blob to a driver value
func nullableBlob(b types.Blob) interface{} {
	if b == "" {
		return nil
	}
	return string(b)
}

// ContentHash computes the duplicate-detection hash of extracted text:
// SHA-256 over the trimmed, lowercased form.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

// CreateItem stores a new content item, derives its source platform and
// content hash, and appends a store activity record. The full-text index
// entry is written by trigger in the same transaction.
func (s *SQLiteStore) CreateItem(ctx context.Context, params CreateParams) (int64, error) {
	if params.OriginalShare == "" {
		return 0, fmt.Errorf("%w: original share is required", ErrInvalidInput)
	}
	if !params.ContentType.Valid() {
		return 0, fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, params.ContentType)
	}

	status := params.ParseStatus
	if status == "" {
		status = types.StatusPending
	}

	var sourcePlatform interface{}
	if params.Metadata != "" {
		meta, err := types.DecodeMetadata(params.Metadata)
		if err != nil {
			slog.Warn("invalid metadata blob, platform detection skipped",
				"owner", params.OwnerID, "error", err)
		} else if meta.URL != "" {
			if platform := DetectSourcePlatform(meta.URL); platform != "" {
				sourcePlatform = platform
			}
		}
	}

	var contentHash interface{}
	if params.ExtractedInfo != nil {
		contentHash = ContentHash(*params.ExtractedInfo)
	}

	var extracted interface{}
	if params.ExtractedInfo != nil {
		extracted = *params.ExtractedInfo
	}
	var processingMs interface{}
	if params.ProcessingTimeMs != nil {
		processingMs = *params.ProcessingTimeMs
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO content_items
		(user_id, original_share, metadata, extracted_info, taxonomy, content_type,
		 source_platform, processing_time_ms, content_hash, parse_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, params.OwnerID, params.OriginalShare, nullableBlob(params.Metadata), extracted,
		nullableBlob(params.Taxonomy), string(params.ContentType),
		sourcePlatform, processingMs, contentHash, string(status), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create content item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, action_type, content_item_id, created_at)
		VALUES (?, ?, ?, ?)
	`, params.OwnerID, string(types.ActionStore), id, now); err != nil {
		return 0, fmt.Errorf("failed to log store activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID retrieves one item, enforcing ownership. An id belonging to a
// different owner reports ErrNotFound, never a permission error.
func (s *SQLiteStore) GetByID(ctx context.Context, ownerID, itemID int64) (*ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items
		WHERE id = ? AND user_id = ?
	`, itemID, ownerID)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update overwrites only the supplied fields, bumps version by one and
// refreshes updated_at. A call with no fields is a true no-op: version and
// updated_at stay untouched, but the call still reports true for an owned
// row. Returns false when the row is absent or owned by someone else.
func (s *SQLiteStore) Update(ctx context.Context, ownerID, itemID int64, extractedInfo *string, taxonomy *types.Blob) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM content_items WHERE id = ? AND user_id = ?`,
		itemID, ownerID).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if extractedInfo == nil && taxonomy == nil {
		return true, tx.Commit()
	}

	var extracted, tax interface{}
	if extractedInfo != nil {
		extracted = *extractedInfo
	}
	if taxonomy != nil {
		tax = nullableBlob(*taxonomy)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE content_items
		SET extracted_info = COALESCE(?, extracted_info),
		    taxonomy = COALESCE(?, taxonomy),
		    version = version + 1,
		    updated_at = ?
		WHERE id = ? AND user_id = ?
	`, extracted, tax, now, itemID, ownerID); err != nil {
		return false, fmt.Errorf("failed to update content item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, action_type, content_item_id, created_at)
		VALUES (?, ?, ?, ?)
	`, ownerID, string(types.ActionUpdate), itemID, now); err != nil {
		return false, fmt.Errorf("failed to log update activity: %w", err)
	}

	return true, tx.Commit()
}

// Delete removes an item and, via trigger in the same transaction, its
// full-text index entry. Irreversible.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID, itemID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM content_items WHERE id = ? AND user_id = ?`,
		itemID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete content item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, action_type, content_item_id, created_at)
		VALUES (?, ?, ?, ?)
	`, ownerID, string(types.ActionDelete), itemID, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("failed to log delete activity: %w", err)
	}

	return true, tx.Commit()
}

// FindByHash returns an owner's items sharing a content hash, newest first.
// Duplicates are surfaced for warnings, never rejected.
func (s *SQLiteStore) FindByHash(ctx context.Context, ownerID int64, hash string, limit int) ([]*ContentItem, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items
		WHERE user_id = ? AND content_hash = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, ownerID, hash, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*ContentItem, error) {
	items := make([]*ContentItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// filterClause appends classification predicates for a page
func filterClause(page Page, args []interface{}) (string, []interface{}) {
	var b strings.Builder
	if page.ContentType != "" {
		b.WriteString(" AND content_type = ?")
		args = append(args, page.ContentType)
	}
	if page.SourcePlatform != "" {
		b.WriteString(" AND source_platform = ?")
		args = append(args, page.SourcePlatform)
	}
	return b.String(), args
}

// List returns an owner's items newest first with optional filters, plus the
// total count under the same predicate.
func (s *SQLiteStore) List(ctx context.Context, ownerID int64, page Page) ([]*ContentItem, int, error) {
	where := `WHERE user_id = ?`
	args := []interface{}{ownerID}
	clause, args := filterClause(page, args)
	where += clause

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_items `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// buildMatchExpr converts free text into an FTS5 MATCH expression: each
// token quoted so user punctuation cannot change the query syntax; tokens
// combine with implicit AND.
func buildMatchExpr(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// SearchRanked answers a query through the full-text index: best rank first,
// ties broken by recency so repeated calls are deterministic.
func (s *SQLiteStore) SearchRanked(ctx context.Context, ownerID int64, query string, page Page) ([]*ContentItem, int, error) {
	if !s.fts {
		return nil, 0, fmt.Errorf("full-text index not available")
	}

	matchExpr := buildMatchExpr(query)
	where := `WHERE ci.user_id = ? AND content_fts MATCH ?`
	args := []interface{}{ownerID, matchExpr}
	filters, filterArgs := filterClause(page, nil)
	where += strings.ReplaceAll(filters, " AND ", " AND ci.")
	args = append(args, filterArgs...)

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM content_items ci
		JOIN content_fts ON ci.id = content_fts.rowid `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ranked count failed: %w", err)
	}

	cols := "ci." + strings.Join(itemColumnList, ", ci.")
	args = append(args, page.Limit, page.Offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cols+`
		FROM content_items ci
		JOIN content_fts ON ci.id = content_fts.rowid `+where+`
		ORDER BY rank, ci.created_at DESC, ci.id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ranked search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchSubstring is the degraded path: LIKE matching against both the
// extracted text and the raw submission, recency order only.
func (s *SQLiteStore) SearchSubstring(ctx context.Context, ownerID int64, query string, page Page) ([]*ContentItem, int, error) {
	term := "%" + query + "%"
	where := `WHERE user_id = ? AND (extracted_info LIKE ? OR original_share LIKE ?)`
	args := []interface{}{ownerID, term, term}
	clause, args := filterClause(page, args)
	where += clause

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_items `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// PendingItems fetches items eligible for automatic pickup, oldest first for
// fairness across polling cycles.
func (s *SQLiteStore) PendingItems(ctx context.Context, limit, maxAttempts int) ([]*ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items
		WHERE parse_status = ? AND parse_attempts < ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, string(types.StatusPending), maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectItems(rows)
}

// MarkProcessing atomically claims an item for processing. The conditional
// update guarantees that of two concurrent claimants only one wins; the
// loser sees false with no error. Calling it on a row already in processing
// is likewise a quiet false.
func (s *SQLiteStore) MarkProcessing(ctx context.Context, itemID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET parse_status = ?, updated_at = ?
		WHERE id = ? AND parse_status IN (?, ?)
	`, string(types.StatusProcessing), time.Now().UTC(), itemID,
		string(types.StatusPending), string(types.StatusError))
	if err != nil {
		return false, fmt.Errorf("failed to claim item %d: %w", itemID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkComplete records a terminal successful parse. Only non-nil outcome
// fields overwrite; parse_status is the one field that always changes.
func (s *SQLiteStore) MarkComplete(ctx context.Context, itemID int64, outcome CompletedParse) error {
	var extracted, metadata, tax, processingMs interface{}
	if outcome.ExtractedInfo != nil {
		extracted = *outcome.ExtractedInfo
	}
	if outcome.Metadata != nil {
		metadata = nullableBlob(*outcome.Metadata)
	}
	if outcome.Taxonomy != nil {
		tax = nullableBlob(*outcome.Taxonomy)
	}
	if outcome.ProcessingTimeMs != nil {
		processingMs = *outcome.ProcessingTimeMs
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET parse_status = ?,
		    extracted_info = COALESCE(?, extracted_info),
		    metadata = COALESCE(?, metadata),
		    taxonomy = COALESCE(?, taxonomy),
		    processing_time_ms = COALESCE(?, processing_time_ms),
		    content_hash = COALESCE(?, content_hash),
		    updated_at = ?
		WHERE id = ?
	`, string(types.StatusComplete), extracted, metadata, tax, processingMs,
		hashOrNil(outcome.ExtractedInfo), time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("failed to mark item %d complete: %w", itemID, err)
	}
	return nil
}

func hashOrNil(extractedInfo *string) interface{} {
	if extractedInfo == nil {
		return nil
	}
	return ContentHash(*extractedInfo)
}

// MarkError records a failed attempt and bumps the attempt counter.
// Completed items never regress.
func (s *SQLiteStore) MarkError(ctx context.Context, itemID int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET parse_status = ?,
		    parse_error = ?,
		    parse_attempts = parse_attempts + 1,
		    updated_at = ?
		WHERE id = ? AND parse_status != ?
	`, string(types.StatusError), message, time.Now().UTC(), itemID, string(types.StatusComplete))
	if err != nil {
		return fmt.Errorf("failed to mark item %d errored: %w", itemID, err)
	}
	return nil
}

// MarkRetry requeues an item as pending with an incremented attempt count,
// distinguishing a deliberate requeue from a fresh submission. Completed
// items never regress.
func (s *SQLiteStore) MarkRetry(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET parse_status = ?,
		    parse_attempts = parse_attempts + 1,
		    updated_at = ?
		WHERE id = ? AND parse_status != ?
	`, string(types.StatusPending), time.Now().UTC(), itemID, string(types.StatusComplete))
	if err != nil {
		return fmt.Errorf("failed to requeue item %d: %w", itemID, err)
	}
	return nil
}

// ResetFailed is the operator-level revive for permanently failed items:
// attempts go back to zero and the items become eligible again. Returns how
// many rows were revived.
func (s *SQLiteStore) ResetFailed(ctx context.Context, maxAttempts int) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE content_items
		SET parse_status = ?, parse_attempts = 0, parse_error = NULL, updated_at = ?
		WHERE parse_attempts >= ? AND parse_status IN (?, ?)
	`, string(types.StatusPending), time.Now().UTC(), maxAttempts,
		string(types.StatusError), string(types.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ParseStats returns counts by status plus the derived permanently-failed
// count.
func (s *SQLiteStore) ParseStats(ctx context.Context, maxAttempts int) (ParseStats, error) {
	var stats ParseStats

	rows, err := s.db.QueryContext(ctx,
		`SELECT parse_status, COUNT(*) FROM content_items GROUP BY parse_status`)
	if err != nil {
		return stats, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		switch types.ParseStatus(status) {
		case types.StatusPending:
			stats.Pending = count
		case types.StatusProcessing:
			stats.Processing = count
		case types.StatusComplete:
			stats.Complete = count
		case types.StatusError:
			stats.Error = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM content_items
		WHERE parse_attempts >= ? AND parse_status IN (?, ?)
	`, maxAttempts, string(types.StatusError), string(types.StatusPending)).Scan(&stats.Failed)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// UserStats summarizes one owner's stored content and recent activity
func (s *SQLiteStore) UserStats(ctx context.Context, ownerID int64) (*UserStats, error) {
	stats := &UserStats{
		ItemsByType:     make(map[string]int),
		ItemsByPlatform: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_items WHERE user_id = ?`, ownerID).Scan(&stats.TotalItems); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content_type, COUNT(*)
		FROM content_items
		WHERE user_id = ?
		GROUP BY content_type
	`, ownerID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ItemsByType[kind] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT COALESCE(source_platform, 'unknown'), COUNT(*)
		FROM content_items
		WHERE user_id = ?
		GROUP BY source_platform
	`, ownerID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ItemsByPlatform[platform] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM content_items
		WHERE user_id = ? AND created_at >= ?
	`, ownerID, weekAgo).Scan(&stats.RecentItems); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_activity
		WHERE user_id = ? AND action_type = ? AND created_at >= ?
	`, ownerID, string(types.ActionSearch), weekAgo).Scan(&stats.RecentSearches); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `
		SELECT AVG(processing_time_ms) FROM content_items
		WHERE user_id = ? AND processing_time_ms IS NOT NULL
	`, ownerID).Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgProcessingTimeMs = &avg.Float64
	}

	return stats, nil
}

// LogActivity appends one record to the audit trail
func (s *SQLiteStore) LogActivity(ctx context.Context, rec ActivityRecord) error {
	var itemID, query, resultCount interface{}
	if rec.ItemID != nil {
		itemID = *rec.ItemID
	}
	if rec.Query != nil {
		query = *rec.Query
	}
	if rec.ResultCount != nil {
		resultCount = *rec.ResultCount
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, action_type, content_item_id, query, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.OwnerID, string(rec.Action), itemID, query, resultCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// RecentActivity returns an owner's activity over the last given days,
// newest first, bounded by limit.
func (s *SQLiteStore) RecentActivity(ctx context.Context, ownerID int64, days, limit int) ([]*ActivityRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, action_type, content_item_id, query, result_count, created_at
		FROM user_activity
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, ownerID, since, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]*ActivityRecord, 0)
	for rows.Next() {
		var (
			rec         ActivityRecord
			itemID      sql.NullInt64
			query       sql.NullString
			resultCount sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Action, &itemID, &query, &resultCount, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if itemID.Valid {
			rec.ItemID = &itemID.Int64
		}
		if query.Valid {
			rec.Query = &query.String
		}
		if resultCount.Valid {
			count := int(resultCount.Int64)
			rec.ResultCount = &count
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CreateWebToken issues a fresh viewing token for an owner and purges that
// owner's expired tokens in the same transaction.
func (s *SQLiteStore) CreateWebToken(ctx context.Context, ownerID int64, ttl time.Duration) (*WebToken, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM web_tokens WHERE user_id = ? AND expiry < ?`,
		ownerID, now.Unix()); err != nil {
		return nil, fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	token := &WebToken{
		OwnerID:   ownerID,
		Token:     uuid.NewString(),
		Expiry:    now.Add(ttl).Unix(),
		CreatedAt: now,
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO web_tokens (user_id, token, expiry, created_at)
		VALUES (?, ?, ?, ?)
	`, token.OwnerID, token.Token, token.Expiry, token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store web token: %w", err)
	}
	token.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return token, tx.Commit()
}

// ValidateWebToken checks a token for the given owner, deleting it when
// expired and stamping used_at when accepted.
func (s *SQLiteStore) ValidateWebToken(ctx context.Context, token string, ownerID int64) (bool, error) {
	var id, expiry int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, expiry FROM web_tokens WHERE token = ? AND user_id = ?`,
		token, ownerID).Scan(&id, &expiry)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if expiry < time.Now().UTC().Unix() {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM web_tokens WHERE id = ?`, id); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE web_tokens SET used_at = ? WHERE id = ?`,
		time.Now().UTC(), id); err != nil {
		return false, err
	}
	return true, nil
}
