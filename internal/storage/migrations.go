package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Content items table
CREATE TABLE IF NOT EXISTS content_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    original_share TEXT NOT NULL,
    metadata TEXT,
    extracted_info TEXT,
    taxonomy TEXT,
    content_type TEXT NOT NULL,
    source_platform TEXT,
    processing_time_ms REAL,
    content_hash TEXT,
    version INTEGER NOT NULL DEFAULT 1,
    parse_status TEXT NOT NULL DEFAULT 'pending',
    parse_error TEXT,
    parse_attempts INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_user ON content_items(user_id);
CREATE INDEX IF NOT EXISTS idx_items_type ON content_items(content_type);
CREATE INDEX IF NOT EXISTS idx_items_platform ON content_items(source_platform);
CREATE INDEX IF NOT EXISTS idx_items_hash ON content_items(content_hash);
CREATE INDEX IF NOT EXISTS idx_items_created ON content_items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_status ON content_items(parse_status, parse_attempts);

-- Append-only activity trail
CREATE TABLE IF NOT EXISTS user_activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    action_type TEXT NOT NULL,
    content_item_id INTEGER,
    query TEXT,
    result_count INTEGER,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (content_item_id) REFERENCES content_items (id)
);

CREATE INDEX IF NOT EXISTS idx_activity_user ON user_activity(user_id);
CREATE INDEX IF NOT EXISTS idx_activity_created ON user_activity(created_at);

-- Short-lived web viewing tokens
CREATE TABLE IF NOT EXISTS web_tokens (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    token TEXT UNIQUE NOT NULL,
    expiry INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    used_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tokens_user ON web_tokens(user_id);
CREATE INDEX IF NOT EXISTS idx_tokens_expiry ON web_tokens(expiry);
`

const migrationV1Down = `
DROP TABLE IF EXISTS web_tokens;
DROP TABLE IF EXISTS user_activity;
DROP TABLE IF EXISTS content_items;
DROP TABLE IF EXISTS schema_version;
`

// ftsDDL creates the full-text index over extracted text plus the triggers
// that keep it paired with every insert/update/delete on the primary rows.
// NULL extracted text indexes as the empty string; external-content FTS5
// requires the delete+insert form on update and delete.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
    extracted_info,
    content='content_items',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS content_items_ai AFTER INSERT ON content_items BEGIN
    INSERT INTO content_fts(rowid, extracted_info)
    VALUES (new.id, COALESCE(new.extracted_info, ''));
END;

CREATE TRIGGER IF NOT EXISTS content_items_ad AFTER DELETE ON content_items BEGIN
    INSERT INTO content_fts(content_fts, rowid, extracted_info)
    VALUES ('delete', old.id, COALESCE(old.extracted_info, ''));
END;

CREATE TRIGGER IF NOT EXISTS content_items_au AFTER UPDATE ON content_items BEGIN
    INSERT INTO content_fts(content_fts, rowid, extracted_info)
    VALUES ('delete', old.id, COALESCE(old.extracted_info, ''));
    INSERT INTO content_fts(rowid, extracted_info)
    VALUES (new.id, COALESCE(new.extracted_info, ''));
END;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	// Parse current version (default to 0.0.0 if no migrations applied or table doesn't exist)
	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		var currentVersionStr string
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	// Run migrations in order
	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// applyFTS creates the full-text index and its sync triggers. Returns an
// error when the SQLite build lacks the fts5 module; callers treat that as
// degraded mode, not a fatal condition.
func applyFTS(ctx context.Context, db *sql.DB) error {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='content_fts'").Scan(&name)
	existed := err == nil
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check full-text index: %w", err)
	}

	if _, err := db.ExecContext(ctx, ftsDDL); err != nil {
		return fmt.Errorf("failed to create full-text index: %w", err)
	}

	// Rows written during a degraded run predate the triggers and are
	// invisible to MATCH until the index is rebuilt from the primary table.
	if !existed {
		if _, err := db.ExecContext(ctx, "INSERT INTO content_fts(content_fts) VALUES('rebuild')"); err != nil {
			return fmt.Errorf("failed to backfill full-text index: %w", err)
		}
	}
	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", currentVersion, err)
	}

	return nil
}
