package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order. Each one runs at most once and is
// recorded in schema_version.
var migrations = []struct {
	version    int
	statements []string
}{
	{1, []string{
		`CREATE TABLE IF NOT EXISTS usage (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at        INTEGER NOT NULL,
			provider          TEXT    NOT NULL DEFAULT '',
			model             TEXT    NOT NULL DEFAULT '',
			operation         TEXT    NOT NULL DEFAULT '',
			finish_reason     TEXT    NOT NULL DEFAULT '',
			prompt_tokens     INTEGER,
			completion_tokens INTEGER,
			duration_ms       INTEGER NOT NULL DEFAULT 0,
			error             TEXT    NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_created ON usage(created_at)`,
	}},
	{2, []string{
		`ALTER TABLE usage ADD COLUMN value_count INTEGER NOT NULL DEFAULT 0`,
	}},
}

// schemaVersion is the latest migration version.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// migrate brings the database schema up to the latest version. Each
// migration runs in its own transaction.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("usage.sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("usage.sqlite: read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("usage.sqlite: begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("usage.sqlite: migration %d: %w\nstatement: %s", m.version, err, stmt)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("usage.sqlite: record schema version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("usage.sqlite: commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
