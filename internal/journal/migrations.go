package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// ExpectedSchemaVersion is the schema version this build writes.
const ExpectedSchemaVersion = 2

// Migration is one schema step.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial transitions table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transitions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					recorded_at DATETIME NOT NULL,
					state TEXT NOT NULL,
					ticker TEXT NOT NULL DEFAULT '',
					result_id TEXT NOT NULL DEFAULT '',
					error_kind TEXT NOT NULL DEFAULT '',
					error TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_transitions_ticker ON transitions(ticker)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add depth and snapshot version",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE transitions ADD COLUMN depth TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE transitions ADD COLUMN version INTEGER NOT NULL DEFAULT 0`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending migrations. It is safe to call repeatedly.
func (j *Journal) Migrate(ctx context.Context) error {
	var currentVersion int
	if err := j.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := j.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		j.logger.Debug("Applied journal migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := j.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("journal schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
