package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_books",
		SQL: `CREATE TABLE IF NOT EXISTS books (
  id         TEXT        PRIMARY KEY,
  data       JSONB       NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_snapshots",
		SQL: `CREATE TABLE IF NOT EXISTS snapshots (
  seq          BIGSERIAL   PRIMARY KEY,
  id           TEXT        NOT NULL UNIQUE,
  target_type  TEXT        NOT NULL,
  target_id    TEXT        NOT NULL,
  committer_id TEXT,
  time         TIMESTAMPTZ NOT NULL,
  type         TEXT        NOT NULL CHECK (type IN ('created', 'modified', 'deleted', 'reverted')),
  reason       TEXT,
  value        JSONB
);`,
	},
	{
		Name: "create_index_snapshots_target_time",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snapshots_target_time ON snapshots (target_type, target_id, time, seq);`,
	},
	{
		Name: "create_table_votes",
		SQL: `CREATE TABLE IF NOT EXISTS votes (
  user_id     TEXT             NOT NULL,
  entity_type TEXT             NOT NULL,
  entity_id   TEXT             NOT NULL,
  type        TEXT             NOT NULL CHECK (type IN ('up', 'down')),
  weight      DOUBLE PRECISION NOT NULL,
  time        TIMESTAMPTZ      NOT NULL,
  PRIMARY KEY (user_id, entity_type, entity_id)
);`,
	},
	{
		Name: "create_index_votes_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_votes_entity ON votes (entity_type, entity_id);`,
	},
	{
		Name: "create_table_delete_queue",
		SQL: `CREATE TABLE IF NOT EXISTS delete_queue (
  filename         TEXT        PRIMARY KEY,
  soft_delete_time TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_delete_queue_time",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_delete_queue_time ON delete_queue (soft_delete_time);`,
	},
}

// EnsureMigrated creates the schema unless the sentinel table already exists.
// Every step is idempotent, so a partially applied schema is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *zap.Logger, dbHost string) error {
	start := time.Now()
	logger = logger.Named("migration").With(zap.String("db_host", dbHost))

	logger.Info("Checking database schema")

	var exists bool
	query := "SELECT to_regclass('public.delete_queue') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		logger.Error("Failed to check sentinel table",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info("Schema already exists, skipping migration",
			zap.Duration("duration", time.Since(start)))
		return nil
	}

	logger.Info("Applying migrations", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("Migration step failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("step_duration", time.Since(stepStart)))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Debug("Migration step applied",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration", time.Since(stepStart)))
	}

	logger.Info("Migration completed", zap.Duration("duration", time.Since(start)))
	return nil
}
