package sqlite

import (
	"context"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			account TEXT NOT NULL,
			action TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code INTEGER NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_account_at ON actions (account, at DESC);`,
		`CREATE TABLE IF NOT EXISTS prizes (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			account TEXT NOT NULL,
			banana_id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			ripeness TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_prizes_account_at ON prizes (account, at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
