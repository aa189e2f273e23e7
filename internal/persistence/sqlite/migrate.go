package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Steps are applied exactly once, in
// version order, and recorded in schema_migrations.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_resources",
		stmts: []string{`
			CREATE TABLE resources (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL CHECK (type IN ('room', 'desk')),
				location_id TEXT NOT NULL DEFAULT '',
				active INTEGER NOT NULL DEFAULT 1,
				under_maintenance INTEGER NOT NULL DEFAULT 0,
				blocked_from TEXT,
				blocked_until TEXT,
				block_reason TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`},
	},
	{
		version: 2,
		name:    "create_bookings",
		stmts: []string{`
			CREATE TABLE bookings (
				id TEXT PRIMARY KEY,
				resource_id TEXT NOT NULL REFERENCES resources(id),
				user_id TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('reserved', 'checked_in', 'completed', 'cancelled', 'no_show')),
				meeting_name TEXT,
				purpose TEXT,
				participant_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				cancelled_at TEXT,
				cancellation_reason TEXT,
				CHECK (end_time > start_time)
			)
		`,
			`CREATE INDEX idx_bookings_resource_time ON bookings(resource_id, start_time)`,
			`CREATE INDEX idx_bookings_status ON bookings(status)`,
			`CREATE INDEX idx_bookings_user ON bookings(user_id)`,
		},
	},
	{
		version: 3,
		name:    "create_check_ins",
		stmts: []string{`
			CREATE TABLE check_ins (
				booking_id TEXT PRIMARY KEY REFERENCES bookings(id),
				check_in_at TEXT,
				check_out_at TEXT,
				no_show INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`},
	},
}

// Migrate brings the schema up to the latest version. It is safe to call on
// every start.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	err := pool.DB().QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
				return fmt.Errorf("migration %d (%s): record: %w", m.version, m.name, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}
