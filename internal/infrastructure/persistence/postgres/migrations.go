package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION SUPPORT
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrator applies the embedded migrations once each.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "ipms_schema_migrations",
	}
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName))
	if err != nil {
		return fmt.Errorf("%w: create migrations table: %w", ErrMigrationFailed, err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		err := m.conn.WithTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %w", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.Query(ctx, fmt.Sprintf("SELECT version FROM %s", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("%w: query applied migrations: %w", ErrMigrationFailed, err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("%w: scan applied migrations: %w", ErrMigrationFailed, err)
	}

	out := make(map[int]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_records", UpSQL: migration001Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// Position 0 holds the header row of a collection.
const migration001Up = `
CREATE TABLE IF NOT EXISTS ipms_records (
    collection VARCHAR(64) NOT NULL,
    position   INTEGER     NOT NULL,
    fields     TEXT[]      NOT NULL,
    PRIMARY KEY (collection, position)
);
`
