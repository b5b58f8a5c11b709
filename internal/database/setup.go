package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
)

// schemaVersion bumps on any change to the events table layout. There is no
// field-level migration: a version mismatch drops and recreates the table.
const schemaVersion = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id bigserial PRIMARY KEY,
		title text NOT NULL,
		note text NOT NULL DEFAULT '',
		date text NOT NULL,
		start_time text NOT NULL,
		end_time text NOT NULL,
		reminder_times text NOT NULL DEFAULT '[]',
		reminder_methods text NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`,
	`CREATE OR REPLACE FUNCTION notify_events_changed() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('events_changed', '');
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS events_changed ON events`,
	`CREATE TRIGGER events_changed
		AFTER INSERT OR UPDATE OR DELETE ON events
		FOR EACH STATEMENT EXECUTE PROCEDURE notify_events_changed()`,
}

// Setup prepares the schema. Events are treated as non-critical personal
// data, so an outdated schema is rebuilt destructively instead of migrated.
func Setup(ctx context.Context, p PGX) error {
	if _, err := p.ExecRaw(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version integer NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err := p.Get(ctx, &version, PSQL.Select("version").From("schema_version"))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := p.ExecRaw(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		if _, err := p.ExecRaw(ctx, `DROP TABLE IF EXISTS events`); err != nil {
			return fmt.Errorf("drop outdated events table: %w", err)
		}
		if _, err := p.ExecRaw(ctx, `UPDATE schema_version SET version = $1`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}

	for _, stmt := range schemaStatements {
		if _, err := p.ExecRaw(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
