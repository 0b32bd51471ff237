package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	context     TEXT        NOT NULL,
	message_id  UUID        NOT NULL,
	name        TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	metadata    JSONB,
	recorded_at TIMESTAMPTZ NOT NULL,

	PRIMARY KEY (context, message_id)
);

CREATE TABLE IF NOT EXISTS %[2]s (
	context    TEXT        NOT NULL,
	message_id UUID        NOT NULL,
	handled_at TIMESTAMPTZ NOT NULL,

	PRIMARY KEY (context, message_id)
);
`

// Migrate creates the tables required by a Store, if missing.
//
// Table names must match the ones the Store is configured with.
func Migrate(ctx context.Context, pool *pgxpool.Pool, opts ...Option) error {
	s := &Store{
		pool:         pool,
		eventsTable:  defaultEventsTableName,
		handledTable: defaultHandledTableName,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return err
		}
	}

	schema := fmt.Sprintf(schemaTemplate, s.eventsTable, s.handledTable)

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.Migrate: failed to run schema migration, %w", err)
	}

	return nil
}
