// Package postgres provides an eventstore.Store implementation backed by
// PostgreSQL, using pgx for connectivity and goqu for SQL generation.
//
// Batch appends run inside a single database transaction, and event
// deduplication relies on the primary key over (context, message id):
// already-recorded occurrences are skipped through ON CONFLICT DO NOTHING.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
	"github.com/domainkit/go-domainkit/logger"
)

const (
	defaultEventsTableName  = "domain_event"
	defaultHandledTableName = "handled_message"
)

var (
	dialect = goqu.Dialect("postgres")
	json    = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Interface implementation assertion.
var _ eventstore.Store = new(Store)

// Store is an eventstore.Store implementation backed by PostgreSQL.
//
// Use NewStore to create a new instance.
type Store struct {
	pool         *pgxpool.Pool
	eventsTable  string
	handledTable string
	log          logger.Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithEventsTable overrides the table name used for Domain Event records.
func WithEventsTable(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("postgres.Store: events table name cannot be empty")
		}

		s.eventsTable = name

		return nil
	}
}

// WithHandledTable overrides the table name used for idempotency markers.
func WithHandledTable(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("postgres.Store: handled table name cannot be empty")
		}

		s.handledTable = name

		return nil
	}
}

// WithLogger sets the logger used for SQL diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.log = log

		return nil
	}
}

// NewStore creates a new Store instance on top of the provided pgx pool.
func NewStore(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres.Store: database connection pool is required")
	}

	s := &Store{
		pool:         pool,
		eventsTable:  defaultEventsTableName,
		handledTable: defaultHandledTableName,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Append stores the provided Domain Events under the specified Context.
//
// The batch runs in a single transaction: either every new event is
// recorded, or none is. Events whose identity is already recorded for the
// Context are skipped by the ON CONFLICT clause, keeping the append
// idempotent per occurrence.
func (s *Store) Append(ctx context.Context, key eventstore.ContextKey, events ...event.Envelope) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]any, 0, len(events))

	for _, evt := range events {
		payload, err := json.Marshal(evt.Message)
		if err != nil {
			return fmt.Errorf("postgres.Store: failed to serialize event payload, %w", err)
		}

		metadata, err := json.Marshal(evt.Metadata)
		if err != nil {
			return fmt.Errorf("postgres.Store: failed to serialize event metadata, %w", err)
		}

		rows = append(rows, goqu.Record{
			"context":     string(key),
			"message_id":  evt.ID,
			"name":        evt.Message.Name(),
			"payload":     payload,
			"metadata":    metadata,
			"recorded_at": time.Now().UTC(),
		})
	}

	query, args, err := dialect.
		Insert(s.eventsTable).
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("postgres.Store: failed to build insert query, %w", err)
	}

	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.Store: failed to open transaction, %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres.Store: failed to append events, %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Store: failed to commit transaction, %w", err)
	}

	logger.Debug(s.log, "events appended",
		logger.With("context", string(key)),
		logger.With("event_count", len(events)),
		logger.With("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}

// HasRecord reports whether the Message occurrence addressed by the key
// has been appended to, or marked as handled in, this Store.
func (s *Store) HasRecord(ctx context.Context, key eventstore.IdempotencyKey) (bool, error) {
	for _, table := range []string{s.handledTable, s.eventsTable} {
		query, args, err := dialect.
			From(table).
			Select(goqu.L("1")).
			Where(goqu.Ex{
				"context":    string(key.Context),
				"message_id": key.MessageID,
			}).
			Limit(1).
			Prepared(true).
			ToSQL()
		if err != nil {
			return false, fmt.Errorf("postgres.Store: failed to build lookup query, %w", err)
		}

		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return false, fmt.Errorf("postgres.Store: failed to query record, %w", err)
		}

		found := rows.Next()
		rows.Close()

		if err := rows.Err(); err != nil {
			return false, fmt.Errorf("postgres.Store: failed to read record, %w", err)
		}

		if found {
			return true, nil
		}
	}

	return false, nil
}

// MarkHandled records that the Message occurrence addressed by the key
// has been fully handled. Marking the same occurrence twice is a no-op.
func (s *Store) MarkHandled(ctx context.Context, key eventstore.IdempotencyKey) error {
	query, args, err := dialect.
		Insert(s.handledTable).
		Rows(goqu.Record{
			"context":    string(key.Context),
			"message_id": key.MessageID,
			"handled_at": time.Now().UTC(),
		}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("postgres.Store: failed to build marker query, %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres.Store: failed to mark message as handled, %w", err)
	}

	return nil
}
