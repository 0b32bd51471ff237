// Package eventstore contains the abstractions for the append-only
// persistence layer backing a Bounded Context.
//
// The engine treats the Event Store as an opaque transactional resource:
// implementations own their concurrency discipline and must make a batch
// Append atomic, so a whole command cascade commits or rolls back as one unit.
package eventstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/domainkit/go-domainkit/event"
)

// ContextKey identifies the Bounded Context a record belongs to.
//
// Records are deduplicated per Context: the same Event identity appended
// under two different ContextKeys counts as two distinct records.
type ContextKey string

// IdempotencyKey is the deduplication key for one Message occurrence
// within one Bounded Context.
type IdempotencyKey struct {
	MessageID uuid.UUID
	Context   ContextKey
}

func (k IdempotencyKey) String() string {
	return fmt.Sprintf("%s/%s", k.Context, k.MessageID)
}

// Appender is an Event Store trait used to append new Domain Events.
//
// Append must be atomic over the whole batch, and must skip (not fail on)
// events whose IdempotencyKey has already been recorded, so that an Event
// is never persisted twice for the same key.
type Appender interface {
	Append(ctx context.Context, key ContextKey, events ...event.Envelope) error
}

// RecordChecker is an Event Store trait used to look up whether a Message
// occurrence has already been recorded or marked as handled.
type RecordChecker interface {
	HasRecord(ctx context.Context, key IdempotencyKey) (bool, error)
}

// Marker is an Event Store trait used to record that a Message occurrence
// has been fully handled, making at-least-once redelivery detectable.
type Marker interface {
	MarkHandled(ctx context.Context, key IdempotencyKey) error
}

// Store represents an Event Store, a stateful data source where Domain
// Events can be safely persisted with idempotency bookkeeping.
type Store interface {
	Appender
	RecordChecker
	Marker
}

// FusedStore is a convenience type to fuse multiple Event Store traits
// where you might need to extend the functionality of a Store only partially,
// e.g. wrapping the Append() behavior while keeping the rest as-is.
type FusedStore struct {
	Appender
	RecordChecker
	Marker
}
