package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/domainkit/go-domainkit/eventstore"
)

// UnregisteredHandlerError is returned when a Command — submitted by the
// external caller or raised by an Event Handler mid-cascade — has no
// Command Handler registered in the Bounded Context Model.
//
// This is a configuration error, not a transient condition: retrying the
// call will fail the same way until the model registration is fixed.
type UnregisteredHandlerError struct {
	MessageName string
	Depth       int
}

func (err UnregisteredHandlerError) Error() string {
	return fmt.Sprintf("engine: no command handler registered for %q (cascade depth %d)", err.MessageName, err.Depth)
}

// CommandHandlerError is returned when a Command Handler fails while
// evaluating a Command. The whole cascade is aborted and nothing is persisted.
type CommandHandlerError struct {
	Handler     string
	CommandName string
	CommandID   uuid.UUID
	Err         error
}

func (err CommandHandlerError) Error() string {
	return fmt.Sprintf("engine: command handler %s failed handling %q (%s), %s",
		err.Handler, err.CommandName, err.CommandID, err.Err)
}

func (err CommandHandlerError) Unwrap() error { return err.Err }

// EventHandlerError is returned when an Event Handler fails while
// processing a Domain Event, carrying the identity of the failing handler
// and of the event being processed.
type EventHandlerError struct {
	Handler   string
	EventName string
	EventID   uuid.UUID
	Err       error
}

func (err EventHandlerError) Error() string {
	return fmt.Sprintf("engine: event handler %s failed handling %q (%s), %s",
		err.Handler, err.EventName, err.EventID, err.Err)
}

func (err EventHandlerError) Unwrap() error { return err.Err }

// PersistenceError is returned when the Event Store failed to append the
// Domain Events staged by a cascade. No event from the cascade is retained.
type PersistenceError struct {
	Context eventstore.ContextKey
	Err     error
}

func (err PersistenceError) Error() string {
	return fmt.Sprintf("engine: failed to persist events for context %q, %s", err.Context, err.Err)
}

func (err PersistenceError) Unwrap() error { return err.Err }

// CascadeDepthError is returned when a Command cascade exceeds the
// configured maximum depth. This usually indicates a cyclic Command/Event
// relationship in the Domain logic.
type CascadeDepthError struct {
	CommandName string
	MaxDepth    int
}

func (err CascadeDepthError) Error() string {
	return fmt.Sprintf("engine: command %q exceeded maximum cascade depth (%d)", err.CommandName, err.MaxDepth)
}

// IdempotencyError is returned when the idempotency marker for a Domain
// Event could not be queried or written against the Event Store.
type IdempotencyError struct {
	Key eventstore.IdempotencyKey
	Err error
}

func (err IdempotencyError) Error() string {
	return fmt.Sprintf("engine: idempotency bookkeeping failed for %s, %s", err.Key, err.Err)
}

func (err IdempotencyError) Unwrap() error { return err.Err }
