package engine

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
	"github.com/domainkit/go-domainkit/logger"
	"github.com/domainkit/go-domainkit/model"
)

// TransactionalHandler processes Domain Events arriving from an external
// channel (e.g. a message queue) with at-most-once handling semantics,
// wrapping handler invocation with idempotency bookkeeping against the
// Event Store.
//
// On Handle, the Store is first checked for a record proving the event was
// already handled; if found, the call is a no-op success, tolerating
// at-least-once delivery upstream. Otherwise the registered Event Handlers
// run, and the idempotency marker is recorded afterwards. A crash between
// handling and marking leaves the marker absent, so the event is re-handled
// on redelivery: Event Handlers registered behind a TransactionalHandler
// must be safe to re-run, or detectably idempotent themselves.
type TransactionalHandler struct {
	// Source yields the Bounded Context Model used for handler lookups.
	// Use model.Cached to memoize the model across calls under
	// single-instance deployment assumptions, or model.Factory to rebuild
	// it on every event.
	Source model.Source

	// Store provides the idempotency record lookups and marker writes.
	Store eventstore.Store

	// Context is the Bounded Context key scoping the idempotency records.
	Context eventstore.ContextKey

	// Commands, if set, receives the Domain Commands raised by the invoked
	// Event Handlers. An Engine instance is the usual sink. When nil,
	// raised Commands are discarded.
	Commands command.Dispatcher

	// Logger, if set, receives processing diagnostics.
	Logger logger.Logger
}

// Handle processes the provided Domain Event at most once.
func (h TransactionalHandler) Handle(ctx context.Context, evt event.Envelope) error {
	key := eventstore.IdempotencyKey{MessageID: evt.ID, Context: h.Context}

	handled, err := h.Store.HasRecord(ctx, key)
	if err != nil {
		return IdempotencyError{Key: key, Err: err}
	}

	if handled {
		logger.Debug(h.Logger, "event already handled, skipping",
			logger.With("event_name", evt.Message.Name()),
			logger.With("event_id", evt.ID.String()),
		)

		return nil
	}

	bc := h.Source.Model()

	for _, handler := range bc.EventHandlersFor(evt.Message.Name()) {
		commands, err := handler.Handle(ctx, evt)
		if err != nil {
			return EventHandlerError{
				Handler:   fmt.Sprintf("%T", handler),
				EventName: evt.Message.Name(),
				EventID:   evt.ID,
				Err:       err,
			}
		}

		if h.Commands == nil {
			continue
		}

		for _, cmd := range commands {
			if err := h.Commands.Dispatch(ctx, cmd); err != nil {
				return fmt.Errorf("engine.TransactionalHandler: failed to dispatch raised command %q, %w",
					cmd.Message.Name(), err)
			}
		}
	}

	if err := h.Store.MarkHandled(ctx, key); err != nil {
		return IdempotencyError{Key: key, Err: err}
	}

	return nil
}
