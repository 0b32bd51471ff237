// Package engine implements the execution pipeline of a Bounded Context:
// it routes a Domain Command to its registered Command Handler, persists
// the Domain Events the handler produces, and optionally cascades those
// Events to Event Handlers, whose raised Commands recurse back through the
// same pipeline within one logical transaction.
package engine

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
	"github.com/domainkit/go-domainkit/logger"
	"github.com/domainkit/go-domainkit/model"
	"github.com/domainkit/go-domainkit/queue"
)

// DefaultMaxCascadeDepth is the maximum Command cascade depth enforced by
// an Engine when not overridden through WithMaxCascadeDepth.
const DefaultMaxCascadeDepth = 50

// Engine executes Domain Commands against a Bounded Context Model.
//
// Use New to create an instance. An Engine is safe for concurrent use:
// the Bounded Context Model is read-only, and all per-call state is owned
// by the single in-flight Execute invocation.
type Engine struct {
	source     model.Source
	store      eventstore.Appender
	contextKey eventstore.ContextKey
	delivery   Delivery
	hasDeliver bool
	queue      queue.Writer
	maxDepth   int
	log        logger.Logger
}

// Option configures an Engine instance during construction.
type Option func(*Engine) error

// WithMaxCascadeDepth overrides DefaultMaxCascadeDepth as the maximum
// Command cascade depth for the Engine.
func WithMaxCascadeDepth(depth int) Option {
	return func(e *Engine) error {
		if depth <= 0 {
			return fmt.Errorf("engine: maximum cascade depth must be positive, got %d", depth)
		}

		e.maxDepth = depth

		return nil
	}
}

// WithDelivery selects the Delivery strategy used to forward persisted
// Domain Events to their Event Handlers.
//
// At most one Delivery strategy can be active per Engine instance:
// applying this option twice fails construction.
func WithDelivery(delivery Delivery) Option {
	return func(e *Engine) error {
		if e.hasDeliver {
			return fmt.Errorf("engine: delivery strategy already configured")
		}

		e.delivery = delivery
		e.hasDeliver = true

		return nil
	}
}

// WithQueueWriter configures a fire-and-forget sink receiving every Domain
// Event after a successful commit. Write failures are logged, never
// surfaced: the queue is outside the transaction boundary.
func WithQueueWriter(writer queue.Writer) Option {
	return func(e *Engine) error {
		e.queue = writer

		return nil
	}
}

// WithLogger configures the logger used by the Engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) error {
		e.log = log

		return nil
	}
}

// New creates a new Engine executing Commands against the Bounded Context
// Model yielded by source, persisting Domain Events to store under the
// specified Context key.
func New(source model.Source, store eventstore.Appender, contextKey eventstore.ContextKey, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("engine: model source is required")
	}

	if store == nil {
		return nil, fmt.Errorf("engine: event store appender is required")
	}

	e := &Engine{
		source:     source,
		store:      store,
		contextKey: contextKey,
		delivery:   None(),
		maxDepth:   DefaultMaxCascadeDepth,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// queuedCommand is one pending entry of the cascade worklist.
type queuedCommand struct {
	cmd   command.Envelope
	depth int
}

// Execute runs the provided Domain Command through the execution pipeline,
// returning all the Domain Events produced by the cascade in the order
// they were staged for persistence.
//
// The cascade is processed as an iterative worklist, never through
// call-stack recursion: each Command is routed to its Command Handler, the
// resulting Events are staged and handed to the Delivery strategy, and any
// Commands a Broker collects are enqueued at the next cascade depth. All
// staged Events are appended to the Event Store in a single batch at the
// end — the commit point — so the whole cascade commits or rolls back as
// one unit.
//
// A failure from a one-way Delivery strategy (Dispatcher under FailFast,
// or Direct) does not prevent the commit: the staged Events are persisted
// and returned together with the EventHandlerError, since one-way delivery
// sits past the commit point. Every other failure aborts the call before
// anything is persisted.
func (e *Engine) Execute(ctx context.Context, cmd command.Envelope) ([]event.Envelope, error) {
	bc := e.source.Model()

	worklist := []queuedCommand{{cmd: cmd, depth: 1}}
	correlationID := cmd.ID

	var (
		staged      []event.Envelope
		deliveryErr error
	)

	for len(worklist) > 0 {
		next := worklist[0]
		worklist = worklist[1:]

		if next.depth > e.maxDepth {
			return nil, CascadeDepthError{
				CommandName: next.cmd.Message.Name(),
				MaxDepth:    e.maxDepth,
			}
		}

		handler, ok := bc.CommandHandlerFor(next.cmd.Message.Name())
		if !ok {
			return nil, UnregisteredHandlerError{
				MessageName: next.cmd.Message.Name(),
				Depth:       next.depth,
			}
		}

		events, err := handler.Handle(ctx, next.cmd)
		if err != nil {
			return nil, CommandHandlerError{
				Handler:     fmt.Sprintf("%T", handler),
				CommandName: next.cmd.Message.Name(),
				CommandID:   next.cmd.ID,
				Err:         err,
			}
		}

		for i := range events {
			events[i] = event.WithProvenance(events[i], next.cmd.ID, correlationID)
		}

		staged = append(staged, events...)

		logger.Debug(e.log, "command handled",
			logger.With("command_name", next.cmd.Message.Name()),
			logger.With("command_id", next.cmd.ID.String()),
			logger.With("depth", next.depth),
			logger.With("events", len(events)),
		)

		if len(events) == 0 {
			continue
		}

		raised, err := e.delivery.Deliver(ctx, events)
		if err != nil {
			if e.delivery.Cascades() {
				return nil, err
			}

			// One-way delivery sits past the commit point: remember the
			// failure, persist what was staged, surface it afterwards.
			deliveryErr = err

			continue
		}

		if !e.delivery.Cascades() {
			continue
		}

		for _, raisedCmd := range raised {
			worklist = append(worklist, queuedCommand{cmd: raisedCmd, depth: next.depth + 1})
		}
	}

	if len(staged) > 0 {
		if err := e.store.Append(ctx, e.contextKey, staged...); err != nil {
			return nil, PersistenceError{Context: e.contextKey, Err: err}
		}
	}

	e.egress(ctx, staged)

	if deliveryErr != nil {
		return staged, deliveryErr
	}

	return staged, nil
}

// Dispatch implements the command.Dispatcher interface, discarding the
// Domain Events produced by the cascade.
func (e *Engine) Dispatch(ctx context.Context, cmd command.Envelope) error {
	_, err := e.Execute(ctx, cmd)

	return err
}

// egress writes committed events to the configured queue Writer,
// fire-and-forget.
func (e *Engine) egress(ctx context.Context, events []event.Envelope) {
	if e.queue == nil {
		return
	}

	for _, evt := range events {
		if err := e.queue.Write(ctx, evt); err != nil {
			logger.Error(e.log, "failed to write event to queue",
				logger.With("event_name", evt.Message.Name()),
				logger.With("event_id", evt.ID.String()),
				logger.With("error", err.Error()),
			)
		}
	}
}
