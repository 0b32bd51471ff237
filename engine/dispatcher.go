package engine

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/logger"
	"github.com/domainkit/go-domainkit/model"
)

// Policy controls how a one-way Dispatcher reacts to an Event Handler failure.
type Policy int

const (
	// FailFast stops the fan-out at the first Event Handler failure and
	// surfaces it to the caller as an EventHandlerError.
	FailFast Policy = iota

	// BestEffort logs each Event Handler failure and keeps invoking the
	// remaining handlers; the fan-out itself never fails.
	BestEffort
)

// Interface implementation assertion.
var _ Delivery = Dispatcher{}

// Dispatcher is the one-way Delivery strategy: it fans a Domain Event out
// to all Event Handlers registered for its type, in registration order.
//
// Commands raised by the invoked handlers are discarded — one-way means
// fire-and-forget with respect to cascading. Compose the Engine with a
// Broker instead when raised Commands should feed back into execution.
type Dispatcher struct {
	// Source yields the Bounded Context Model used for handler lookups.
	Source model.Source

	// Policy is the failure policy applied during fan-out.
	// The zero value is FailFast.
	Policy Policy

	// Logger, if set, receives the failures absorbed under BestEffort.
	Logger logger.Logger
}

// Dispatch fans the single provided Domain Event out to its Event Handlers.
func (d Dispatcher) Dispatch(ctx context.Context, evt event.Envelope) error {
	_, err := d.Deliver(ctx, []event.Envelope{evt})

	return err
}

// Deliver implements the engine.Delivery interface.
func (d Dispatcher) Deliver(ctx context.Context, events []event.Envelope) ([]command.Envelope, error) {
	bc := d.Source.Model()

	for _, evt := range events {
		for _, handler := range bc.EventHandlersFor(evt.Message.Name()) {
			_, err := handler.Handle(ctx, evt)
			if err == nil {
				continue
			}

			handlerErr := EventHandlerError{
				Handler:   fmt.Sprintf("%T", handler),
				EventName: evt.Message.Name(),
				EventID:   evt.ID,
				Err:       err,
			}

			if d.Policy == FailFast {
				return nil, handlerErr
			}

			logger.Error(d.Logger, "event handler failed, continuing fan-out",
				logger.With("handler", handlerErr.Handler),
				logger.With("event_name", handlerErr.EventName),
				logger.With("event_id", handlerErr.EventID.String()),
				logger.With("error", err.Error()),
			)
		}
	}

	return nil, nil
}

// Cascades implements the engine.Delivery interface.
func (Dispatcher) Cascades() bool { return false }
