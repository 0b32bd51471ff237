package engine

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/model"
)

// Delivery is the strategy the Engine uses to forward persisted Domain
// Events to their Event Handlers.
//
// The strategy is fixed at Engine construction and is one of a closed set
// of variants: None (no propagation), Dispatcher (one-way fan-out),
// Broker (two-way fan-out feeding raised Commands back into execution),
// or Direct (a single directly-wired Event Handler).
type Delivery interface {
	// Deliver routes a batch of Domain Events produced by one Command to
	// their Event Handlers, returning the Domain Commands raised in reaction.
	Deliver(ctx context.Context, events []event.Envelope) ([]command.Envelope, error)

	// Cascades reports whether the Commands returned by Deliver feed back
	// into Engine execution within the same transaction.
	//
	// For cascading strategies a Deliver failure aborts the whole cascade
	// before the commit point; for one-way strategies the staged events
	// still commit, and the failure is surfaced to the caller afterwards.
	Cascades() bool
}

type noDelivery struct{}

// None returns the Delivery strategy that performs no event propagation:
// events are persisted and returned to the caller, and Event Handlers are
// never invoked.
func None() Delivery {
	return noDelivery{}
}

func (noDelivery) Deliver(context.Context, []event.Envelope) ([]command.Envelope, error) {
	return nil, nil
}

func (noDelivery) Cascades() bool { return false }

type directDelivery struct {
	handler model.EventHandler
}

// Direct returns the Delivery strategy that forwards every persisted Domain
// Event to the single provided Event Handler, bypassing the Bounded Context
// Model event registrations.
//
// Like the Dispatcher, Direct is one-way: Commands raised by the handler
// are discarded.
func Direct(handler model.EventHandler) Delivery {
	return directDelivery{handler: handler}
}

func (d directDelivery) Deliver(ctx context.Context, events []event.Envelope) ([]command.Envelope, error) {
	for _, evt := range events {
		if _, err := d.handler.Handle(ctx, evt); err != nil {
			return nil, EventHandlerError{
				Handler:   fmt.Sprintf("%T", d.handler),
				EventName: evt.Message.Name(),
				EventID:   evt.ID,
				Err:       err,
			}
		}
	}

	return nil, nil
}

func (directDelivery) Cascades() bool { return false }
