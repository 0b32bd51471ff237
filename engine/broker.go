package engine

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/model"
)

// Interface implementation assertion.
var _ Delivery = Broker{}

// Broker is the two-way Delivery strategy: it fans a Domain Event batch out
// to the registered Event Handlers and collects the Domain Commands they
// raise, preserving (event order, handler registration order, per-handler
// command order) as a single flattened sequence.
//
// Wired into an Engine, the collected Commands feed back into execution at
// the next cascade depth, within the same transaction. An Event Handler
// failure aborts the whole cascade before the commit point.
type Broker struct {
	// Source yields the Bounded Context Model used for handler lookups.
	Source model.Source

	// Responder, if set, receives each raised Command for immediate
	// execution instead of returning it to the Engine recursion path.
	// This is the "broker that expects a response" pattern: each event
	// handling round-trips through the Responder before the caller proceeds.
	Responder command.Dispatcher
}

// Deliver implements the engine.Delivery interface.
func (b Broker) Deliver(ctx context.Context, events []event.Envelope) ([]command.Envelope, error) {
	bc := b.Source.Model()

	var raised []command.Envelope

	for _, evt := range events {
		for _, handler := range bc.EventHandlersFor(evt.Message.Name()) {
			commands, err := handler.Handle(ctx, evt)
			if err != nil {
				return nil, EventHandlerError{
					Handler:   fmt.Sprintf("%T", handler),
					EventName: evt.Message.Name(),
					EventID:   evt.ID,
					Err:       err,
				}
			}

			raised = append(raised, commands...)
		}
	}

	if b.Responder == nil {
		return raised, nil
	}

	for _, cmd := range raised {
		if err := b.Responder.Dispatch(ctx, cmd); err != nil {
			return nil, fmt.Errorf("engine.Broker: responder failed to execute raised command %q, %w",
				cmd.Message.Name(), err)
		}
	}

	return nil, nil
}

// Cascades implements the engine.Delivery interface.
func (Broker) Cascades() bool { return true }
