// Package model implements the Bounded Context Model, the static registry
// mapping Command types to their Command Handler and Event types to their
// ordered set of Event Handlers.
//
// A Bounded Context Model is built once at application startup and treated
// as read-only afterwards: concurrent lookups from multiple goroutines need
// no locking, as long as no registration happens past construction.
package model

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
)

// EventHandler is the interface that Domain Event Handlers should implement.
//
// An Event Handler reacts to a Domain Event and optionally raises
// "compensating actions" in the form of Domain Commands, in order to
// implement certain business processes (also known as "Process Manager").
type EventHandler interface {
	Handle(ctx context.Context, evt event.Envelope) ([]command.Envelope, error)
}

// EventHandlerFunc is a functional implementation of the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, evt event.Envelope) ([]command.Envelope, error)

// Handle implements the model.EventHandler interface.
func (fn EventHandlerFunc) Handle(ctx context.Context, evt event.Envelope) ([]command.Envelope, error) {
	return fn(ctx, evt)
}

// ErrHandlerAlreadyRegistered is returned when registering a Command Handler
// for a Command name that already has one: every Command maps to exactly
// one Command Handler.
var ErrHandlerAlreadyRegistered = fmt.Errorf("model: command handler already registered")

// BoundedContext is the handler registry for one Bounded Context.
//
// Use New to create an instance, register the context handlers during
// application startup, then share the instance by reference with each
// component that needs handler lookups. Registration is not synchronized:
// do not register handlers while lookups are in flight.
type BoundedContext struct {
	commandHandlers map[string]command.Handler
	eventHandlers   map[string][]EventHandler
}

// New creates an empty BoundedContext registry.
func New() *BoundedContext {
	return &BoundedContext{
		commandHandlers: make(map[string]command.Handler),
		eventHandlers:   make(map[string][]EventHandler),
	}
}

// RegisterCommandHandler binds the Command Handler to the specified
// Command name.
//
// Returns ErrHandlerAlreadyRegistered if a Handler is already bound to the
// Command name, as Commands route to exactly one Handler.
func (bc *BoundedContext) RegisterCommandHandler(commandName string, handler command.Handler) error {
	if _, ok := bc.commandHandlers[commandName]; ok {
		return fmt.Errorf("%w: %q", ErrHandlerAlreadyRegistered, commandName)
	}

	bc.commandHandlers[commandName] = handler

	return nil
}

// MustRegisterCommandHandler binds the Command Handler to the specified
// Command name, panicking on double registration.
//
// Intended for static startup wiring, where a double registration is a
// programming mistake.
func (bc *BoundedContext) MustRegisterCommandHandler(commandName string, handler command.Handler) *BoundedContext {
	if err := bc.RegisterCommandHandler(commandName, handler); err != nil {
		panic(err)
	}

	return bc
}

// RegisterEventHandler appends the Event Handler to the ordered set of
// Handlers bound to the specified Event name.
//
// Events map to zero or more Handlers; delivery components invoke them
// in registration order.
func (bc *BoundedContext) RegisterEventHandler(eventName string, handler EventHandler) *BoundedContext {
	bc.eventHandlers[eventName] = append(bc.eventHandlers[eventName], handler)

	return bc
}

// CommandHandlerFor returns the Command Handler bound to the specified
// Command name, or false if no Handler has been registered for it.
func (bc *BoundedContext) CommandHandlerFor(commandName string) (command.Handler, bool) {
	handler, ok := bc.commandHandlers[commandName]

	return handler, ok
}

// EventHandlersFor returns the Event Handlers bound to the specified Event
// name, in registration order. The returned slice is shared: callers must
// not modify it.
func (bc *BoundedContext) EventHandlersFor(eventName string) []EventHandler {
	return bc.eventHandlers[eventName]
}
