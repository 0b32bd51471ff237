// Package command contains the types and abstractions to implement
// Command Handlers, the write-side entrypoint of a Bounded Context.
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/message"
)

// Command is a Message representing an intent to change the Domain state,
// performed by something or somebody.
//
// In order to enforce this concept, it is suggested to name Command types
// using "present tense".
type Command message.Message

// Envelope carries a Domain Command with its unique identity and Metadata.
type Envelope message.Envelope[Command]

// ToGenericEnvelope maps the Envelope instance into a message.GenericEnvelope one.
func (e Envelope) ToGenericEnvelope() message.GenericEnvelope {
	return message.GenericEnvelope{
		ID:       e.ID,
		Message:  e.Message,
		Metadata: e.Metadata,
	}
}

// New wraps the provided Domain Command in a new Envelope with a fresh identity.
func New(cmd Command) Envelope {
	return Envelope{
		ID:      uuid.New(),
		Message: cmd,
	}
}

// Handler is the interface that Domain Command Handlers should implement.
//
// A Command Handler performs the Domain logic bound to its Command type
// and returns the Domain Events recording the state changes it produced,
// in causal order. The caller owns persistence and delivery of those Events.
type Handler interface {
	Handle(ctx context.Context, cmd Envelope) ([]event.Envelope, error)
}

// HandlerFunc is a functional implementation of the Handler interface.
type HandlerFunc func(ctx context.Context, cmd Envelope) ([]event.Envelope, error)

// Handle implements the command.Handler interface.
func (fn HandlerFunc) Handle(ctx context.Context, cmd Envelope) ([]event.Envelope, error) {
	return fn(ctx, cmd)
}

// HandlerFor is a statically-typed variant of the Handler interface,
// useful for implementing Command Handlers without manual type assertions
// on the Envelope payload.
type HandlerFor[T Command] interface {
	Handle(ctx context.Context, cmd message.Envelope[T]) ([]event.Envelope, error)
}

// AsHandler adapts a statically-typed Command Handler to the generic
// Handler interface used by handler registries.
//
// The returned Handler fails if invoked with a Command payload that is not
// of the expected type, which indicates a registration mistake.
func AsHandler[T Command](handler HandlerFor[T]) Handler {
	return HandlerFunc(func(ctx context.Context, cmd Envelope) ([]event.Envelope, error) {
		payload, ok := cmd.Message.(T)
		if !ok {
			return nil, fmt.Errorf("command.AsHandler: unexpected command payload type %T", cmd.Message)
		}

		return handler.Handle(ctx, message.Envelope[T]{
			ID:       cmd.ID,
			Message:  payload,
			Metadata: cmd.Metadata,
		})
	})
}

// Dispatcher represents a component that routes Domain Commands into
// their appropriate Command Handlers.
//
// Dispatchers might be synchronous, where the Command is directly sent to
// the Command Handler and the business logic is executed synchronously.
//
// Dispatchers might also be asynchronous, where the Command is sent to an
// external queue and picked up for execution at a later point in time.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Envelope) error
}

// DispatcherFunc is a functional implementation of the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, cmd Envelope) error

// Dispatch implements the command.Dispatcher interface.
func (fn DispatcherFunc) Dispatch(ctx context.Context, cmd Envelope) error {
	return fn(ctx, cmd)
}
