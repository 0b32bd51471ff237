// Package queue contains the abstractions for out-of-transaction Domain
// Event egress and ingress, e.g. towards and from an external message queue.
package queue

import (
	"context"

	"github.com/domainkit/go-domainkit/event"
)

// Writer is a fire-and-forget sink for Domain Event egress.
//
// Writes happen outside the Event Store transaction: a Write failure must
// not affect commit or rollback of the events it carries, and callers are
// expected to log-and-continue on error.
type Writer interface {
	Write(ctx context.Context, evt event.Envelope) error
}

// WriterFunc is a functional implementation of the Writer interface.
type WriterFunc func(ctx context.Context, evt event.Envelope) error

// Write implements the queue.Writer interface.
func (fn WriterFunc) Write(ctx context.Context, evt event.Envelope) error {
	return fn(ctx, evt)
}

// Handler represents a component that can process Domain Events delivered
// from an external channel.
type Handler interface {
	Handle(ctx context.Context, evt event.Envelope) error
}

// HandlerFunc is a functional implementation of the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.Envelope) error

// Handle implements the queue.Handler interface.
func (fn HandlerFunc) Handle(ctx context.Context, evt event.Envelope) error {
	return fn(ctx, evt)
}

// Subscription is used to open a stream of Domain Events from an external
// source, e.g. a message queue subscription.
type Subscription interface {
	Name() string

	// Start opens the stream and writes incoming Domain Events to the
	// provided channel. Start blocks until the subscription stops or the
	// context is canceled, and must not close the channel: the caller owns it.
	Start(ctx context.Context, events chan<- event.Envelope) error
}
