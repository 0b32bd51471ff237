// Package natsqueue provides queue.Writer and queue.Subscription
// implementations backed by a NATS connection.
//
// Events are exchanged as JSON-encoded envelopes on a subject derived from
// the event name: "<prefix>.<event-name>".
package natsqueue

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/logger"
	"github.com/domainkit/go-domainkit/queue"
	"github.com/domainkit/go-domainkit/serde"
)

// DefaultSubjectPrefix is the subject prefix used when none is specified.
const DefaultSubjectPrefix = "domain.events"

// Interface implementation assertion.
var _ queue.Writer = Writer{}

// Writer is a queue.Writer implementation publishing Domain Events to NATS.
//
// Writes are fire-and-forget: the Writer does not wait for consumer
// acknowledgement, matching the out-of-transaction egress contract.
type Writer struct {
	// Conn is the NATS connection used for publishing.
	Conn *nats.Conn

	// Serializer encodes envelopes for the wire. A serde.EventRegistry
	// covers the common case.
	Serializer serde.Serializer[event.Envelope, []byte]

	// SubjectPrefix overrides DefaultSubjectPrefix when non-empty.
	SubjectPrefix string

	Logger logger.Logger
}

func (w Writer) subject(eventName string) string {
	prefix := w.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return fmt.Sprintf("%s.%s", prefix, eventName)
}

// Write implements the queue.Writer interface.
func (w Writer) Write(_ context.Context, evt event.Envelope) error {
	data, err := w.Serializer.Serialize(evt)
	if err != nil {
		return fmt.Errorf("natsqueue.Writer: failed to serialize event, %w", err)
	}

	subject := w.subject(evt.Message.Name())

	if err := w.Conn.Publish(subject, data); err != nil {
		return fmt.Errorf("natsqueue.Writer: failed to publish event, %w", err)
	}

	logger.Debug(w.Logger, "event published",
		logger.With("subject", subject),
		logger.With("event_id", evt.ID.String()),
	)

	return nil
}

// Interface implementation assertion.
var _ queue.Subscription = Subscription{}

// Subscription is a queue.Subscription implementation consuming Domain
// Events from a NATS subject.
type Subscription struct {
	// Conn is the NATS connection used for subscribing.
	Conn *nats.Conn

	// Deserializer decodes wire data back into envelopes, typically the
	// serde.EventRegistry paired with the producing Writer.
	Deserializer serde.Deserializer[event.Envelope, []byte]

	// Subject is the NATS subject to subscribe to. Wildcards are allowed,
	// e.g. "domain.events.>" to consume every event of a prefix.
	Subject string

	Logger logger.Logger
}

// Name implements the queue.Subscription interface.
func (s Subscription) Name() string {
	return fmt.Sprintf("nats:%s", s.Subject)
}

// Start opens the NATS subscription and forwards decoded Domain Events to
// the provided channel until the context is canceled.
//
// Messages that fail to decode are logged and dropped, so a malformed
// message cannot stall the subscription.
func (s Subscription) Start(ctx context.Context, events chan<- event.Envelope) error {
	msgs := make(chan *nats.Msg, cap(events))

	sub, err := s.Conn.ChanSubscribe(s.Subject, msgs)
	if err != nil {
		return fmt.Errorf("natsqueue.Subscription: failed to subscribe to %q, %w", s.Subject, err)
	}

	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-msgs:
			evt, err := s.Deserializer.Deserialize(msg.Data)
			if err != nil {
				logger.Error(s.Logger, "failed to decode event, dropping message",
					logger.With("subject", msg.Subject),
					logger.With("error", err.Error()),
				)

				continue
			}

			select {
			case events <- evt:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
