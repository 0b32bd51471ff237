package queue

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/logger"
)

// DefaultRelayBufferSize is the default size for the buffered channel
// opened by a Relay instance, if not specified.
const DefaultRelayBufferSize = 32

// Relay is an infrastructural component that pipes Domain Events from an
// external Subscription into the provided Handler, one event at a time.
//
// The typical Handler is an engine.TransactionalHandler, which makes an
// at-least-once Subscription safe through idempotency bookkeeping.
type Relay struct {
	Subscription
	Handler

	BufferSize int

	Logger logger.Logger
}

// Run starts listening to Domain Events from the Subscription and passes
// them to the Handler instance for processing.
//
// Run is a blocking call, that will exit when either the Handler returns
// an error, or the Subscription stops. To stop the Relay, cancel the
// provided context; the error returned in that case is context.Canceled,
// which usually represents normal operation.
func (r Relay) Run(ctx context.Context) error {
	bufferSize := r.BufferSize
	if bufferSize == 0 {
		bufferSize = DefaultRelayBufferSize
	}

	eventStream := make(chan event.Envelope, bufferSize)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(eventStream)

		logger.Info(r.Logger, "relay started subscription", logger.With("subscription", r.Subscription.Name()))

		if err := r.Subscription.Start(ctx, eventStream); err != nil {
			return fmt.Errorf("%T: subscription exited with error, %w", r, err)
		}

		return nil
	})

	group.Go(func() error {
		for evt := range eventStream {
			logger.Debug(r.Logger, "relay received event",
				logger.With("event_name", evt.Message.Name()),
				logger.With("event_id", evt.ID.String()),
			)

			if err := r.Handler.Handle(ctx, evt); err != nil {
				return fmt.Errorf("%T: failed to handle event, %w", r, err)
			}
		}

		return nil
	})

	return group.Wait()
}
