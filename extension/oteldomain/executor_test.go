package oteldomain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/extension/oteldomain"
	"github.com/domainkit/go-domainkit/internal/orders"
)

type executorFunc func(ctx context.Context, cmd command.Envelope) ([]event.Envelope, error)

func (f executorFunc) Execute(ctx context.Context, cmd command.Envelope) ([]event.Envelope, error) {
	return f(ctx, cmd)
}

func TestInstrumentedExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the wrapped executor", func(t *testing.T) {
		expected := []event.Envelope{
			event.New(orders.OrderCreated{OrderID: "order-1"}),
		}

		var received command.Envelope

		executor, err := oteldomain.InstrumentExecutor(
			executorFunc(func(_ context.Context, cmd command.Envelope) ([]event.Envelope, error) {
				received = cmd
				return expected, nil
			}),
			oteldomain.WithTracerProvider(tracenoop.NewTracerProvider()),
			oteldomain.WithMeterProvider(noop.NewMeterProvider()),
		)
		require.NoError(t, err)

		cmd := command.New(orders.CreateOrder{OrderID: "order-1"})
		events, err := executor.Execute(ctx, cmd)

		assert.NoError(t, err)
		assert.Equal(t, expected, events)
		assert.Equal(t, cmd.ID, received.ID)
	})

	t.Run("propagates executor failures", func(t *testing.T) {
		expectedErr := errors.New("executor failed")

		executor, err := oteldomain.InstrumentExecutor(
			executorFunc(func(context.Context, command.Envelope) ([]event.Envelope, error) {
				return nil, expectedErr
			}),
		)
		require.NoError(t, err)

		events, err := executor.Execute(ctx, command.New(orders.CreateOrder{OrderID: "order-1"}))

		assert.ErrorIs(t, err, expectedErr)
		assert.Empty(t, events)
	})
}
