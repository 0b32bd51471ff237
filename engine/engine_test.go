package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/engine"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
	"github.com/domainkit/go-domainkit/eventstore/inmemory"
	"github.com/domainkit/go-domainkit/internal/orders"
	"github.com/domainkit/go-domainkit/logger"
	"github.com/domainkit/go-domainkit/model"
	"github.com/domainkit/go-domainkit/queue"
)

const contextKey = eventstore.ContextKey("orders-test")

// appenderFunc is a functional eventstore.Appender implementation.
type appenderFunc func(ctx context.Context, key eventstore.ContextKey, events ...event.Envelope) error

func (fn appenderFunc) Append(ctx context.Context, key eventstore.ContextKey, events ...event.Envelope) error {
	return fn(ctx, key, events...)
}

func payloadsOf(events []event.Envelope) []event.Event {
	var payloads []event.Event
	for _, evt := range events {
		payloads = append(payloads, evt.Message)
	}

	return payloads
}

func TestEngineExecute(t *testing.T) {
	source := model.Static(orders.NewModel())

	t.Run("returns the events the handler produced, persisted in the same order", func(t *testing.T) {
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey)
		require.NoError(t, err)

		cmd := command.New(orders.CreateOrder{OrderID: "order-1"})

		events, err := eng.Execute(context.Background(), cmd)
		assert.NoError(t, err)
		assert.Equal(t, []event.Event{orders.OrderCreated{OrderID: "order-1"}}, payloadsOf(events))
		assert.Len(t, store.Events(contextKey), 1)
	})

	t.Run("stamps provenance metadata on produced events", func(t *testing.T) {
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey)
		require.NoError(t, err)

		cmd := command.New(orders.CreateOrder{OrderID: "order-1"})

		events, err := eng.Execute(context.Background(), cmd)
		require.NoError(t, err)
		require.Len(t, events, 1)

		causationID, ok := events[0].CausationID()
		assert.True(t, ok)
		assert.Equal(t, cmd.ID, causationID)

		correlationID, ok := events[0].CorrelationID()
		assert.True(t, ok)
		assert.Equal(t, cmd.ID, correlationID)
	})

	t.Run("fails with UnregisteredHandlerError and performs no persistence", func(t *testing.T) {
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(unknownCommand{}))

		var expected engine.UnregisteredHandlerError
		require.ErrorAs(t, err, &expected)
		assert.Equal(t, unknownCommand{}.Name(), expected.MessageName)
		assert.Equal(t, 1, expected.Depth)
		assert.Empty(t, store.Events(contextKey))
	})

	t.Run("surfaces command handler failures without persisting anything", func(t *testing.T) {
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(orders.CreateOrder{}))

		var handlerErr engine.CommandHandlerError
		require.ErrorAs(t, err, &handlerErr)
		assert.ErrorIs(t, err, orders.ErrEmptyOrderID)
		assert.Empty(t, store.Events(contextKey))
	})
}

func TestEngineExecuteWithBroker(t *testing.T) {
	source := model.Static(orders.NewModel())

	t.Run("cascades raised commands and appends their events in raised order", func(t *testing.T) {
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey,
			engine.WithDelivery(engine.Broker{Source: source}),
		)
		require.NoError(t, err)

		events, err := eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))
		assert.NoError(t, err)

		want := []event.Event{
			orders.OrderCreated{OrderID: "order-1"},
			orders.StockReserved{OrderID: "order-1"},
		}

		assert.Equal(t, want, payloadsOf(events))
		assert.Equal(t, want, payloadsOf(store.Events(contextKey)))
	})

	t.Run("a cyclic command relationship trips the cascade depth guard", func(t *testing.T) {
		cyclic := model.New()
		cyclic.MustRegisterCommandHandler(pingCommand{}.Name(), command.HandlerFunc(
			func(_ context.Context, _ command.Envelope) ([]event.Envelope, error) {
				return []event.Envelope{event.New(pongedEvent{})}, nil
			},
		))
		cyclic.RegisterEventHandler(pongedEvent{}.Name(), model.EventHandlerFunc(
			func(_ context.Context, _ event.Envelope) ([]command.Envelope, error) {
				return []command.Envelope{command.New(pingCommand{})}, nil
			},
		))

		cyclicSource := model.Static(cyclic)
		store := inmemory.NewStore()

		eng, err := engine.New(cyclicSource, store, contextKey,
			engine.WithDelivery(engine.Broker{Source: cyclicSource}),
			engine.WithMaxCascadeDepth(3),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(pingCommand{}))

		var depthErr engine.CascadeDepthError
		require.ErrorAs(t, err, &depthErr)
		assert.Equal(t, 3, depthErr.MaxDepth)
		assert.Empty(t, store.Events(contextKey))
	})

	t.Run("a raised command with no registered handler surfaces as UnregisteredHandlerError", func(t *testing.T) {
		bc := model.New()
		bc.MustRegisterCommandHandler(orders.CreateOrder{}.Name(), orders.CreateOrderHandler{})
		bc.RegisterEventHandler(orders.OrderCreated{}.Name(), model.EventHandlerFunc(
			func(_ context.Context, _ event.Envelope) ([]command.Envelope, error) {
				return []command.Envelope{command.New(unknownCommand{})}, nil
			},
		))

		bcSource := model.Static(bc)
		store := inmemory.NewStore()

		eng, err := engine.New(bcSource, store, contextKey,
			engine.WithDelivery(engine.Broker{Source: bcSource}),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))

		var expected engine.UnregisteredHandlerError
		require.ErrorAs(t, err, &expected)
		assert.Equal(t, 2, expected.Depth)
		assert.Empty(t, store.Events(contextKey))
	})

	t.Run("a persistence failure discards the whole cascade", func(t *testing.T) {
		failing := appenderFunc(func(context.Context, eventstore.ContextKey, ...event.Envelope) error {
			return fmt.Errorf("disk on fire")
		})

		eng, err := engine.New(source, failing, contextKey,
			engine.WithDelivery(engine.Broker{Source: source}),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))

		var persistenceErr engine.PersistenceError
		require.ErrorAs(t, err, &persistenceErr)
		assert.Equal(t, contextKey, persistenceErr.Context)
	})

	t.Run("an event handler failure aborts the cascade before the commit point", func(t *testing.T) {
		bc := model.New()
		bc.MustRegisterCommandHandler(orders.CreateOrder{}.Name(), orders.CreateOrderHandler{})
		bc.RegisterEventHandler(orders.OrderCreated{}.Name(), failingEventHandler{})

		bcSource := model.Static(bc)
		store := inmemory.NewStore()

		eng, err := engine.New(bcSource, store, contextKey,
			engine.WithDelivery(engine.Broker{Source: bcSource}),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))

		var handlerErr engine.EventHandlerError
		require.ErrorAs(t, err, &handlerErr)
		assert.Empty(t, store.Events(contextKey))
	})
}

func TestEngineExecuteWithDispatcher(t *testing.T) {
	t.Run("a fail-fast handler failure is surfaced but persisted events remain", func(t *testing.T) {
		bc := model.New()
		bc.MustRegisterCommandHandler(orders.CreateOrder{}.Name(), orders.CreateOrderHandler{})
		bc.RegisterEventHandler(orders.OrderCreated{}.Name(), failingEventHandler{})

		bcSource := model.Static(bc)
		store := inmemory.NewStore()

		eng, err := engine.New(bcSource, store, contextKey,
			engine.WithDelivery(engine.Dispatcher{Source: bcSource, Policy: engine.FailFast}),
		)
		require.NoError(t, err)

		events, err := eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))

		var handlerErr engine.EventHandlerError
		require.ErrorAs(t, err, &handlerErr)
		assert.Equal(t, orders.OrderCreated{}.Name(), handlerErr.EventName)

		// Dispatch sits past the commit point: the events stay persisted.
		assert.Len(t, store.Events(contextKey), 1)
		assert.Equal(t, payloadsOf(events), payloadsOf(store.Events(contextKey)))
	})

	t.Run("commands raised by dispatcher-invoked handlers are never re-executed", func(t *testing.T) {
		source := model.Static(orders.NewModel())
		store := inmemory.NewStore()

		eng, err := engine.New(source, store, contextKey,
			engine.WithDelivery(engine.Dispatcher{Source: source}),
		)
		require.NoError(t, err)

		events, err := eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))
		assert.NoError(t, err)

		// StockPolicy raised ReserveStock, but one-way delivery discards it.
		assert.Equal(t, []event.Event{orders.OrderCreated{OrderID: "order-1"}}, payloadsOf(events))
		assert.Len(t, store.Events(contextKey), 1)
	})
}

func TestEngineQueueEgress(t *testing.T) {
	source := model.Static(orders.NewModel())

	t.Run("writes committed events to the queue writer", func(t *testing.T) {
		var written []event.Envelope
		writer := queue.WriterFunc(func(_ context.Context, evt event.Envelope) error {
			written = append(written, evt)
			return nil
		})

		eng, err := engine.New(source, inmemory.NewStore(), contextKey,
			engine.WithQueueWriter(writer),
		)
		require.NoError(t, err)

		events, err := eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))
		assert.NoError(t, err)
		assert.Equal(t, events, written)
	})

	t.Run("a queue write failure is logged, never surfaced", func(t *testing.T) {
		log := logger.NewRecording()
		writer := queue.WriterFunc(func(context.Context, event.Envelope) error {
			return fmt.Errorf("queue unavailable")
		})

		eng, err := engine.New(source, inmemory.NewStore(), contextKey,
			engine.WithQueueWriter(writer),
			engine.WithLogger(log),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"}))
		assert.NoError(t, err)

		entries := log.Entries()
		require.NotEmpty(t, entries)
		assert.Equal(t, "error", entries[len(entries)-1].Level)
	})

	t.Run("nothing is written when the cascade fails", func(t *testing.T) {
		var written []event.Envelope
		writer := queue.WriterFunc(func(_ context.Context, evt event.Envelope) error {
			written = append(written, evt)
			return nil
		})

		eng, err := engine.New(source, inmemory.NewStore(), contextKey,
			engine.WithQueueWriter(writer),
		)
		require.NoError(t, err)

		_, err = eng.Execute(context.Background(), command.New(unknownCommand{}))
		assert.Error(t, err)
		assert.Empty(t, written)
	})
}

func TestEngineOptions(t *testing.T) {
	source := model.Static(orders.NewModel())
	store := inmemory.NewStore()

	t.Run("requires a model source and an event store", func(t *testing.T) {
		_, err := engine.New(nil, store, contextKey)
		assert.Error(t, err)

		_, err = engine.New(source, nil, contextKey)
		assert.Error(t, err)
	})

	t.Run("rejects a non-positive cascade depth", func(t *testing.T) {
		_, err := engine.New(source, store, contextKey, engine.WithMaxCascadeDepth(0))
		assert.Error(t, err)
	})

	t.Run("at most one delivery strategy can be configured", func(t *testing.T) {
		_, err := engine.New(source, store, contextKey,
			engine.WithDelivery(engine.Dispatcher{Source: source}),
			engine.WithDelivery(engine.Broker{Source: source}),
		)
		assert.Error(t, err)
	})
}

func TestEngineDispatch(t *testing.T) {
	source := model.Static(orders.NewModel())
	store := inmemory.NewStore()

	eng, err := engine.New(source, store, contextKey)
	require.NoError(t, err)

	assert.NoError(t, eng.Dispatch(context.Background(), command.New(orders.CreateOrder{OrderID: "order-1"})))
	assert.Error(t, eng.Dispatch(context.Background(), command.New(unknownCommand{})))
}

type unknownCommand struct{}

func (unknownCommand) Name() string { return "UnknownCommand" }

type pingCommand struct{}

func (pingCommand) Name() string { return "Ping" }

type pongedEvent struct{}

func (pongedEvent) Name() string { return "Ponged" }

type failingEventHandler struct{}

func (failingEventHandler) Handle(context.Context, event.Envelope) ([]command.Envelope, error) {
	return nil, fmt.Errorf("handler exploded")
}
