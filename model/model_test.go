package model_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/model"
)

func nopCommandHandler() command.Handler {
	return command.HandlerFunc(func(context.Context, command.Envelope) ([]event.Envelope, error) {
		return nil, nil
	})
}

func nopEventHandler() model.EventHandler {
	return model.EventHandlerFunc(func(context.Context, event.Envelope) ([]command.Envelope, error) {
		return nil, nil
	})
}

func TestBoundedContext(t *testing.T) {
	t.Run("command handler lookup", func(t *testing.T) {
		bc := model.New()
		require.NoError(t, bc.RegisterCommandHandler("CreateOrder", nopCommandHandler()))

		_, ok := bc.CommandHandlerFor("CreateOrder")
		assert.True(t, ok)

		_, ok = bc.CommandHandlerFor("UnknownCommand")
		assert.False(t, ok)
	})

	t.Run("commands map to exactly one handler", func(t *testing.T) {
		bc := model.New()
		require.NoError(t, bc.RegisterCommandHandler("CreateOrder", nopCommandHandler()))

		err := bc.RegisterCommandHandler("CreateOrder", nopCommandHandler())
		assert.ErrorIs(t, err, model.ErrHandlerAlreadyRegistered)
	})

	t.Run("MustRegisterCommandHandler panics on double registration", func(t *testing.T) {
		bc := model.New().MustRegisterCommandHandler("CreateOrder", nopCommandHandler())

		assert.Panics(t, func() {
			bc.MustRegisterCommandHandler("CreateOrder", nopCommandHandler())
		})
	})

	t.Run("event handlers are returned in registration order", func(t *testing.T) {
		first := nopEventHandler()
		second := nopEventHandler()

		bc := model.New().
			RegisterEventHandler("OrderCreated", first).
			RegisterEventHandler("OrderCreated", second)

		handlers := bc.EventHandlersFor("OrderCreated")
		require.Len(t, handlers, 2)

		assert.Empty(t, bc.EventHandlersFor("UnknownEvent"))
	})
}

func TestSource(t *testing.T) {
	t.Run("Static always yields the same instance", func(t *testing.T) {
		bc := model.New()
		source := model.Static(bc)

		assert.Same(t, bc, source.Model())
		assert.Same(t, bc, source.Model())
	})

	t.Run("Factory rebuilds the model on every use", func(t *testing.T) {
		builds := 0
		source := model.Factory(func() *model.BoundedContext {
			builds++
			return model.New()
		})

		source.Model()
		source.Model()
		assert.Equal(t, 2, builds)
	})

	t.Run("Cached builds the model exactly once", func(t *testing.T) {
		builds := 0
		source := model.Cached(func() *model.BoundedContext {
			builds++
			return model.New()
		})

		first := source.Model()
		second := source.Model()
		assert.Equal(t, 1, builds)
		assert.Same(t, first, second)
	})
}
