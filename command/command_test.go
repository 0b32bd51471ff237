package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/message"
)

type openTab struct {
	Table int
}

func (openTab) Name() string { return "OpenTab" }

type tabOpened struct {
	Table int
}

func (tabOpened) Name() string { return "TabOpened" }

type anotherCommand struct{}

func (anotherCommand) Name() string { return "AnotherCommand" }

type openTabHandler struct{}

func (openTabHandler) Handle(_ context.Context, cmd message.Envelope[openTab]) ([]event.Envelope, error) {
	return []event.Envelope{
		event.New(tabOpened{Table: cmd.Message.Table}),
	}, nil
}

func TestAsHandler(t *testing.T) {
	handler := command.AsHandler[openTab](openTabHandler{})

	t.Run("routes a matching payload to the typed handler", func(t *testing.T) {
		events, err := handler.Handle(context.Background(), command.New(openTab{Table: 4}))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, tabOpened{Table: 4}, events[0].Message)
	})

	t.Run("fails on an unexpected payload type", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), command.New(anotherCommand{}))
		assert.Error(t, err)
	})
}

func TestHandlerFunc(t *testing.T) {
	invoked := false

	fn := command.HandlerFunc(func(context.Context, command.Envelope) ([]event.Envelope, error) {
		invoked = true
		return nil, nil
	})

	_, err := fn.Handle(context.Background(), command.New(openTab{}))
	assert.NoError(t, err)
	assert.True(t, invoked)
}
