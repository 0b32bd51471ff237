// Package scenario contains Given/When/Then-style scenario builders to
// test Domain Command Handlers, Event Handlers and full Engine executions
// in a BDD fashion.
package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
)

// CommandHandlerInit is the entrypoint of the Command Handler scenario API.
type CommandHandlerInit struct{}

// CommandHandler is a scenario type to test the Domain Events produced by
// a Command Handler when evaluating a specific Command.
func CommandHandler() CommandHandlerInit {
	return CommandHandlerInit{}
}

// When provides the Command to evaluate.
func (CommandHandlerInit) When(cmd command.Envelope) CommandHandlerWhen {
	return CommandHandlerWhen{when: cmd}
}

// CommandHandlerWhen is the state of the scenario once the Command to
// evaluate has been provided.
type CommandHandlerWhen struct {
	when command.Envelope
}

// Then sets a positive expectation on the scenario outcome, which should
// be the list of Domain Event payloads produced by the Command Handler,
// in recording order.
func (sc CommandHandlerWhen) Then(events ...event.Event) CommandHandlerThen {
	return CommandHandlerThen{
		CommandHandlerWhen: sc,
		then:               events,
	}
}

// ThenError sets a negative expectation on the scenario outcome,
// to produce an error value that is similar to the one provided in input.
//
// Error assertion happens using errors.Is(), so the error returned by the
// Command Handler is unwrapped until the cause error to match the provided
// expectation.
func (sc CommandHandlerWhen) ThenError(err error) CommandHandlerThen {
	return CommandHandlerThen{
		CommandHandlerWhen: sc,
		thenError:          err,
		wantError:          true,
	}
}

// ThenFails sets a negative expectation on the scenario outcome, to fail
// the Command evaluation with no particular assertion on the error returned.
func (sc CommandHandlerWhen) ThenFails() CommandHandlerThen {
	return CommandHandlerThen{
		CommandHandlerWhen: sc,
		wantError:          true,
	}
}

// CommandHandlerThen is the state of the scenario once the expectations
// have been fully specified.
type CommandHandlerThen struct {
	CommandHandlerWhen

	then      []event.Event
	thenError error
	wantError bool
}

// Using performs the specified expectations of the scenario against the
// provided Command Handler instance.
func (sc CommandHandlerThen) Using(t *testing.T, handler command.Handler) {
	t.Helper()

	events, err := handler.Handle(context.Background(), sc.when)

	if sc.wantError {
		if !assert.Error(t, err) {
			return
		}

		if sc.thenError != nil {
			assert.ErrorIs(t, err, sc.thenError)
		}

		return
	}

	assert.NoError(t, err)
	assert.Equal(t, sc.then, payloadsOf(events))
}

func payloadsOf(events []event.Envelope) []event.Event {
	if len(events) == 0 {
		return nil
	}

	payloads := make([]event.Event, 0, len(events))
	for _, evt := range events {
		payloads = append(payloads, evt.Message)
	}

	return payloads
}
