package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/model"
)

// EventHandlerInit is the entrypoint of the Event Handler scenario API.
type EventHandlerInit struct{}

// EventHandler is a scenario type to test the Domain Commands raised by an
// Event Handler when processing a certain Domain Event.
//
// Event Handlers react to incoming Domain Events and optionally produce
// "compensating actions" in the form of Domain Commands, in order to
// implement certain business processes (the "Process Manager" pattern).
func EventHandler() EventHandlerInit {
	return EventHandlerInit{}
}

// Given sets the Event Handler state before the assertion.
//
// The specified Domain Events will be processed by the Event Handler before
// the Domain Event to test, specified later with When(). Depending on the
// implementation, processing these Events could either have no meaningful
// value, or update some internal state maintained by the Event Handler.
func (EventHandlerInit) Given(events ...event.Envelope) EventHandlerGiven {
	return EventHandlerGiven{given: events}
}

// When provides the Domain Event the Event Handler should process.
func (sc EventHandlerInit) When(evt event.Envelope) EventHandlerWhen {
	return EventHandlerGiven{}.When(evt)
}

// EventHandlerGiven is the state of the scenario once the Event Handler
// preconditions have been provided.
type EventHandlerGiven struct {
	given []event.Envelope
}

// When provides the Domain Event the Event Handler should process.
func (sc EventHandlerGiven) When(evt event.Envelope) EventHandlerWhen {
	return EventHandlerWhen{
		EventHandlerGiven: sc,
		when:              evt,
	}
}

// EventHandlerWhen is the state of the scenario once the preconditions and
// the Domain Event to process have been set.
type EventHandlerWhen struct {
	EventHandlerGiven

	when event.Envelope
}

// Then sets a positive expectation on the scenario outcome, which should
// be the list of Domain Command payloads raised as a result of the Domain
// Event processed.
func (sc EventHandlerWhen) Then(commands ...command.Command) EventHandlerThen {
	return EventHandlerThen{
		EventHandlerWhen: sc,
		then:             commands,
	}
}

// ThenError sets a negative expectation on the scenario outcome,
// to produce an error value that is similar to the one provided in input.
func (sc EventHandlerWhen) ThenError(err error) EventHandlerThen {
	return EventHandlerThen{
		EventHandlerWhen: sc,
		thenError:        err,
		wantError:        true,
	}
}

// ThenFails sets a negative expectation on the scenario outcome, to fail
// the processing with no particular assertion on the error returned.
func (sc EventHandlerWhen) ThenFails() EventHandlerThen {
	return EventHandlerThen{
		EventHandlerWhen: sc,
		wantError:        true,
	}
}

// EventHandlerThen is the state of the scenario once the preconditions and
// expectations have been fully specified.
type EventHandlerThen struct {
	EventHandlerWhen

	then      []command.Command
	thenError error
	wantError bool
}

// Using performs the specified expectations of the scenario against the
// provided Event Handler instance.
func (sc EventHandlerThen) Using(t *testing.T, handler model.EventHandler) {
	t.Helper()

	ctx := context.Background()

	for _, evt := range sc.given {
		if _, err := handler.Handle(ctx, evt); !assert.NoError(t, err) {
			return
		}
	}

	commands, err := handler.Handle(ctx, sc.when)

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

	var raised []command.Command
	for _, cmd := range commands {
		raised = append(raised, cmd.Message)
	}

	assert.Equal(t, sc.then, raised)
}
