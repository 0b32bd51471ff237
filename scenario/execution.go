package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/engine"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
	"github.com/domainkit/go-domainkit/eventstore/inmemory"
)

// ExecutionInit is the entrypoint of the Engine execution scenario API.
type ExecutionInit struct{}

// Execution is a scenario type to test a full Engine pipeline run: the
// Domain Events produced and persisted by executing a Command, cascade
// included.
func Execution() ExecutionInit {
	return ExecutionInit{}
}

// When provides the Command to execute.
func (ExecutionInit) When(cmd command.Envelope) ExecutionWhen {
	return ExecutionWhen{when: cmd}
}

// ExecutionWhen is the state of the scenario once the Command to execute
// has been provided.
type ExecutionWhen struct {
	when command.Envelope
}

// Then sets a positive expectation on the scenario outcome, which should
// be the list of Domain Event payloads produced by the whole cascade and
// persisted to the Event Store, in staging order.
func (sc ExecutionWhen) Then(events ...event.Event) ExecutionThen {
	return ExecutionThen{
		ExecutionWhen: sc,
		then:          events,
	}
}

// ThenError sets a negative expectation on the scenario outcome,
// to produce an error value that is similar to the one provided in input.
//
// Error assertion happens using errors.As() against a zero value of the
// expected engine error type, or errors.Is() for sentinel errors.
func (sc ExecutionWhen) ThenError(err error) ExecutionThen {
	return ExecutionThen{
		ExecutionWhen: sc,
		thenError:     err,
		wantError:     true,
	}
}

// ThenFails sets a negative expectation on the scenario outcome, to fail
// the execution with no particular assertion on the error returned.
func (sc ExecutionWhen) ThenFails() ExecutionThen {
	return ExecutionThen{
		ExecutionWhen: sc,
		wantError:     true,
	}
}

// ExecutionThen is the state of the scenario once the expectations have
// been fully specified.
type ExecutionThen struct {
	ExecutionWhen

	then      []event.Event
	thenError error
	wantError bool
}

// EngineFactory is the factory function used by the Execution scenario to
// build the Engine to test on top of the provided Event Store.
type EngineFactory func(store eventstore.Store, contextKey eventstore.ContextKey) (*engine.Engine, error)

// ContextKey is the Bounded Context key the Execution scenario runs under.
const ContextKey = eventstore.ContextKey("scenario")

// Using performs the specified expectations of the scenario, using the
// Engine instance produced by the provided factory function on top of an
// in-memory Event Store.
func (sc ExecutionThen) Using(t *testing.T, factory EngineFactory) {
	t.Helper()

	store := inmemory.NewStore()

	eng, err := factory(store, ContextKey)
	require.NoError(t, err)

	result, err := eng.Execute(context.Background(), sc.when)

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
	assert.Equal(t, sc.then, payloadsOf(result))
	assert.Equal(t, sc.then, payloadsOf(store.Events(ContextKey)))
}
