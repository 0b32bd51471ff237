package serde

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/message"
)

// envelopeJSON is the wire shape of an event.Envelope.
type envelopeJSON struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Payload  jsonRawMessage    `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type jsonRawMessage []byte

func (m jsonRawMessage) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	return m, nil
}

func (m *jsonRawMessage) UnmarshalJSON(data []byte) error {
	*m = append((*m)[0:0], data...)

	return nil
}

// EventRegistry maps Domain Event names to payload factories, so that
// event Envelopes can be deserialized from the wire without knowing the
// concrete payload type upfront.
//
// Like a Bounded Context Model, a registry is built once at startup and
// is read-only afterwards.
type EventRegistry struct {
	factories map[string]func() event.Event
}

// NewEventRegistry creates an empty EventRegistry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{
		factories: make(map[string]func() event.Event),
	}
}

// Register binds a payload factory to the Event name it produces.
// The factory must return a pointer to a zero-valued payload, so the
// deserializer can unmarshal into it. The last registration for a name wins.
func (r *EventRegistry) Register(eventName string, factory func() event.Event) *EventRegistry {
	r.factories[eventName] = factory

	return r
}

// Serialize maps an event.Envelope to its JSON wire shape.
func (r *EventRegistry) Serialize(src event.Envelope) ([]byte, error) {
	payload, err := json.Marshal(src.Message)
	if err != nil {
		return nil, fmt.Errorf("serde.EventRegistry: failed to serialize event payload, %w", err)
	}

	data, err := json.Marshal(envelopeJSON{
		ID:       src.ID,
		Name:     src.Message.Name(),
		Payload:  payload,
		Metadata: src.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("serde.EventRegistry: failed to serialize event envelope, %w", err)
	}

	return data, nil
}

// Deserialize maps JSON wire data back to an event.Envelope, using the
// registered payload factory for the Event name found in the data.
func (r *EventRegistry) Deserialize(data []byte) (event.Envelope, error) {
	var wire envelopeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return event.Envelope{}, fmt.Errorf("serde.EventRegistry: failed to deserialize event envelope, %w", err)
	}

	factory, ok := r.factories[wire.Name]
	if !ok {
		return event.Envelope{}, fmt.Errorf("serde.EventRegistry: no payload factory registered for event %q", wire.Name)
	}

	payload := factory()
	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return event.Envelope{}, fmt.Errorf("serde.EventRegistry: failed to deserialize event payload, %w", err)
	}

	return event.Envelope{
		ID:       wire.ID,
		Message:  payload,
		Metadata: message.Metadata(wire.Metadata),
	}, nil
}

// Interface implementation assertion.
var _ Serde[event.Envelope, []byte] = new(EventRegistry)
