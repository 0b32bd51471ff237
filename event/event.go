// Package event contains the types and abstractions to work
// with Domain Events.
package event

import (
	"github.com/google/uuid"

	"github.com/domainkit/go-domainkit/message"
)

// Event is a Message representing some Domain information that has happened
// in the past, which is of vital information to the Domain itself.
//
// Event type names should be phrased in the past tense, to enforce the notion
// of "information happened in the past".
type Event message.Message

// Envelope carries a Domain Event with its unique identity and Metadata.
type Envelope message.Envelope[Event]

// ToGenericEnvelope maps the Envelope instance into a message.GenericEnvelope one.
func (e Envelope) ToGenericEnvelope() message.GenericEnvelope {
	return message.GenericEnvelope{
		ID:       e.ID,
		Message:  e.Message,
		Metadata: e.Metadata,
	}
}

// New wraps the provided Domain Event in a new Envelope with a fresh identity.
func New(evt Event) Envelope {
	return Envelope{
		ID:      uuid.New(),
		Message: evt,
	}
}

// Metadata keys used to track the provenance of a Domain Event through
// a command cascade.
const (
	// CausationIDKey addresses the identity of the Command Envelope whose
	// handling produced this Event.
	CausationIDKey = "Causation-ID"

	// CorrelationIDKey addresses the identity of the root Command Envelope
	// that started the whole cascade this Event belongs to.
	CorrelationIDKey = "Correlation-ID"
)

// WithProvenance stamps causation and correlation identities in the
// Envelope Metadata, returning the updated Envelope.
func WithProvenance(e Envelope, causationID, correlationID uuid.UUID) Envelope {
	e.Metadata = e.Metadata.
		With(CausationIDKey, causationID.String()).
		With(CorrelationIDKey, correlationID.String())

	return e
}

// CausationID returns the identity of the Command that produced this Event,
// if stamped in the Envelope Metadata.
func (e Envelope) CausationID() (uuid.UUID, bool) {
	return metadataUUID(e.Metadata, CausationIDKey)
}

// CorrelationID returns the identity of the root Command of the cascade
// this Event belongs to, if stamped in the Envelope Metadata.
func (e Envelope) CorrelationID() (uuid.UUID, bool) {
	return metadataUUID(e.Metadata, CorrelationIDKey)
}

func metadataUUID(m message.Metadata, key string) (uuid.UUID, bool) {
	v, ok := m[key]
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
