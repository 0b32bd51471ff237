// Package message exposes the generic Message type, used to represent
// a routable message inside a Bounded Context (e.g. Command, Event).
package message

import "github.com/google/uuid"

// Message is a Message payload.
//
// Each payload should have a unique name identifier, that can be used
// to uniquely route a message to its registered handlers.
type Message interface {
	Name() string
}

// Metadata contains some data related to a Message that are not functional
// for the Message itself, but instead functioning as supporting information
// to provide additional context.
type Metadata map[string]string

// With returns a new Metadata reference holding the value addressed using
// the specified key.
func (m Metadata) With(key, value string) Metadata {
	if m == nil {
		m = make(Metadata)
	}

	m[key] = value

	return m
}

// Merge merges the other Metadata provided in input with the current map.
// Returns a pointer to the extended metadata map.
func (m Metadata) Merge(other Metadata) Metadata {
	if m == nil {
		return other
	}

	for k, v := range other {
		m[k] = v
	}

	return m
}

// GenericEnvelope is an Envelope type that can be used when the concrete
// Message type in the Envelope is not of interest.
type GenericEnvelope Envelope[Message]

// Envelope bundles a Message to be exchanged with its unique identity
// and optional Metadata support.
//
// The ID is the stable identity of this specific Message occurrence,
// and is what Event Store deduplication keys on: two Envelopes carrying
// an equal payload but different IDs are two distinct occurrences.
type Envelope[T Message] struct {
	ID       uuid.UUID
	Message  T
	Metadata Metadata
}

// ToGenericEnvelope maps the Envelope instance into a GenericEnvelope one.
func (e Envelope[T]) ToGenericEnvelope() GenericEnvelope {
	return GenericEnvelope{
		ID:       e.ID,
		Message:  e.Message,
		Metadata: e.Metadata,
	}
}

// New wraps the provided Message payload in a new Envelope,
// minting a fresh unique identity for it.
func New[T Message](msg T) Envelope[T] {
	return Envelope[T]{
		ID:      uuid.New(),
		Message: msg,
	}
}
