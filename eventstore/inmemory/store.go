// Package inmemory provides a thread-safe, in-memory eventstore.Store
// implementation, useful for testing and lightweight deployments.
package inmemory

import (
	"context"
	"sync"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
)

// Interface implementation assertion.
var _ eventstore.Store = new(Store)

// Store is a thread-safe, in-memory eventstore.Store implementation.
type Store struct {
	mx       sync.RWMutex
	events   map[eventstore.ContextKey][]event.Envelope
	recorded map[eventstore.IdempotencyKey]struct{}
	handled  map[eventstore.IdempotencyKey]struct{}
}

// NewStore creates a new inmemory.Store instance.
func NewStore() *Store {
	return &Store{
		events:   make(map[eventstore.ContextKey][]event.Envelope),
		recorded: make(map[eventstore.IdempotencyKey]struct{}),
		handled:  make(map[eventstore.IdempotencyKey]struct{}),
	}
}

// Append stores the provided Domain Events under the specified Context,
// preserving append order.
//
// Events whose identity has already been recorded for the Context are
// silently skipped, making redundant appends of the same occurrence safe.
// The batch is atomic: it is applied under one critical section and
// cannot be partially observed.
func (s *Store) Append(_ context.Context, key eventstore.ContextKey, events ...event.Envelope) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	for _, evt := range events {
		idempotencyKey := eventstore.IdempotencyKey{MessageID: evt.ID, Context: key}
		if _, ok := s.recorded[idempotencyKey]; ok {
			continue
		}

		s.recorded[idempotencyKey] = struct{}{}
		s.events[key] = append(s.events[key], evt)
	}

	return nil
}

// HasRecord reports whether the Message occurrence addressed by the key
// has been appended to, or marked as handled in, this Store.
func (s *Store) HasRecord(_ context.Context, key eventstore.IdempotencyKey) (bool, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if _, ok := s.handled[key]; ok {
		return true, nil
	}

	_, ok := s.recorded[key]

	return ok, nil
}

// MarkHandled records that the Message occurrence addressed by the key
// has been fully handled.
func (s *Store) MarkHandled(_ context.Context, key eventstore.IdempotencyKey) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.handled[key] = struct{}{}

	return nil
}

// Events returns the Domain Events appended under the specified Context,
// in append order.
func (s *Store) Events(key eventstore.ContextKey) []event.Envelope {
	s.mx.RLock()
	defer s.mx.RUnlock()

	events := make([]event.Envelope, len(s.events[key]))
	copy(events, s.events[key])

	return events
}
