package inmemory

import (
	"context"
	"sync"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/eventstore"
)

// TrackingStore is an Event Store wrapper to track the Domain Events
// appended to the inner Event Store.
//
// Useful for tests assertion.
type TrackingStore struct {
	eventstore.Appender

	mx       sync.RWMutex
	recorded []event.Envelope
}

// NewTrackingStore wraps an Event Store to capture the Domain Events
// that get appended to it.
func NewTrackingStore(appender eventstore.Appender) *TrackingStore {
	return &TrackingStore{Appender: appender}
}

// Recorded returns the list of Domain Events that have been appended
// to the inner Event Store, in append order.
func (ts *TrackingStore) Recorded() []event.Envelope {
	ts.mx.RLock()
	defer ts.mx.RUnlock()

	return ts.recorded
}

// Flush returns the recorded Domain Events and resets the internal list.
func (ts *TrackingStore) Flush() []event.Envelope {
	ts.mx.Lock()
	defer ts.mx.Unlock()

	recorded := ts.recorded
	ts.recorded = nil

	return recorded
}

// Append forwards the call to the inner Event Store and, if the operation
// concludes successfully, records the appended events internally.
func (ts *TrackingStore) Append(ctx context.Context, key eventstore.ContextKey, events ...event.Envelope) error {
	ts.mx.Lock()
	defer ts.mx.Unlock()

	if err := ts.Appender.Append(ctx, key, events...); err != nil {
		return err
	}

	ts.recorded = append(ts.recorded, events...)

	return nil
}
