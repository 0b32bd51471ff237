package event_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/internal/orders"
)

func TestWithProvenance(t *testing.T) {
	causationID := uuid.New()
	correlationID := uuid.New()

	evt := event.WithProvenance(
		event.New(orders.OrderCreated{OrderID: "order-1"}),
		causationID,
		correlationID,
	)

	actualCausation, ok := evt.CausationID()
	assert.True(t, ok)
	assert.Equal(t, causationID, actualCausation)

	actualCorrelation, ok := evt.CorrelationID()
	assert.True(t, ok)
	assert.Equal(t, correlationID, actualCorrelation)
}

func TestProvenanceUnstamped(t *testing.T) {
	evt := event.New(orders.OrderCreated{OrderID: "order-1"})

	_, ok := evt.CausationID()
	assert.False(t, ok)

	_, ok = evt.CorrelationID()
	assert.False(t, ok)
}

func TestProvenanceMalformed(t *testing.T) {
	evt := event.New(orders.OrderCreated{OrderID: "order-1"})
	evt.Metadata = evt.Metadata.With(event.CorrelationIDKey, "not-a-uuid")

	_, ok := evt.CorrelationID()
	assert.False(t, ok)
}
