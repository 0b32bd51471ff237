// Package orders contains a small order-management Bounded Context,
// used in tests and examples.
package orders

import (
	"context"
	"fmt"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
	"github.com/domainkit/go-domainkit/model"
)

// CreateOrder is the Command to open a new order.
type CreateOrder struct {
	OrderID string `json:"order_id"`
}

func (CreateOrder) Name() string { return "CreateOrder" }

// ReserveStock is the Command to reserve the stock needed by an order.
type ReserveStock struct {
	OrderID string `json:"order_id"`
}

func (ReserveStock) Name() string { return "ReserveStock" }

// OrderCreated is the Event recording that a new order has been opened.
type OrderCreated struct {
	OrderID string `json:"order_id"`
}

func (OrderCreated) Name() string { return "OrderCreated" }

// StockReserved is the Event recording that the stock needed by an order
// has been reserved.
type StockReserved struct {
	OrderID string `json:"order_id"`
}

func (StockReserved) Name() string { return "StockReserved" }

// ErrEmptyOrderID is returned when a Command carries no order identity.
var ErrEmptyOrderID = fmt.Errorf("orders: order id must not be empty")

// CreateOrderHandler handles CreateOrder Commands.
type CreateOrderHandler struct{}

// Handle implements the command.Handler interface.
func (CreateOrderHandler) Handle(_ context.Context, cmd command.Envelope) ([]event.Envelope, error) {
	payload, ok := cmd.Message.(CreateOrder)
	if !ok {
		return nil, fmt.Errorf("orders.CreateOrderHandler: unexpected command type %T", cmd.Message)
	}

	if payload.OrderID == "" {
		return nil, ErrEmptyOrderID
	}

	return []event.Envelope{
		event.New(OrderCreated{OrderID: payload.OrderID}),
	}, nil
}

// ReserveStockHandler handles ReserveStock Commands.
type ReserveStockHandler struct{}

// Handle implements the command.Handler interface.
func (ReserveStockHandler) Handle(_ context.Context, cmd command.Envelope) ([]event.Envelope, error) {
	payload, ok := cmd.Message.(ReserveStock)
	if !ok {
		return nil, fmt.Errorf("orders.ReserveStockHandler: unexpected command type %T", cmd.Message)
	}

	return []event.Envelope{
		event.New(StockReserved{OrderID: payload.OrderID}),
	}, nil
}

// StockPolicy reacts to OrderCreated Events by raising the ReserveStock
// Command for the order.
type StockPolicy struct{}

// Handle implements the model.EventHandler interface.
func (StockPolicy) Handle(_ context.Context, evt event.Envelope) ([]command.Envelope, error) {
	created, ok := evt.Message.(OrderCreated)
	if !ok {
		return nil, nil
	}

	return []command.Envelope{
		command.New(ReserveStock{OrderID: created.OrderID}),
	}, nil
}

// NewModel builds the Bounded Context Model of the orders context,
// with the stock reservation policy wired in.
func NewModel() *model.BoundedContext {
	bc := model.New().
		MustRegisterCommandHandler(CreateOrder{}.Name(), CreateOrderHandler{}).
		MustRegisterCommandHandler(ReserveStock{}.Name(), ReserveStockHandler{})

	bc.RegisterEventHandler(OrderCreated{}.Name(), StockPolicy{})

	return bc
}
