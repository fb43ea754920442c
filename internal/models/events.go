package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published to the orders topic exchange after a
// placement commits
type OrderCreatedEvent struct {
	EventID      string          `json:"event_id"`
	OccurredAt   time.Time       `json:"occurred_at"`
	OrderID      int64           `json:"order_id"`
	CustomerID   int64           `json:"customer_id"`
	RestaurantID int64           `json:"restaurant_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       OrderStatus     `json:"status"`
}

// OrderStatusChangedEvent is published to the notifications fanout
// exchange after a status transition commits
type OrderStatusChangedEvent struct {
	EventID    string      `json:"event_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	OrderID    int64       `json:"order_id"`
	CustomerID int64       `json:"customer_id"`
	OldStatus  OrderStatus `json:"old_status"`
	NewStatus  OrderStatus `json:"new_status"`
	ChangedBy  int64       `json:"changed_by"`
}

// NewOrderCreatedEvent builds the event for a freshly placed order
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		EventID:      uuid.NewString(),
		OccurredAt:   time.Now().UTC(),
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		TotalAmount:  order.TotalAmount,
		Status:       order.Status,
	}
}

// NewOrderStatusChangedEvent builds the event for a committed transition
func NewOrderStatusChangedEvent(order *Order, oldStatus OrderStatus, changedBy int64) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		OldStatus:  oldStatus,
		NewStatus:  order.Status,
		ChangedBy:  changedBy,
	}
}

// OrderCreatedRoutingKey generates the routing key for order.created events
func OrderCreatedRoutingKey(restaurantID int64) string {
	return fmt.Sprintf("order.created.%d", restaurantID)
}
