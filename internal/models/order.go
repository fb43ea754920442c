package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	StatusInProgress OrderStatus = "In Progress"
	StatusDispatched OrderStatus = "Dispatched"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus validates a client-supplied status value
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusInProgress, StatusDispatched, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", apperrors.NewValidation("status", fmt.Sprintf("Invalid status: %s", s))
	}
}

// IsTerminal reports whether no further status change is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem binds a menu item snapshot to a quantity. Price is captured
// at placement time and never reflects later menu price changes.
type OrderItem struct {
	ID       int64           `json:"id" db:"id"`
	OrderID  int64           `json:"-" db:"order_id"`
	ItemID   int64           `json:"-" db:"item_id"`
	Item     string          `json:"item" db:"item"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int             `json:"quantity" db:"quantity"`
}

// Order represents a customer order with its line items
type Order struct {
	ID            int64           `json:"id" db:"id"`
	Status        OrderStatus     `json:"status" db:"status"`
	RestaurantID  int64           `json:"restaurant" db:"restaurant_id"`
	CustomerID    int64           `json:"customer" db:"customer_id"`
	OrderDatetime time.Time       `json:"order_datetime" db:"order_datetime"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Address       string          `json:"address" db:"address"`
	Contact       string          `json:"contact" db:"contact"`
	Items         []OrderItem     `json:"items"`
}

// OrderItemRequest is one cart line in a place-order request
type OrderItemRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// PlaceOrderRequest represents the request to place a new order
type PlaceOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// Validate checks the request shape before any row is locked
func (req *PlaceOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return apperrors.NewValidation("items", "At least one item is required.")
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return apperrors.NewValidation("items", fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}
	return nil
}

// UpdateOrderRequest represents the request to change an order's status
type UpdateOrderRequest struct {
	Status string `json:"status"`
}
