package order

import (
	"context"

	"github.com/shopspring/decimal"

	"ordernow/internal/models"
)

// Tx is the set of storage operations available inside one atomic
// placement or transition transaction. Lock methods take exclusive row
// locks that are held until the transaction commits or rolls back.
type Tx interface {
	LockUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUserBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	LockMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	DecrementMenuQuantity(ctx context.Context, id int64, by int) error

	CreateOrder(ctx context.Context, order *models.Order) error
	FinalizeOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error

	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// Store provides order storage. InTx runs fn atomically: every mutation
// made through the Tx is rolled back unless fn returns nil.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID int64) ([]models.Order, error)

	Ping(ctx context.Context) error
}

// EventPublisher publishes events for committed order mutations
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishStatusChange(ctx context.Context, event *models.OrderStatusChangedEvent) error
}
