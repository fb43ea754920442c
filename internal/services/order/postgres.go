package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
	"ordernow/internal/database"
	"ordernow/internal/models"
)

// Repository is the PostgreSQL implementation of Store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new order repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// InTx runs fn inside a single database transaction
func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgxTx{tx: tx})
	})
}

// GetUser returns an active user by id
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, database.GetUserByIDSQL, id))
}

// GetOrder returns an order header by id
func (r *Repository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, database.GetOrderSQL, id))
}

// GetRestaurant returns a restaurant by id
func (r *Repository) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	return scanRestaurant(r.db.QueryRow(ctx, database.GetRestaurantSQL, id))
}

// GetOrderItems returns the line items of an order in insertion order
func (r *Repository) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

// ListOrdersByCustomer returns all orders placed by a customer
func (r *Repository) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListOrdersByRestaurant returns all orders received by a restaurant
func (r *Repository) ListOrdersByRestaurant(ctx context.Context, restaurantID int64) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersByRestaurantSQL, restaurantID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// Ping tests the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// pgxTx adapts a pgx transaction to the Tx interface
type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) LockUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, database.LockUserSQL, id))
}

func (t *pgxTx) UpdateUserBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, database.UpdateUserBalanceSQL, balance, id)
	return err
}

func (t *pgxTx) LockMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	err := t.tx.QueryRow(ctx, database.LockMenuItemSQL, id).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Quantity,
		&item.RestaurantID,
		&item.RestaurantActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (t *pgxTx) DecrementMenuQuantity(ctx context.Context, id int64, by int) error {
	ct, err := t.tx.Exec(ctx, database.DecrementMenuQuantitySQL, by, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("menu item %d not updated", id)
	}
	return nil
}

func (t *pgxTx) CreateOrder(ctx context.Context, order *models.Order) error {
	return t.tx.QueryRow(ctx, database.InsertOrderSQL,
		order.Status,
		order.RestaurantID,
		order.CustomerID,
		order.TotalAmount,
		order.Address,
		order.Contact,
	).Scan(&order.ID, &order.OrderDatetime)
}

func (t *pgxTx) FinalizeOrder(ctx context.Context, order *models.Order) error {
	_, err := t.tx.Exec(ctx, database.FinalizeOrderSQL,
		order.TotalAmount,
		order.Address,
		order.Contact,
		order.ID,
	)
	return err
}

func (t *pgxTx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return t.tx.QueryRow(ctx, database.InsertOrderItemSQL,
		item.OrderID,
		item.ItemID,
		item.Price,
		item.Quantity,
	).Scan(&item.ID)
}

func (t *pgxTx) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, database.LockOrderSQL, id))
}

func (t *pgxTx) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	_, err := t.tx.Exec(ctx, database.UpdateOrderStatusSQL, status, id)
	return err
}

func (t *pgxTx) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	return scanRestaurant(t.tx.QueryRow(ctx, database.GetRestaurantSQL, id))
}

func (t *pgxTx) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := t.tx.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FullName,
		&user.PhoneNumber,
		&user.StreetAddress,
		&user.City,
		&user.State,
		&user.Zipcode,
		&user.Balance,
		&user.IsRestaurantOwner,
		&user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.Status,
		&order.RestaurantID,
		&order.CustomerID,
		&order.OrderDatetime,
		&order.TotalAmount,
		&order.Address,
		&order.Contact,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func scanRestaurant(row pgx.Row) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{}
	err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.IsActive,
		&restaurant.OwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

func collectOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.Status,
			&order.RestaurantID,
			&order.CustomerID,
			&order.OrderDatetime,
			&order.TotalAmount,
			&order.Address,
			&order.Contact,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func collectOrderItems(rows pgx.Rows) ([]models.OrderItem, error) {
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ItemID,
			&item.Item,
			&item.Price,
			&item.Quantity,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
