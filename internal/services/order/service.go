package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
	"ordernow/internal/logger"
	"ordernow/internal/models"
)

// Service implements the order placement and status transition workflows
type Service struct {
	store     Store
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates a new order service
func NewService(store Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// PlaceOrder atomically creates an order with its line items, reserves
// menu inventory and debits the customer's balance. Any failure rolls
// back every mutation; no partial order survives.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64, req *models.PlaceOrderRequest, requestID string) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		customer, err := tx.LockUser(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer row: %w", err)
		}

		if customer.PhoneNumber == nil || *customer.PhoneNumber == "" {
			return apperrors.NewValidation("Profile", "Phone number is required for placing order. Please update it.")
		}
		if missing := customer.MissingAddressFields(); len(missing) > 0 {
			return apperrors.NewValidation("Profile",
				fmt.Sprintf("Please update complete address first. Missing fields: %s.", strings.Join(missing, ", ")))
		}

		total := decimal.Zero
		for _, line := range req.Items {
			menuItem, err := tx.LockMenuItem(ctx, line.ID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.NewValidation("Items", fmt.Sprintf("Invalid item id: %d", line.ID))
				}
				return fmt.Errorf("failed to lock menu item %d: %w", line.ID, err)
			}

			if order == nil {
				// The first item fixes the order's restaurant. An inactive
				// restaurant reports the same message as a missing item so
				// restaurant status does not leak.
				if !menuItem.RestaurantActive {
					return apperrors.NewValidation("Items", fmt.Sprintf("Invalid item id: %d", line.ID))
				}
				order = &models.Order{
					Status:       models.StatusInProgress,
					RestaurantID: menuItem.RestaurantID,
					CustomerID:   customer.ID,
					TotalAmount:  decimal.Zero,
				}
				if err := tx.CreateOrder(ctx, order); err != nil {
					return fmt.Errorf("failed to create order: %w", err)
				}
			} else if menuItem.RestaurantID != order.RestaurantID {
				return apperrors.NewValidation("Items", "Select all items from same restaurant")
			}

			if menuItem.Quantity < line.Quantity {
				return apperrors.NewValidation("Items",
					fmt.Sprintf("Not enough quantity available for item: %s", menuItem.Name))
			}

			orderItem := &models.OrderItem{
				OrderID:  order.ID,
				ItemID:   menuItem.ID,
				Item:     menuItem.Name,
				Price:    menuItem.Price,
				Quantity: line.Quantity,
			}
			if err := tx.CreateOrderItem(ctx, orderItem); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			order.Items = append(order.Items, *orderItem)

			total = total.Add(menuItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))

			if err := tx.DecrementMenuQuantity(ctx, menuItem.ID, line.Quantity); err != nil {
				return fmt.Errorf("failed to decrement menu quantity: %w", err)
			}
		}

		order.TotalAmount = total
		order.Contact = *customer.PhoneNumber
		order.Address = customer.DeliveryAddress()
		if err := tx.FinalizeOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to finalize order: %w", err)
		}

		// Balance is checked last, against the row locked at the start,
		// so a concurrent debit cannot race this one.
		if customer.Balance.LessThan(total) {
			return apperrors.NewValidation("Profile", "Not enough balance")
		}
		if err := tx.UpdateUserBalance(ctx, customer.ID, customer.Balance.Sub(total)); err != nil {
			return fmt.Errorf("failed to debit balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_placed", "Order placed", requestID, map[string]interface{}{
		"order_id":      order.ID,
		"customer_id":   order.CustomerID,
		"restaurant_id": order.RestaurantID,
		"total_amount":  order.TotalAmount.String(),
	})

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, models.NewOrderCreatedEvent(order)); err != nil {
			// The order is already committed; a lost event is not a
			// placement failure.
			s.logger.Error("event_publish_failed", "Failed to publish order.created event", requestID, err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}

	return order, nil
}

// UpdateStatus atomically validates permission and state machine legality
// for a status change and applies it. Cancellation refunds the order's
// total to the customer; reserved menu stock is not returned.
func (s *Service) UpdateStatus(ctx context.Context, actorID, orderID int64, requested string, requestID string) (*models.Order, error) {
	newStatus, err := models.ParseOrderStatus(requested)
	if err != nil {
		return nil, err
	}

	var (
		updated   *models.Order
		oldStatus models.OrderStatus
	)
	err = s.store.InTx(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock order row: %w", err)
		}

		restaurant, err := tx.GetRestaurant(ctx, order.RestaurantID)
		if err != nil {
			return fmt.Errorf("failed to load restaurant: %w", err)
		}

		isOwner := restaurant.OwnerID == actorID
		if !isOwner && order.CustomerID != actorID {
			return apperrors.ErrPermission
		}

		if order.Status.IsTerminal() {
			return apperrors.NewValidation("status",
				fmt.Sprintf("Order cannot be updated. Current status is: %s", order.Status))
		}

		if !isOwner {
			// Customers may only cancel orders that are still in progress
			if order.Status != models.StatusInProgress {
				return apperrors.NewValidation("status",
					fmt.Sprintf("Order cannot be updated. Current status is: %s", order.Status))
			}
			if newStatus != models.StatusCancelled {
				return apperrors.NewValidation("status", "User can only cancel order.")
			}
		}

		oldStatus = order.Status
		if err := tx.UpdateOrderStatus(ctx, order.ID, newStatus); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = newStatus

		if newStatus == models.StatusCancelled {
			customer, err := tx.LockUser(ctx, order.CustomerID)
			if err != nil {
				return fmt.Errorf("failed to lock customer row: %w", err)
			}
			if err := tx.UpdateUserBalance(ctx, customer.ID, customer.Balance.Add(order.TotalAmount)); err != nil {
				return fmt.Errorf("failed to credit balance: %w", err)
			}
		}

		items, err := tx.GetOrderItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
		order.Items = items

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_changed", "Order status changed", requestID, map[string]interface{}{
		"order_id":   updated.ID,
		"old_status": string(oldStatus),
		"new_status": string(updated.Status),
		"changed_by": actorID,
	})

	if s.publisher != nil {
		if err := s.publisher.PublishStatusChange(ctx, models.NewOrderStatusChangedEvent(updated, oldStatus, actorID)); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish status change event", requestID, err, map[string]interface{}{
				"order_id": updated.ID,
			})
		}
	}

	return updated, nil
}

// GetOrder returns an order with its items. Only the order's customer or
// the restaurant owner may read it.
func (s *Service) GetOrder(ctx context.Context, actorID, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	restaurant, err := s.store.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}

	if order.CustomerID != actorID && restaurant.OwnerID != actorID {
		return nil, apperrors.ErrPermission
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	order.Items = items

	return order, nil
}

// ListOrders returns the actor's own orders, or a restaurant's orders
// when restaurantID is non-zero and the actor owns that restaurant.
func (s *Service) ListOrders(ctx context.Context, actorID, restaurantID int64) ([]models.Order, error) {
	var (
		orders []models.Order
		err    error
	)

	if restaurantID != 0 {
		restaurant, err := s.store.GetRestaurant(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
		if restaurant.OwnerID != actorID {
			return nil, apperrors.ErrPermission
		}
		orders, err = s.store.ListOrdersByRestaurant(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
	} else {
		orders, err = s.store.ListOrdersByCustomer(ctx, actorID)
		if err != nil {
			return nil, err
		}
	}

	for i := range orders {
		items, err := s.store.GetOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order items: %w", err)
		}
		orders[i].Items = items
	}

	return orders, nil
}

// HealthCheck checks the health of the storage dependency
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}
