package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
	"ordernow/internal/logger"
	"ordernow/internal/models"
)

func strPtr(s string) *string { return &s }

func seedCustomer(s *memStore, id int64, balance string) *models.User {
	u := &models.User{
		ID:            id,
		Email:         fmt.Sprintf("customer%d@example.com", id),
		Username:      fmt.Sprintf("customer%d", id),
		PhoneNumber:   strPtr("+15550001111"),
		StreetAddress: "1 Main St",
		City:          "Springfield",
		State:         "IL",
		Zipcode:       "62701",
		Balance:       decimal.RequireFromString(balance),
		IsActive:      true,
	}
	s.users[id] = u
	return u
}

func seedOwner(s *memStore, id int64) *models.User {
	u := &models.User{
		ID:                id,
		Email:             fmt.Sprintf("owner%d@example.com", id),
		Username:          fmt.Sprintf("owner%d", id),
		PhoneNumber:       strPtr("+15550002222"),
		Balance:           decimal.Zero,
		IsRestaurantOwner: true,
		IsActive:          true,
	}
	s.users[id] = u
	return u
}

func seedRestaurant(s *memStore, id, ownerID int64, active bool) *models.Restaurant {
	r := &models.Restaurant{
		ID:       id,
		Name:     fmt.Sprintf("Restaurant %d", id),
		IsActive: active,
		OwnerID:  ownerID,
	}
	s.restaurants[id] = r
	return r
}

func seedMenuItem(s *memStore, id, restaurantID int64, name, price string, quantity int) *models.MenuItem {
	m := &models.MenuItem{
		ID:           id,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Quantity:     quantity,
		RestaurantID: restaurantID,
	}
	s.menuItems[id] = m
	return m
}

// seedPlacementFixture builds the baseline scenario used across the
// placement tests: one customer with 1000 balance, one active restaurant
// owned by user 10, one item priced 10.00 with 5 in stock.
func seedPlacementFixture(s *memStore) {
	seedCustomer(s, 1, "1000")
	seedOwner(s, 10)
	seedRestaurant(s, 100, 10, true)
	seedMenuItem(s, 5, 100, "Margherita", "10.00", 5)
}

func newTestService(s *memStore) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(s, pub, logger.New("order-service-test")), pub
}

func wantValidation(t *testing.T, err error, field, message string) {
	t.Helper()
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != field {
		t.Errorf("field = %q, want %q", ve.Field, field)
	}
	if ve.Message != message {
		t.Errorf("message = %q, want %q", ve.Message, message)
	}
}

func TestPlaceOrder(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	svc, pub := newTestService(store)

	order, err := svc.PlaceOrder(context.Background(), 1, &models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ID: 5, Quantity: 3}},
	}, "test-request")
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if order.Status != models.StatusInProgress {
		t.Errorf("status = %q, want %q", order.Status, models.StatusInProgress)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("total = %s, want 30.00", order.TotalAmount)
	}
	if order.Contact != "+15550001111" {
		t.Errorf("contact = %q", order.Contact)
	}
	if order.Address != "1 Main St, Springfield, IL, 62701" {
		t.Errorf("address = %q", order.Address)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}
	if !order.Items[0].Price.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("item price = %s, want 10.00", order.Items[0].Price)
	}
	if order.Items[0].Quantity != 3 {
		t.Errorf("item quantity = %d, want 3", order.Items[0].Quantity)
	}

	if got := store.menuItems[5].Quantity; got != 2 {
		t.Errorf("stock after placement = %d, want 2", got)
	}
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("970.00")) {
		t.Errorf("balance after placement = %s, want 970.00", got)
	}
	if _, ok := store.orders[order.ID]; !ok {
		t.Errorf("order %d not persisted", order.ID)
	}

	if len(pub.created) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.created))
	}
	if pub.created[0].OrderID != order.ID {
		t.Errorf("event order id = %d, want %d", pub.created[0].OrderID, order.ID)
	}
	if pub.created[0].RestaurantID != 100 {
		t.Errorf("event restaurant id = %d, want 100", pub.created[0].RestaurantID)
	}
}

func TestPlaceOrder_RequestValidation(t *testing.T) {
	tests := []struct {
		name        string
		req         *models.PlaceOrderRequest
		wantField   string
		wantMessage string
	}{
		{
			name:        "empty cart",
			req:         &models.PlaceOrderRequest{},
			wantField:   "items",
			wantMessage: "At least one item is required.",
		},
		{
			name: "zero quantity",
			req: &models.PlaceOrderRequest{
				Items: []models.OrderItemRequest{{ID: 5, Quantity: 0}},
			},
			wantField:   "items",
			wantMessage: "items[0].quantity must be at least 1",
		},
		{
			name: "negative quantity on second line",
			req: &models.PlaceOrderRequest{
				Items: []models.OrderItemRequest{{ID: 5, Quantity: 1}, {ID: 5, Quantity: -2}},
			},
			wantField:   "items",
			wantMessage: "items[1].quantity must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedPlacementFixture(store)
			svc, _ := newTestService(store)

			_, err := svc.PlaceOrder(context.Background(), 1, tt.req, "test-request")
			wantValidation(t, err, tt.wantField, tt.wantMessage)
		})
	}
}

func TestPlaceOrder_ProfileRequirements(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(u *models.User)
		wantMessage string
	}{
		{
			name:        "nil phone number",
			mutate:      func(u *models.User) { u.PhoneNumber = nil },
			wantMessage: "Phone number is required for placing order. Please update it.",
		},
		{
			name:        "empty phone number",
			mutate:      func(u *models.User) { u.PhoneNumber = strPtr("") },
			wantMessage: "Phone number is required for placing order. Please update it.",
		},
		{
			name: "one missing address field",
			mutate: func(u *models.User) {
				u.Zipcode = ""
			},
			wantMessage: "Please update complete address first. Missing fields: zipcode.",
		},
		{
			name: "several missing address fields in fixed order",
			mutate: func(u *models.User) {
				u.StreetAddress = ""
				u.State = ""
				u.Zipcode = ""
			},
			wantMessage: "Please update complete address first. Missing fields: street_address, state, zipcode.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedPlacementFixture(store)
			tt.mutate(store.users[1])
			svc, _ := newTestService(store)

			_, err := svc.PlaceOrder(context.Background(), 1, &models.PlaceOrderRequest{
				Items: []models.OrderItemRequest{{ID: 5, Quantity: 1}},
			}, "test-request")
			wantValidation(t, err, "Profile", tt.wantMessage)

			if got := store.menuItems[5].Quantity; got != 5 {
				t.Errorf("stock changed to %d on failed placement", got)
			}
			if len(store.orders) != 0 {
				t.Errorf("order persisted on failed placement")
			}
		})
	}
}

func TestPlaceOrder_CartFailures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(s *memStore)
		items       []models.OrderItemRequest
		wantMessage string
	}{
		{
			name:        "unknown item id",
			items:       []models.OrderItemRequest{{ID: 999, Quantity: 1}},
			wantMessage: "Invalid item id: 999",
		},
		{
			name: "inactive restaurant reported as invalid item",
			setup: func(s *memStore) {
				s.restaurants[100].IsActive = false
			},
			items:       []models.OrderItemRequest{{ID: 5, Quantity: 1}},
			wantMessage: "Invalid item id: 5",
		},
		{
			name: "items from two restaurants",
			setup: func(s *memStore) {
				seedOwner(s, 11)
				seedRestaurant(s, 200, 11, true)
				seedMenuItem(s, 6, 200, "Pad Thai", "12.00", 5)
			},
			items:       []models.OrderItemRequest{{ID: 5, Quantity: 1}, {ID: 6, Quantity: 1}},
			wantMessage: "Select all items from same restaurant",
		},
		{
			name:        "insufficient stock",
			items:       []models.OrderItemRequest{{ID: 5, Quantity: 6}},
			wantMessage: "Not enough quantity available for item: Margherita",
		},
		{
			name: "second line exhausts stock reserved by first",
			items: []models.OrderItemRequest{
				{ID: 5, Quantity: 3},
				{ID: 5, Quantity: 3},
			},
			wantMessage: "Not enough quantity available for item: Margherita",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedPlacementFixture(store)
			if tt.setup != nil {
				tt.setup(store)
			}
			svc, pub := newTestService(store)

			_, err := svc.PlaceOrder(context.Background(), 1, &models.PlaceOrderRequest{Items: tt.items}, "test-request")
			wantValidation(t, err, "Items", tt.wantMessage)

			if got := store.menuItems[5].Quantity; got != 5 {
				t.Errorf("stock = %d after rollback, want 5", got)
			}
			if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("1000")) {
				t.Errorf("balance = %s after rollback, want 1000", got)
			}
			if len(store.orders) != 0 {
				t.Errorf("order survived rollback")
			}
			if len(store.orderItems) != 0 {
				t.Errorf("order items survived rollback")
			}
			if len(pub.created) != 0 {
				t.Errorf("event published for failed placement")
			}
		})
	}
}

func TestPlaceOrder_InsufficientBalance(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	store.users[1].Balance = decimal.RequireFromString("20")
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, &models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ID: 5, Quantity: 3}},
	}, "test-request")
	wantValidation(t, err, "Profile", "Not enough balance")

	// The whole transaction rolls back, including the stock decrement
	// that happened before the balance check.
	if got := store.menuItems[5].Quantity; got != 5 {
		t.Errorf("stock = %d after rollback, want 5", got)
	}
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("20")) {
		t.Errorf("balance = %s after rollback, want 20", got)
	}
	if len(store.orders) != 0 {
		t.Errorf("order survived rollback")
	}
}

func TestPlaceOrder_ConcurrentStock(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	seedCustomer(store, 2, "1000")
	svc, _ := newTestService(store)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, customerID := range []int64{1, 2} {
		wg.Add(1)
		go func(slot int, id int64) {
			defer wg.Done()
			_, errs[slot] = svc.PlaceOrder(context.Background(), id, &models.PlaceOrderRequest{
				Items: []models.OrderItemRequest{{ID: 5, Quantity: 3}},
			}, "test-request")
		}(i, customerID)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		wantValidation(t, err, "Items", "Not enough quantity available for item: Margherita")
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want exactly 1", failures)
	}
	if got := store.menuItems[5].Quantity; got != 2 {
		t.Errorf("final stock = %d, want 2", got)
	}
}

// placeTestOrder seeds the baseline fixture and places one order of
// 3x Margherita, leaving balance 970 and stock 2.
func placeTestOrder(t *testing.T, svc *Service, store *memStore) *models.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), 1, &models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ID: 5, Quantity: 3}},
	}, "test-request")
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	return order
}

func TestUpdateStatus_Transitions(t *testing.T) {
	const (
		ownerID    = int64(10)
		customerID = int64(1)
		strangerID = int64(77)
	)

	tests := []struct {
		name        string
		current     models.OrderStatus
		actorID     int64
		requested   string
		wantStatus  models.OrderStatus
		wantField   string
		wantMessage string
		wantErr     error
	}{
		{
			name:       "owner dispatches",
			current:    models.StatusInProgress,
			actorID:    ownerID,
			requested:  "Dispatched",
			wantStatus: models.StatusDispatched,
		},
		{
			name:       "owner delivers without dispatching",
			current:    models.StatusInProgress,
			actorID:    ownerID,
			requested:  "Delivered",
			wantStatus: models.StatusDelivered,
		},
		{
			name:       "owner delivers dispatched order",
			current:    models.StatusDispatched,
			actorID:    ownerID,
			requested:  "Delivered",
			wantStatus: models.StatusDelivered,
		},
		{
			name:       "owner cancels dispatched order",
			current:    models.StatusDispatched,
			actorID:    ownerID,
			requested:  "Cancelled",
			wantStatus: models.StatusCancelled,
		},
		{
			name:       "customer cancels in-progress order",
			current:    models.StatusInProgress,
			actorID:    customerID,
			requested:  "Cancelled",
			wantStatus: models.StatusCancelled,
		},
		{
			name:        "customer cancels dispatched order",
			current:     models.StatusDispatched,
			actorID:     customerID,
			requested:   "Cancelled",
			wantField:   "status",
			wantMessage: "Order cannot be updated. Current status is: Dispatched",
		},
		{
			name:        "customer tries to dispatch",
			current:     models.StatusInProgress,
			actorID:     customerID,
			requested:   "Dispatched",
			wantField:   "status",
			wantMessage: "User can only cancel order.",
		},
		{
			name:        "customer tries to deliver",
			current:     models.StatusInProgress,
			actorID:     customerID,
			requested:   "Delivered",
			wantField:   "status",
			wantMessage: "User can only cancel order.",
		},
		{
			name:        "delivered order is terminal for owner",
			current:     models.StatusDelivered,
			actorID:     ownerID,
			requested:   "Cancelled",
			wantField:   "status",
			wantMessage: "Order cannot be updated. Current status is: Delivered",
		},
		{
			name:        "cancelled order is terminal for owner",
			current:     models.StatusCancelled,
			actorID:     ownerID,
			requested:   "Dispatched",
			wantField:   "status",
			wantMessage: "Order cannot be updated. Current status is: Cancelled",
		},
		{
			name:      "unrelated user is rejected",
			current:   models.StatusInProgress,
			actorID:   strangerID,
			requested: "Cancelled",
			wantErr:   apperrors.ErrPermission,
		},
		{
			name:        "unknown status value",
			current:     models.StatusInProgress,
			actorID:     ownerID,
			requested:   "Shipped",
			wantField:   "status",
			wantMessage: "Invalid status: Shipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedPlacementFixture(store)
			seedCustomer(store, strangerID, "1000")
			svc, _ := newTestService(store)

			placed := placeTestOrder(t, svc, store)
			store.orders[placed.ID].Status = tt.current

			updated, err := svc.UpdateStatus(context.Background(), tt.actorID, placed.ID, tt.requested, "test-request")

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantField != "":
				wantValidation(t, err, tt.wantField, tt.wantMessage)
				if got := store.orders[placed.ID].Status; got != tt.current {
					t.Errorf("status changed to %q on rejected transition", got)
				}
			default:
				if err != nil {
					t.Fatalf("UpdateStatus returned error: %v", err)
				}
				if updated.Status != tt.wantStatus {
					t.Errorf("status = %q, want %q", updated.Status, tt.wantStatus)
				}
				if got := store.orders[placed.ID].Status; got != tt.wantStatus {
					t.Errorf("persisted status = %q, want %q", got, tt.wantStatus)
				}
			}
		})
	}
}

func TestUpdateStatus_CancelRefundsBalance(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	svc, pub := newTestService(store)

	placed := placeTestOrder(t, svc, store)
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("970.00")) {
		t.Fatalf("balance after placement = %s, want 970.00", got)
	}

	updated, err := svc.UpdateStatus(context.Background(), 1, placed.ID, "Cancelled", "test-request")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != models.StatusCancelled {
		t.Errorf("status = %q, want Cancelled", updated.Status)
	}
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("balance after cancel = %s, want 1000.00", got)
	}

	if len(pub.changed) != 1 {
		t.Fatalf("status change events = %d, want 1", len(pub.changed))
	}
	if pub.changed[0].OldStatus != models.StatusInProgress || pub.changed[0].NewStatus != models.StatusCancelled {
		t.Errorf("event transition = %s -> %s", pub.changed[0].OldStatus, pub.changed[0].NewStatus)
	}

	// A second cancellation hits the terminal guard before any refund,
	// so the balance is not credited twice.
	_, err = svc.UpdateStatus(context.Background(), 1, placed.ID, "Cancelled", "test-request")
	wantValidation(t, err, "status", "Order cannot be updated. Current status is: Cancelled")
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("balance after repeated cancel = %s, want 1000.00", got)
	}
}

func TestUpdateStatus_OwnerCancelRefundsCustomer(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	svc, _ := newTestService(store)

	placed := placeTestOrder(t, svc, store)

	if _, err := svc.UpdateStatus(context.Background(), 10, placed.ID, "Cancelled", "test-request"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if got := store.users[1].Balance; !got.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("customer balance after owner cancel = %s, want 1000.00", got)
	}
}

func TestCancelDoesNotRestoreStock(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	svc, _ := newTestService(store)

	placed := placeTestOrder(t, svc, store)
	if got := store.menuItems[5].Quantity; got != 2 {
		t.Fatalf("stock after placement = %d, want 2", got)
	}

	if _, err := svc.UpdateStatus(context.Background(), 1, placed.ID, "Cancelled", "test-request"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if got := store.menuItems[5].Quantity; got != 2 {
		t.Errorf("stock after cancel = %d, want 2 (inventory is not restored)", got)
	}
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	svc, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), 1, 404, "Cancelled", "test-request")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestGetOrder(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	seedCustomer(store, 77, "1000")
	svc, _ := newTestService(store)

	placed := placeTestOrder(t, svc, store)

	t.Run("customer reads own order", func(t *testing.T) {
		order, err := svc.GetOrder(context.Background(), 1, placed.ID)
		if err != nil {
			t.Fatalf("GetOrder returned error: %v", err)
		}
		if len(order.Items) != 1 {
			t.Errorf("items = %d, want 1", len(order.Items))
		}
	})

	t.Run("owner reads customer order", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), 10, placed.ID); err != nil {
			t.Fatalf("GetOrder returned error: %v", err)
		}
	})

	t.Run("unrelated user is rejected", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), 77, placed.ID); !errors.Is(err, apperrors.ErrPermission) {
			t.Fatalf("error = %v, want ErrPermission", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), 1, 404); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestListOrders(t *testing.T) {
	store := newMemStore()
	seedPlacementFixture(store)
	seedCustomer(store, 2, "1000")
	svc, _ := newTestService(store)

	placeTestOrder(t, svc, store)
	if _, err := svc.PlaceOrder(context.Background(), 2, &models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ID: 5, Quantity: 1}},
	}, "test-request"); err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	t.Run("customer sees own orders only", func(t *testing.T) {
		orders, err := svc.ListOrders(context.Background(), 1, 0)
		if err != nil {
			t.Fatalf("ListOrders returned error: %v", err)
		}
		if len(orders) != 1 {
			t.Fatalf("orders = %d, want 1", len(orders))
		}
		if orders[0].CustomerID != 1 {
			t.Errorf("customer id = %d, want 1", orders[0].CustomerID)
		}
		if len(orders[0].Items) != 1 {
			t.Errorf("items = %d, want 1", len(orders[0].Items))
		}
	})

	t.Run("owner sees all restaurant orders", func(t *testing.T) {
		orders, err := svc.ListOrders(context.Background(), 10, 100)
		if err != nil {
			t.Fatalf("ListOrders returned error: %v", err)
		}
		if len(orders) != 2 {
			t.Fatalf("orders = %d, want 2", len(orders))
		}
	})

	t.Run("non-owner cannot list restaurant orders", func(t *testing.T) {
		if _, err := svc.ListOrders(context.Background(), 1, 100); !errors.Is(err, apperrors.ErrPermission) {
			t.Fatalf("error = %v, want ErrPermission", err)
		}
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		if _, err := svc.ListOrders(context.Background(), 10, 404); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}
