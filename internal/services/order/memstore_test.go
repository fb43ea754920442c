package order

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
	"ordernow/internal/models"
)

// memStore is an in-memory Store used by the service tests. InTx holds a
// single mutex for the duration of the callback and restores a snapshot
// on error, giving the same serialized, all-or-nothing semantics the
// tests need to observe.
type memStore struct {
	mu sync.Mutex

	users       map[int64]*models.User
	restaurants map[int64]*models.Restaurant
	menuItems   map[int64]*models.MenuItem
	orders      map[int64]*models.Order
	orderItems  map[int64][]models.OrderItem

	nextOrderID     int64
	nextOrderItemID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*models.User),
		restaurants: make(map[int64]*models.Restaurant),
		menuItems:   make(map[int64]*models.MenuItem),
		orders:      make(map[int64]*models.Order),
		orderItems:  make(map[int64][]models.OrderItem),
	}
}

type memSnapshot struct {
	users           map[int64]*models.User
	menuItems       map[int64]*models.MenuItem
	orders          map[int64]*models.Order
	orderItems      map[int64][]models.OrderItem
	nextOrderID     int64
	nextOrderItemID int64
}

func (s *memStore) snapshot() *memSnapshot {
	snap := &memSnapshot{
		users:           make(map[int64]*models.User, len(s.users)),
		menuItems:       make(map[int64]*models.MenuItem, len(s.menuItems)),
		orders:          make(map[int64]*models.Order, len(s.orders)),
		orderItems:      make(map[int64][]models.OrderItem, len(s.orderItems)),
		nextOrderID:     s.nextOrderID,
		nextOrderItemID: s.nextOrderItemID,
	}
	for id, u := range s.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, m := range s.menuItems {
		cp := *m
		snap.menuItems[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for id, items := range s.orderItems {
		snap.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
	return snap
}

func (s *memStore) restore(snap *memSnapshot) {
	s.users = snap.users
	s.menuItems = snap.menuItems
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.nextOrderID = snap.nextOrderID
	s.nextOrderItemID = snap.nextOrderItemID
}

func (s *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUser(id)
}

func (s *memStore) getUser(id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrder(id)
}

func (s *memStore) getOrder(id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetRestaurant(_ context.Context, id int64) (*models.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRestaurant(id)
}

func (s *memStore) getRestaurant(id int64) (*models.Restaurant, error) {
	r, ok := s.restaurants[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrderItems(orderID)
}

func (s *memStore) getOrderItems(orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), s.orderItems[orderID]...), nil
}

func (s *memStore) ListOrdersByCustomer(_ context.Context, customerID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for id := int64(1); id <= s.nextOrderID; id++ {
		if o, ok := s.orders[id]; ok && o.CustomerID == customerID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *memStore) ListOrdersByRestaurant(_ context.Context, restaurantID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for id := int64(1); id <= s.nextOrderID; id++ {
		if o, ok := s.orders[id]; ok && o.RestaurantID == restaurantID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }

// memTx applies mutations directly to the store; InTx restores the
// snapshot if the callback fails.
type memTx struct {
	store *memStore
}

func (t *memTx) LockUser(_ context.Context, id int64) (*models.User, error) {
	return t.store.getUser(id)
}

func (t *memTx) UpdateUserBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	u, ok := t.store.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Balance = balance
	return nil
}

func (t *memTx) LockMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	m, ok := t.store.menuItems[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *m
	if r, ok := t.store.restaurants[m.RestaurantID]; ok {
		cp.RestaurantActive = r.IsActive
	}
	return &cp, nil
}

func (t *memTx) DecrementMenuQuantity(_ context.Context, id int64, by int) error {
	m, ok := t.store.menuItems[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	m.Quantity -= by
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, order *models.Order) error {
	t.store.nextOrderID++
	order.ID = t.store.nextOrderID
	order.OrderDatetime = time.Now().UTC()

	cp := *order
	cp.Items = nil
	t.store.orders[order.ID] = &cp
	return nil
}

func (t *memTx) FinalizeOrder(_ context.Context, order *models.Order) error {
	stored, ok := t.store.orders[order.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	stored.TotalAmount = order.TotalAmount
	stored.Address = order.Address
	stored.Contact = order.Contact
	return nil
}

func (t *memTx) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	t.store.nextOrderItemID++
	item.ID = t.store.nextOrderItemID
	t.store.orderItems[item.OrderID] = append(t.store.orderItems[item.OrderID], *item)
	return nil
}

func (t *memTx) LockOrder(_ context.Context, id int64) (*models.Order, error) {
	return t.store.getOrder(id)
}

func (t *memTx) UpdateOrderStatus(_ context.Context, id int64, status models.OrderStatus) error {
	o, ok := t.store.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *memTx) GetRestaurant(_ context.Context, id int64) (*models.Restaurant, error) {
	return t.store.getRestaurant(id)
}

func (t *memTx) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return t.store.getOrderItems(orderID)
}

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu      sync.Mutex
	created []*models.OrderCreatedEvent
	changed []*models.OrderStatusChangedEvent
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, event)
	return nil
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, event *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, event)
	return nil
}
