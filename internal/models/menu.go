package models

import "github.com/shopspring/decimal"

// Restaurant represents a restaurant that publishes a menu
type Restaurant struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"-" db:"is_active"`
	OwnerID  int64  `json:"-" db:"owner_id"`
}

// MenuItem represents a menu item with its available quantity.
// RestaurantActive is populated by lookups that join the owning restaurant.
type MenuItem struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Price            decimal.Decimal `json:"price" db:"price"`
	Quantity         int             `json:"quantity" db:"quantity"`
	RestaurantID     int64           `json:"-" db:"restaurant_id"`
	RestaurantActive bool            `json:"-" db:"restaurant_active"`
}
