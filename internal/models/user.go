package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// User represents a customer or restaurant owner profile
type User struct {
	ID                int64           `json:"id" db:"id"`
	Email             string          `json:"email" db:"email"`
	Username          string          `json:"username" db:"username"`
	FullName          string          `json:"full_name" db:"full_name"`
	PhoneNumber       *string         `json:"phone_number" db:"phone_number"`
	StreetAddress     string          `json:"street_address" db:"street_address"`
	City              string          `json:"city" db:"city"`
	State             string          `json:"state" db:"state"`
	Zipcode           string          `json:"zipcode" db:"zipcode"`
	Balance           decimal.Decimal `json:"balance" db:"balance"`
	IsRestaurantOwner bool            `json:"is_restaurant_owner" db:"is_restaurant_owner"`
	IsActive          bool            `json:"-" db:"is_active"`
}

// MissingAddressFields returns the names of required address fields that
// are empty, in the order they are checked.
func (u *User) MissingAddressFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"street_address", u.StreetAddress},
		{"state", u.State},
		{"city", u.City},
		{"zipcode", u.Zipcode},
	}

	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// DeliveryAddress formats the address snapshot stored on an order
func (u *User) DeliveryAddress() string {
	return fmt.Sprintf("%s, %s, %s, %s", u.StreetAddress, u.City, u.State, u.Zipcode)
}
